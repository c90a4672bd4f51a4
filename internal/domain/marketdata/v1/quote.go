package marketdatav1

import "context"

// Quote is one observed external price for a symbol.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // ns since epoch
}

// Feed is a market-data source that pushes quotes into out until ctx is
// cancelled. Implementations own their transport and never let transport
// failures escape; they retry internally and return only on ctx cancellation.
type Feed interface {
	Run(ctx context.Context, out chan<- Quote) error
}

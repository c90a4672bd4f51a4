package publisherv1

import (
	"context"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
)

// Metric is one engine measurement published to the metrics topic.
type Metric struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Symbol    string  `json:"symbol,omitempty"`
	Timestamp int64   `json:"timestamp"` // ns since epoch
}

// TradePublisher publishes executed trades and engine metrics to the
// external messaging system.
type TradePublisher interface {
	PublishTrades(ctx context.Context, trades []orderbookv1.Trade) error
	PublishMetric(ctx context.Context, metric Metric) error
	Close() error
}

package orderbookv1

// Side represents which side of the book an order belongs to.
type Side uint8

const (
	// SideBuy represents a buy (bid) order.
	SideBuy Side = iota
	// SideSell represents a sell (ask) order.
	SideSell
)

// String returns the wire name of the side.
func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// OrderType represents the type of order.
type OrderType uint8

const (
	// OrderTypeLimit represents a limit order.
	OrderTypeLimit OrderType = iota
	// OrderTypeMarket represents a market order.
	OrderTypeMarket
	// OrderTypeCancel represents a cancel request for a resting order.
	OrderTypeCancel
)

// String returns the wire name of the order type.
func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeMarket:
		return "MARKET"
	default:
		return "CANCEL"
	}
}

// Order represents a single intent to trade. The caller assigns the ID;
// Price is ignored for MARKET and CANCEL orders and Quantity is ignored
// for CANCEL.
type Order struct {
	ID        uint64    `json:"orderId"`
	AccountID uint64    `json:"accountId"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Type      OrderType `json:"type"`
	Price     float64   `json:"price"`
	Quantity  uint64    `json:"quantity"`
	Timestamp int64     `json:"timestamp"` // ns since epoch, submission time
}

// IsBuy reports whether the order is on the buy side.
func (o *Order) IsBuy() bool {
	return o.Side == SideBuy
}

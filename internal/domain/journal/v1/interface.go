package journalv1

import (
	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
)

// Journal records accepted orders and executed trades durably, outside the
// matching path's correctness contract. Append calls must be safe for use
// from the single writer goroutine while Close runs elsewhere.
type Journal interface {
	AppendOrder(order *orderbookv1.Order) error
	AppendTrades(trades []orderbookv1.Trade) error
	Close() error
}

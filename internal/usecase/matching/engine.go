package matching

import (
	"sync"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	"github.com/murphylee10/trading-engine/internal/usecase/orderbook"
)

// Engine multiplexes per-symbol order books, assigns globally unique trade
// ids and buffers completed trades for the query and drain paths.
//
// Order flow is single-writer: exactly one goroutine is expected to call
// OnNewOrder/OnCancel, which keeps matching deterministic. The internal
// RWMutex exists only so the query methods (SnapshotBook, RecentTrades,
// CollectTrades) can run from other goroutines without observing a torn
// book or buffer.
type Engine struct {
	mu sync.RWMutex

	books       map[string]*orderbook.OrderBook
	trades      []orderbookv1.Trade
	nextTradeID uint64

	historyLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTradeHistoryLimit bounds the in-memory trade buffer to n entries,
// discarding the oldest once exceeded. n <= 0 leaves the buffer unbounded.
func WithTradeHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// NewEngine creates an engine with no books; books are created lazily on
// the first order for each symbol.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		books:       make(map[string]*orderbook.OrderBook),
		nextTradeID: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnNewOrder routes the order to its symbol's book, stamps the produced
// trades with globally increasing ids and appends them to the trade buffer.
// The stamped trades are returned to the caller for logging and publishing.
func (e *Engine) OnNewOrder(order *orderbookv1.Order) []orderbookv1.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	book, ok := e.books[order.Symbol]
	if !ok {
		book = orderbook.NewOrderBook(order.Symbol)
		e.books[order.Symbol] = book
	}

	trades := book.AddOrder(order)
	for i := range trades {
		trades[i].TradeID = e.nextTradeID
		e.nextTradeID++
	}
	e.trades = append(e.trades, trades...)

	if e.historyLimit > 0 && len(e.trades) > e.historyLimit {
		overflow := len(e.trades) - e.historyLimit
		e.trades = append(e.trades[:0:0], e.trades[overflow:]...)
	}

	return trades
}

// OnCancel routes the cancel to the named symbol's book. A symbol that has
// never been seen is a no-op.
func (e *Engine) OnCancel(orderID uint64, symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if book, ok := e.books[symbol]; ok {
		book.CancelOrder(orderID)
	}
}

// CollectTrades atomically takes and clears the trade buffer, returning
// everything accumulated since the previous call.
func (e *Engine) CollectTrades() []orderbookv1.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.trades
	e.trades = nil
	return out
}

// SnapshotBook returns up to depth bid levels of the named book, best
// first. An unknown symbol yields an empty snapshot. Only the bid side is
// exposed through this call; ask-side depth exists at the book level.
func (e *Engine) SnapshotBook(symbol string, depth int) []orderbookv1.DepthEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	book, ok := e.books[symbol]
	if !ok {
		return nil
	}
	return book.Bids(depth)
}

// RecentTrades returns up to limit buffered trades for the symbol, oldest
// first. The scan walks the whole buffer; this is a query path, not the
// hot write path.
func (e *Engine) RecentTrades(symbol string, limit int) []orderbookv1.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []orderbookv1.Trade
	for i := len(e.trades) - 1; i >= 0 && len(out) < limit; i-- {
		if e.trades[i].Symbol == symbol {
			out = append(out, e.trades[i])
		}
	}

	// collected newest first, flip to oldest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// TotalTrades returns how many trades the engine has stamped since startup,
// regardless of what remains buffered.
func (e *Engine) TotalTrades() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextTradeID - 1
}

// BestBid returns the best bid for the symbol, or the 0.0 sentinel when the
// symbol is unknown or its bid side is empty.
func (e *Engine) BestBid(symbol string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if book, ok := e.books[symbol]; ok {
		return book.BestBid()
	}
	return 0.0
}

// BestAsk returns the best ask for the symbol, or the 0.0 sentinel when the
// symbol is unknown or its ask side is empty.
func (e *Engine) BestAsk(symbol string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if book, ok := e.books[symbol]; ok {
		return book.BestAsk()
	}
	return 0.0
}

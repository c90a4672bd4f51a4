package orderbook

import (
	"math"
	"sort"
	"time"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
)

// orderLocation records where a resting order lives so cancels find it
// without scanning the book.
type orderLocation struct {
	isBid bool
	price float64
}

// OrderBook maintains price-time priority state for one symbol and executes
// the matching algorithm. It performs no locking of its own: callers must
// serialize all access (the engine above it does).
type OrderBook struct {
	symbol string

	bids map[float64]*orderbookv1.PriceLevel
	asks map[float64]*orderbookv1.PriceLevel

	// price ladders kept sorted best-first: bids descending, asks ascending
	bidPrices []float64
	askPrices []float64

	locations map[uint64]orderLocation
}

// NewOrderBook creates an empty book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:    symbol,
		bids:      make(map[float64]*orderbookv1.PriceLevel),
		asks:      make(map[float64]*orderbookv1.PriceLevel),
		locations: make(map[uint64]orderLocation),
	}
}

// Symbol returns the symbol this book was created for.
func (b *OrderBook) Symbol() string {
	return b.symbol
}

// AddOrder matches the incoming order against resting liquidity and returns
// the trades produced, oldest match first. TradeID is left as the zero
// placeholder for the engine to stamp. A LIMIT remainder rests at its price;
// a MARKET remainder is dropped. CANCEL orders delegate to CancelOrder and
// never produce trades.
func (b *OrderBook) AddOrder(order *orderbookv1.Order) []orderbookv1.Trade {
	if order.Type == orderbookv1.OrderTypeCancel {
		b.CancelOrder(order.ID)
		return nil
	}

	// A non-finite limit price must never rest: a NaN map key is unreachable
	// on later lookups and would leave the price ladder pointing at nothing.
	if order.Type == orderbookv1.OrderTypeLimit &&
		(math.IsNaN(order.Price) || math.IsInf(order.Price, 0)) {
		return nil
	}

	// A market order must cross any opposite level, so give it a limit
	// price that always satisfies the crossing predicate.
	limitPrice := order.Price
	if order.Type == orderbookv1.OrderTypeMarket {
		if order.IsBuy() {
			limitPrice = math.Inf(1)
		} else {
			limitPrice = math.Inf(-1)
		}
	}

	var trades []orderbookv1.Trade
	remaining := order.Quantity

	if order.IsBuy() {
		for remaining > 0 && len(b.askPrices) > 0 && limitPrice >= b.askPrices[0] {
			levelPrice := b.askPrices[0]
			level := b.asks[levelPrice]

			var levelTrades []orderbookv1.Trade
			levelTrades, remaining = b.matchAtLevel(level, remaining, order)
			trades = append(trades, levelTrades...)

			if level.IsEmpty() {
				delete(b.asks, levelPrice)
				b.askPrices = b.askPrices[1:]
			}
		}
		if order.Type == orderbookv1.OrderTypeLimit && remaining > 0 {
			b.rest(order, remaining, true)
		}
	} else {
		for remaining > 0 && len(b.bidPrices) > 0 && limitPrice <= b.bidPrices[0] {
			levelPrice := b.bidPrices[0]
			level := b.bids[levelPrice]

			var levelTrades []orderbookv1.Trade
			levelTrades, remaining = b.matchAtLevel(level, remaining, order)
			trades = append(trades, levelTrades...)

			if level.IsEmpty() {
				delete(b.bids, levelPrice)
				b.bidPrices = b.bidPrices[1:]
			}
		}
		if order.Type == orderbookv1.OrderTypeLimit && remaining > 0 {
			b.rest(order, remaining, false)
		}
	}

	return trades
}

// matchAtLevel fills the incoming order against the level's FIFO queue and
// returns the trades plus the incoming quantity still unfilled. Trades
// execute at the resting order's price. Fully consumed resting orders leave
// the queue and the location index in the same step.
func (b *OrderBook) matchAtLevel(
	level *orderbookv1.PriceLevel,
	remaining uint64,
	incoming *orderbookv1.Order,
) ([]orderbookv1.Trade, uint64) {
	var trades []orderbookv1.Trade

	for remaining > 0 && !level.IsEmpty() {
		resting := level.Front()

		qty := remaining
		if resting.Quantity < qty {
			qty = resting.Quantity
		}

		trade := orderbookv1.Trade{
			Symbol:    b.symbol,
			Price:     level.Price,
			Quantity:  qty,
			Timestamp: time.Now().UnixNano(),
		}
		if incoming.IsBuy() {
			trade.BuyOrderID = incoming.ID
			trade.SellOrderID = resting.ID
		} else {
			trade.BuyOrderID = resting.ID
			trade.SellOrderID = incoming.ID
		}
		trades = append(trades, trade)

		restingID := resting.ID
		if level.FillFront(qty) {
			delete(b.locations, restingID)
		}
		remaining -= qty
	}

	return trades, remaining
}

// rest queues the unfilled remainder of a limit order at its price on its
// own side and records its location.
func (b *OrderBook) rest(order *orderbookv1.Order, remaining uint64, isBid bool) {
	resting := *order
	resting.Quantity = remaining

	levels := b.asks
	if isBid {
		levels = b.bids
	}

	level, ok := levels[order.Price]
	if !ok {
		level = orderbookv1.NewPriceLevel(order.Price)
		levels[order.Price] = level
		if isBid {
			b.bidPrices = insertPrice(b.bidPrices, order.Price, true)
		} else {
			b.askPrices = insertPrice(b.askPrices, order.Price, false)
		}
	}

	level.Enqueue(&resting)
	b.locations[order.ID] = orderLocation{isBid: isBid, price: order.Price}
}

// CancelOrder removes a resting order by id. Unknown or already removed ids
// are a no-op, not an error: a cancel racing a fill is a steady-state event.
func (b *OrderBook) CancelOrder(orderID uint64) {
	loc, ok := b.locations[orderID]
	if !ok {
		return
	}

	levels := b.asks
	if loc.isBid {
		levels = b.bids
	}

	level := levels[loc.price]
	if level != nil {
		level.Remove(orderID)
		if level.IsEmpty() {
			delete(levels, loc.price)
			if loc.isBid {
				b.bidPrices = removePrice(b.bidPrices, loc.price)
			} else {
				b.askPrices = removePrice(b.askPrices, loc.price)
			}
		}
	}

	delete(b.locations, orderID)
}

// BestBid returns the highest resting bid price, or 0.0 when the bid side
// is empty. 0.0 is a "no liquidity" sentinel, not a valid price.
func (b *OrderBook) BestBid() float64 {
	if len(b.bidPrices) == 0 {
		return 0.0
	}
	return b.bidPrices[0]
}

// BestAsk returns the lowest resting ask price, or 0.0 when the ask side
// is empty.
func (b *OrderBook) BestAsk() float64 {
	if len(b.askPrices) == 0 {
		return 0.0
	}
	return b.askPrices[0]
}

// Bids returns up to depth bid levels, best (highest) first, with the total
// resting quantity at each price.
func (b *OrderBook) Bids(depth int) []orderbookv1.DepthEntry {
	return b.depth(b.bidPrices, b.bids, depth)
}

// Asks returns up to depth ask levels, best (lowest) first, with the total
// resting quantity at each price.
func (b *OrderBook) Asks(depth int) []orderbookv1.DepthEntry {
	return b.depth(b.askPrices, b.asks, depth)
}

func (b *OrderBook) depth(prices []float64, levels map[float64]*orderbookv1.PriceLevel, depth int) []orderbookv1.DepthEntry {
	if depth > len(prices) {
		depth = len(prices)
	}
	if depth <= 0 {
		return nil
	}

	entries := make([]orderbookv1.DepthEntry, 0, depth)
	for _, price := range prices[:depth] {
		entries = append(entries, orderbookv1.DepthEntry{
			Price:    price,
			Quantity: levels[price].TotalQuantity,
		})
	}
	return entries
}

// insertPrice inserts price into a ladder kept best-first: descending for
// bids, ascending for asks. The price is known not to be present.
func insertPrice(prices []float64, price float64, descending bool) []float64 {
	i := sort.Search(len(prices), func(i int) bool {
		if descending {
			return prices[i] < price
		}
		return prices[i] > price
	})

	prices = append(prices, 0)
	copy(prices[i+1:], prices[i:])
	prices[i] = price
	return prices
}

func removePrice(prices []float64, price float64) []float64 {
	for i, p := range prices {
		if p == price {
			return append(prices[:i], prices[i+1:]...)
		}
	}
	return prices
}

package orderbookv1

// Trade is an immutable record of one match. The book leaves TradeID as the
// zero placeholder; the engine stamps the real id before the trade is
// visible anywhere else. Trades are append-only and never mutated after that.
type Trade struct {
	TradeID     uint64  `json:"tradeId"`
	BuyOrderID  uint64  `json:"buyOrderId"`
	SellOrderID uint64  `json:"sellOrderId"`
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Quantity    uint64  `json:"qty"`
	Timestamp   int64   `json:"timestamp"` // ns since epoch, match time
}

// DepthEntry is one aggregated price level of a depth snapshot.
type DepthEntry struct {
	Price    float64 `json:"price"`
	Quantity uint64  `json:"qty"`
}

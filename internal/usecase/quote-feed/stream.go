package quotefeed

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	marketdatav1 "github.com/murphylee10/trading-engine/internal/domain/marketdata/v1"
	"github.com/murphylee10/trading-engine/pkg/errors"
	"github.com/murphylee10/trading-engine/pkg/logger"
)

const reconnectDelay = 5 * time.Second

// StreamFeed subscribes to the exchange's combined trade stream over
// websocket and pushes each trade's price as a quote. The connection is
// re-dialed with a fixed delay after any failure until ctx is cancelled.
type StreamFeed struct {
	baseURL string
	symbols []string
	logger  *logger.Logger
}

// tradeEvent mirrors the exchange's @trade stream payload: s = symbol,
// p = decimal price string, T = trade time in ms since epoch.
type tradeEvent struct {
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

// NewStreamFeed creates a stream feed for the given websocket base URL and
// symbols.
func NewStreamFeed(baseURL string, symbols []string, log *logger.Logger) *StreamFeed {
	return &StreamFeed{
		baseURL: baseURL,
		symbols: symbols,
		logger:  log,
	}
}

// Run maintains the subscription until ctx is cancelled.
func (f *StreamFeed) Run(ctx context.Context, out chan<- marketdatav1.Quote) error {
	for {
		if err := f.consume(ctx, out); err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			f.logger.Warn("trade stream disconnected",
				logger.Field{Key: "error", Value: err.Error()},
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *StreamFeed) consume(ctx context.Context, out chan<- marketdatav1.Quote) error {
	streams := make([]string, 0, len(f.symbols))
	for _, symbol := range f.symbols {
		streams = append(streams, strings.ToLower(symbol)+"@trade")
	}
	endpoint := f.baseURL + "/ws/" + strings.Join(streams, "/")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return errors.NewTracer("dial trade stream").Wrap(err)
	}
	defer conn.Close()

	f.logger.Info("trade stream connected", logger.Field{
		Key:   "endpoint",
		Value: endpoint,
	})

	// the watcher must not outlive this connection, or every reconnect
	// would park one goroutine until ctx is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return errors.NewTracer("read trade stream").Wrap(err)
		}

		var event tradeEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			f.logger.Warn("skipping unparseable stream message",
				logger.Field{Key: "error", Value: err.Error()},
			)
			continue
		}

		price, err := strconv.ParseFloat(event.Price, 64)
		if err != nil {
			continue
		}

		quote := marketdatav1.Quote{
			Symbol:    event.Symbol,
			Price:     price,
			Timestamp: event.TradeTime * int64(time.Millisecond),
		}

		select {
		case out <- quote:
		case <-ctx.Done():
			return nil
		}
	}
}

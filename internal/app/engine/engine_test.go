package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	journalv1 "github.com/murphylee10/trading-engine/internal/domain/journal/v1"
	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	publisherv1 "github.com/murphylee10/trading-engine/internal/domain/publisher/v1"
	"github.com/murphylee10/trading-engine/internal/usecase/matching"
	"github.com/murphylee10/trading-engine/pkg/logger"
)

type fakeJournal struct {
	mu     sync.Mutex
	orders []orderbookv1.Order
	trades []orderbookv1.Trade
	closed bool
}

func (f *fakeJournal) AppendOrder(order *orderbookv1.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, *order)
	return nil
}

func (f *fakeJournal) AppendTrades(trades []orderbookv1.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades = append(f.trades, trades...)
	return nil
}

func (f *fakeJournal) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeJournal) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders), len(f.trades)
}

type fakePublisher struct {
	mu      sync.Mutex
	trades  []orderbookv1.Trade
	metrics []publisherv1.Metric
}

func (f *fakePublisher) PublishTrades(_ context.Context, trades []orderbookv1.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades = append(f.trades, trades...)
	return nil
}

func (f *fakePublisher) PublishMetric(_ context.Context, metric publisherv1.Metric) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = append(f.metrics, metric)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) tradeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.trades)
}

func (f *fakePublisher) metricCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.metrics)
}

func testOrder(id uint64, side orderbookv1.Side, price float64, qty uint64) *orderbookv1.Order {
	return &orderbookv1.Order{
		ID:        id,
		AccountID: 1,
		Symbol:    "AAPL",
		Side:      side,
		Type:      orderbookv1.OrderTypeLimit,
		Price:     price,
		Quantity:  qty,
		Timestamp: time.Now().UnixNano(),
	}
}

func newTestEngine(t testing.TB, journal *fakeJournal, publisher *fakePublisher) *Engine {
	t.Helper()

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ErrorLevel))
	require.NoError(t, err)

	matcher := matching.NewEngine()

	opts := DefaultEngineOptions()
	opts.MetricsInterval = 20 * time.Millisecond

	// typed nils would defeat the engine's nil checks
	var j journalv1.Journal
	if journal != nil {
		j = journal
	}
	var p publisherv1.TradePublisher
	if publisher != nil {
		p = publisher
	}

	return NewEngine(matcher, j, p, log, opts)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEngine_ProcessesSubmittedOrders(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	ctx := context.Background()
	engine.Start(ctx)
	defer engine.Stop(ctx)

	require.NoError(t, engine.Submit(ctx, testOrder(1, orderbookv1.SideSell, 100.0, 5)))
	require.NoError(t, engine.Submit(ctx, testOrder(2, orderbookv1.SideBuy, 100.0, 5)))

	waitFor(t, func() bool {
		return engine.Matcher().TotalTrades() == 1
	})

	trades := engine.Matcher().RecentTrades("AAPL", 10)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(1), trades[0].TradeID)
	assert.Equal(t, uint64(5), trades[0].Quantity)
}

func TestEngine_CancelThroughQueue(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	ctx := context.Background()
	engine.Start(ctx)
	defer engine.Stop(ctx)

	require.NoError(t, engine.Submit(ctx, testOrder(1, orderbookv1.SideBuy, 99.0, 10)))
	waitFor(t, func() bool {
		return engine.Matcher().BestBid("AAPL") == 99.0
	})

	cancel := &orderbookv1.Order{ID: 1, Symbol: "AAPL", Type: orderbookv1.OrderTypeCancel}
	require.NoError(t, engine.Submit(ctx, cancel))

	waitFor(t, func() bool {
		return engine.Matcher().BestBid("AAPL") == 0.0
	})
}

func TestEngine_JournalAndPublisherSeeTrades(t *testing.T) {
	journal := &fakeJournal{}
	publisher := &fakePublisher{}
	engine := newTestEngine(t, journal, publisher)

	ctx := context.Background()
	engine.Start(ctx)
	defer engine.Stop(ctx)

	require.NoError(t, engine.Submit(ctx, testOrder(1, orderbookv1.SideSell, 100.0, 5)))
	require.NoError(t, engine.Submit(ctx, testOrder(2, orderbookv1.SideBuy, 100.0, 3)))

	waitFor(t, func() bool {
		orders, trades := journal.counts()
		return orders == 2 && trades == 1 && publisher.tradeCount() == 1
	})
}

func TestEngine_MetricsReporterPublishes(t *testing.T) {
	publisher := &fakePublisher{}
	engine := newTestEngine(t, nil, publisher)

	ctx := context.Background()
	engine.Start(ctx)
	defer engine.Stop(ctx)

	waitFor(t, func() bool {
		return publisher.metricCount() >= 2
	})
}

func TestEngine_SubmitAfterStop(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	ctx := context.Background()
	engine.Start(ctx)
	require.NoError(t, engine.Stop(ctx))

	err := engine.Submit(context.Background(), testOrder(1, orderbookv1.SideBuy, 100.0, 1))
	assert.ErrorIs(t, err, ErrEngineStopped)
}

// Producers may already be calling Submit while Start swaps in the real
// context; run both under the race detector.
func TestEngine_StartWithConcurrentProducers(t *testing.T) {
	engine := newTestEngine(t, nil, nil)
	ctx := context.Background()

	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				id := uint64(p*perProducer + i + 1)
				side := orderbookv1.SideBuy
				if id%2 == 0 {
					side = orderbookv1.SideSell
				}
				_ = engine.Submit(ctx, testOrder(id, side, 100.0, 1))
			}
		}(p)
	}

	engine.Start(ctx)
	wg.Wait()

	waitFor(t, func() bool {
		return engine.Matcher().TotalTrades() == producers*perProducer/2
	})
	require.NoError(t, engine.Stop(ctx))
}

// Orders queued before the shutdown signal are still processed.
func TestEngine_StopDrainsQueuedOrders(t *testing.T) {
	engine := newTestEngine(t, nil, nil)
	ctx := context.Background()

	const pairs = 50
	for i := 0; i < pairs; i++ {
		id := uint64(i*2 + 1)
		require.NoError(t, engine.Submit(ctx, testOrder(id, orderbookv1.SideSell, 100.0, 1)))
		require.NoError(t, engine.Submit(ctx, testOrder(id+1, orderbookv1.SideBuy, 100.0, 1)))
	}

	engine.Start(ctx)
	require.NoError(t, engine.Stop(ctx))

	assert.Equal(t, uint64(pairs), engine.Matcher().TotalTrades())
}

func TestEngine_ConcurrentProducers(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	ctx := context.Background()
	engine.Start(ctx)
	defer engine.Stop(ctx)

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				id := uint64(p*perProducer + i + 1)
				side := orderbookv1.SideBuy
				if id%2 == 0 {
					side = orderbookv1.SideSell
				}
				_ = engine.Submit(ctx, testOrder(id, side, 100.0, 1))
			}
		}(p)
	}
	wg.Wait()

	// every buy eventually pairs with a sell at the single price level
	waitFor(t, func() bool {
		return engine.Matcher().TotalTrades() == producers*perProducer/2
	})
}

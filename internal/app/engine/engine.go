package engine

import (
	"context"
	"sync"
	"time"

	journalv1 "github.com/murphylee10/trading-engine/internal/domain/journal/v1"
	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	publisherv1 "github.com/murphylee10/trading-engine/internal/domain/publisher/v1"
	"github.com/murphylee10/trading-engine/internal/usecase/matching"
	"github.com/murphylee10/trading-engine/pkg/errors"
	"github.com/murphylee10/trading-engine/pkg/logger"
)

// ErrEngineStopped is returned by Submit once the engine is shutting down.
var ErrEngineStopped = errors.NewTracer("engine stopped")

// Engine drives the matching core. Producers (network sessions, replay
// tools) call Submit from any goroutine; a single order-processor goroutine
// drains the queue and is the only caller of the matcher's write path. That
// hand-off is what upholds the single-writer discipline the matcher relies
// on for deterministic trade sequences.
type Engine struct {
	matcher   *matching.Engine
	journal   journalv1.Journal
	publisher publisherv1.TradePublisher
	logger    *logger.Logger

	orders chan *orderbookv1.Order

	// ctxMu guards ctx/cancel: Start swaps them while producers may be
	// inside Submit.
	ctxMu  sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	opts *Options
}

// NewEngine creates an engine around the matching core. journal and
// publisher may be nil, in which case those side channels are skipped.
func NewEngine(
	matcher *matching.Engine,
	journal journalv1.Journal,
	publisher publisherv1.TradePublisher,
	log *logger.Logger,
	opts *Options,
) *Engine {
	if opts == nil {
		opts = DefaultEngineOptions()
	}
	// a pre-Start Submit only queues; Start swaps in the real context
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		ctx:       ctx,
		cancel:    cancel,
		matcher:   matcher,
		journal:   journal,
		publisher: publisher,
		logger:    log,
		orders:    make(chan *orderbookv1.Order, opts.OrderQueueSize),
		opts:      opts,
	}
}

// Matcher exposes the matching core's read contract (SnapshotBook,
// RecentTrades, CollectTrades) to the query facade.
func (e *Engine) Matcher() *matching.Engine {
	return e.matcher
}

// Start launches the order processor and, when a publisher is attached,
// the metrics reporter.
func (e *Engine) Start(ctx context.Context) {
	e.ctxMu.Lock()
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.ctxMu.Unlock()

	e.wg.Add(1)
	go e.runOrderProcessor()

	if e.publisher != nil {
		e.wg.Add(1)
		go e.runMetricsReporter()
	}

	e.logger.Info("engine started", logger.Field{
		Key:   "orderQueueSize",
		Value: e.opts.OrderQueueSize,
	})
}

// Stop shuts the engine down, honoring the context deadline. Orders already
// queued when Stop is called are still processed before the processor exits.
func (e *Engine) Stop(ctx context.Context) error {
	e.ctxMu.RLock()
	cancel := e.cancel
	e.ctxMu.RUnlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("engine stop timeout exceeded")
		return ctx.Err()
	}
}

// Submit queues an order for the processor. It blocks while the queue is
// full and fails once the engine stops or ctx is cancelled.
func (e *Engine) Submit(ctx context.Context, order *orderbookv1.Order) error {
	engineCtx := e.context()

	select {
	case <-engineCtx.Done():
		return ErrEngineStopped
	default:
	}

	select {
	case e.orders <- order:
		return nil
	case <-engineCtx.Done():
		return ErrEngineStopped
	case <-ctx.Done():
		return errors.TracerFromError(ctx.Err())
	}
}

// context returns the current engine context under the lock, so Submit never
// races a concurrent Start.
func (e *Engine) context() context.Context {
	e.ctxMu.RLock()
	defer e.ctxMu.RUnlock()
	return e.ctx
}

// runOrderProcessor is the single consumer of the order queue and the only
// goroutine that writes to the matching core. On shutdown it drains whatever
// is already queued before exiting; Submit stops accepting once the context
// is cancelled, so the drain terminates.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	ctx := e.context()
	e.logger.Info("order processor started")

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case order := <-e.orders:
					e.processOrder(order)
				default:
					e.logger.Info("order processor shutting down")
					return
				}
			}
		case order := <-e.orders:
			e.processOrder(order)
		}
	}
}

func (e *Engine) processOrder(order *orderbookv1.Order) {
	if order.Type == orderbookv1.OrderTypeCancel {
		e.matcher.OnCancel(order.ID, order.Symbol)
		return
	}

	trades := e.matcher.OnNewOrder(order)

	if e.journal != nil {
		if err := e.journal.AppendOrder(order); err != nil {
			e.logger.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "journal_order",
			})
		}
		if len(trades) > 0 {
			if err := e.journal.AppendTrades(trades); err != nil {
				e.logger.Error(errors.TracerFromError(err), logger.Field{
					Key:   "action",
					Value: "journal_trades",
				})
			}
		}
	}

	if e.publisher != nil && len(trades) > 0 {
		if err := e.publisher.PublishTrades(e.context(), trades); err != nil {
			e.logger.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "publish_trades",
			})
		}
	}

	if len(trades) > 0 {
		e.logger.Debug("order matched",
			logger.Field{Key: "orderID", Value: order.ID},
			logger.Field{Key: "symbol", Value: order.Symbol},
			logger.Field{Key: "tradeCount", Value: len(trades)},
		)
	}
}

// runMetricsReporter periodically publishes engine throughput to the
// metrics topic.
func (e *Engine) runMetricsReporter() {
	defer e.wg.Done()

	ctx := e.context()
	ticker := time.NewTicker(e.opts.MetricsInterval)
	defer ticker.Stop()

	var lastTotal uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total := e.matcher.TotalTrades()
			metric := publisherv1.Metric{
				Metric:    "trades_total",
				Value:     float64(total),
				Timestamp: time.Now().UnixNano(),
			}
			if err := e.publisher.PublishMetric(ctx, metric); err != nil {
				e.logger.Error(errors.TracerFromError(err), logger.Field{
					Key:   "action",
					Value: "publish_metric",
				})
				continue
			}

			rate := publisherv1.Metric{
				Metric:    "trades_delta",
				Value:     float64(total - lastTotal),
				Timestamp: time.Now().UnixNano(),
			}
			lastTotal = total
			if err := e.publisher.PublishMetric(ctx, rate); err != nil {
				e.logger.Error(errors.TracerFromError(err), logger.Field{
					Key:   "action",
					Value: "publish_metric",
				})
			}
		}
	}
}

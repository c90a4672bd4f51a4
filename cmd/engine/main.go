package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/murphylee10/trading-engine/internal/api"
	app "github.com/murphylee10/trading-engine/internal/app/engine"
	journalv1 "github.com/murphylee10/trading-engine/internal/domain/journal/v1"
	marketdatav1 "github.com/murphylee10/trading-engine/internal/domain/marketdata/v1"
	publisherv1 "github.com/murphylee10/trading-engine/internal/domain/publisher/v1"
	orderintake "github.com/murphylee10/trading-engine/internal/usecase/order-intake"
	"github.com/murphylee10/trading-engine/internal/usecase/matching"
	quotefeed "github.com/murphylee10/trading-engine/internal/usecase/quote-feed"
	tradejournal "github.com/murphylee10/trading-engine/internal/usecase/trade-journal"
	tradepublisher "github.com/murphylee10/trading-engine/internal/usecase/trade-publisher"
	"github.com/murphylee10/trading-engine/pkg/config"
	"github.com/murphylee10/trading-engine/pkg/errors"
	"github.com/murphylee10/trading-engine/pkg/logger"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	config.MustLoad(cfg)

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	matcher := matching.NewEngine(
		matching.WithTradeHistoryLimit(cfg.TradeHistoryLimit),
	)

	var journal journalv1.Journal
	if cfg.JournalConfig.Enabled {
		j, err := tradejournal.New(cfg.JournalConfig.Dir, cfg.JournalConfig.FlushInterval)
		if err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "open_journal"})
			return
		}
		journal = j
	}

	var publisher publisherv1.TradePublisher
	if cfg.KafkaConfig.Enabled {
		publisher = tradepublisher.NewPublisher(cfg.KafkaConfig, log)
	}

	opts := app.DefaultEngineOptions()
	opts.OrderQueueSize = cfg.OrderQueueSize
	opts.MetricsInterval = cfg.KafkaConfig.MetricsInterval
	engine := app.NewEngine(matcher, journal, publisher, log, opts)
	engine.Start(ctx)

	listener := orderintake.NewListener(cfg.OrderListenAddr, engine, log)
	if err := listener.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "start_intake"})
		return
	}

	handler := api.NewHandler(matcher, log)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(handler),
	}
	go func() {
		log.Info("query API listening", logger.Field{
			Key:   "addr",
			Value: cfg.HTTPAddr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "serve_http",
			})
		}
	}()

	startQuoteFeed(ctx, publisher)

	log.Info("trading engine started", logger.Field{
		Key:   "orderListenAddr",
		Value: cfg.OrderListenAddr,
	})

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(errors.TracerFromError(err), logger.Field{
			Key:   "action",
			Value: "shutdown_http",
		})
	}

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(errors.TracerFromError(err), logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	if journal != nil {
		if err := journal.Close(); err != nil {
			log.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "close_journal",
			})
		}
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "close_publisher",
			})
		}
	}

	log.Info("trading engine shutdown complete")
}

// startQuoteFeed runs the configured market-data adapter and forwards each
// observed quote to the metrics topic when a publisher is attached.
func startQuoteFeed(ctx context.Context, publisher publisherv1.TradePublisher) {
	var feed marketdatav1.Feed
	switch cfg.FeedConfig.Mode {
	case "rest":
		feed = quotefeed.NewRestPoller(cfg.FeedConfig.RestURL, cfg.FeedConfig.Symbols, cfg.FeedConfig.PollInterval, log)
	case "stream":
		feed = quotefeed.NewStreamFeed(cfg.FeedConfig.StreamURL, cfg.FeedConfig.Symbols, log)
	default:
		return
	}

	quotes := make(chan marketdatav1.Quote, 256)

	go func() {
		if err := feed.Run(ctx, quotes); err != nil {
			log.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "run_quote_feed",
			})
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case quote := <-quotes:
				log.Debug("quote",
					logger.Field{Key: "symbol", Value: quote.Symbol},
					logger.Field{Key: "price", Value: quote.Price},
				)
				if publisher != nil {
					metric := publisherv1.Metric{
						Metric:    "quote",
						Value:     quote.Price,
						Symbol:    quote.Symbol,
						Timestamp: quote.Timestamp,
					}
					if err := publisher.PublishMetric(ctx, metric); err != nil {
						log.Error(errors.TracerFromError(err), logger.Field{
							Key:   "action",
							Value: "publish_quote",
						})
					}
				}
			}
		}
	}()
}

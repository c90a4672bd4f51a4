package tradepublisher

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	publisherv1 "github.com/murphylee10/trading-engine/internal/domain/publisher/v1"
	"github.com/murphylee10/trading-engine/pkg/config"
	"github.com/murphylee10/trading-engine/pkg/errors"
	"github.com/murphylee10/trading-engine/pkg/logger"
)

// Publisher writes trade events and engine metrics to Kafka.
type Publisher struct {
	tradeWriter   *kafka.Writer
	metricsWriter *kafka.Writer
	logger        *logger.Logger
}

// NewPublisher creates Kafka writers for the trade and metrics topics.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) *Publisher {
	return &Publisher{
		tradeWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.TradeTopic,
		}),
		metricsWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.MetricsTopic,
		}),
		logger: log,
	}
}

// PublishTrades publishes one message per trade, keyed by symbol so a
// consumer partitions per instrument.
func (p *Publisher) PublishTrades(ctx context.Context, trades []orderbookv1.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(trades))
	for _, trade := range trades {
		value, err := json.Marshal(trade)
		if err != nil {
			return errors.NewTracer("marshal trade event").Wrap(err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(trade.Symbol),
			Value: value,
		})
	}

	if err := p.tradeWriter.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error(errors.TracerFromError(err),
			logger.Field{Key: "action", Value: "publish_trades"},
			logger.Field{Key: "tradeCount", Value: len(trades)},
		)
		return errors.NewTracer("failed to publish trade events").Wrap(err)
	}
	return nil
}

// PublishMetric publishes one metric sample to the metrics topic.
func (p *Publisher) PublishMetric(ctx context.Context, metric publisherv1.Metric) error {
	value, err := json.Marshal(metric)
	if err != nil {
		return errors.NewTracer("marshal metric").Wrap(err)
	}

	if err := p.metricsWriter.WriteMessages(ctx, kafka.Message{Value: value}); err != nil {
		p.logger.Error(errors.TracerFromError(err),
			logger.Field{Key: "action", Value: "publish_metric"},
			logger.Field{Key: "metric", Value: metric.Metric},
		)
		return errors.NewTracer("failed to publish metric").Wrap(err)
	}
	return nil
}

// Close closes both writers.
func (p *Publisher) Close() error {
	tradeErr := p.tradeWriter.Close()
	metricsErr := p.metricsWriter.Close()
	if tradeErr != nil {
		return tradeErr
	}
	return metricsErr
}

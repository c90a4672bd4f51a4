package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
// It panics when parsing fails.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // a missing .env file is fine, env vars still apply

	return env.Parse(cfg)
}

// Config holds the configuration for the trading engine process.
type Config struct {
	// OrderListenAddr is the TCP address the line-oriented order intake listens on.
	OrderListenAddr string `env:"ORDER_LISTEN_ADDR" envDefault:":9000"`
	// HTTPAddr is the address of the query API.
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// OrderQueueSize is the capacity of the hand-off queue between intake and the matching loop.
	OrderQueueSize int `env:"ORDER_QUEUE_SIZE" envDefault:"4096"`
	// TradeHistoryLimit bounds the in-memory trade buffer. 0 means unbounded.
	TradeHistoryLimit int `env:"TRADE_HISTORY_LIMIT" envDefault:"100000"`

	KafkaConfig   `envPrefix:"KAFKA_"`
	JournalConfig `envPrefix:"JOURNAL_"`
	FeedConfig    `envPrefix:"FEED_"`
}

// KafkaConfig holds the configuration for the Kafka event publisher.
type KafkaConfig struct {
	Enabled      bool     `env:"ENABLED" envDefault:"false"`
	Brokers      []string `env:"BROKER" envDefault:"localhost:9092"`
	TradeTopic   string   `env:"TRADE_TOPIC" envDefault:"trades"`
	MetricsTopic string   `env:"METRICS_TOPIC" envDefault:"metrics"`
	// MetricsInterval is how often engine throughput metrics are published.
	MetricsInterval time.Duration `env:"METRICS_INTERVAL" envDefault:"10s"`
}

// JournalConfig holds the configuration for the order/trade file journals.
type JournalConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Dir     string `env:"DIR" envDefault:"data"`
	// FlushInterval is how often buffered journal writes are flushed to disk.
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"1s"`
}

// FeedConfig holds the configuration for the external market-data feed.
type FeedConfig struct {
	// Mode selects the feed adapter: "off", "rest" or "stream".
	Mode    string   `env:"MODE" envDefault:"off"`
	Symbols []string `env:"SYMBOLS" envDefault:"BTCUSDT,ETHUSDT"`
	// RestURL is the base URL polled for ticker prices in rest mode.
	RestURL      string        `env:"REST_URL" envDefault:"https://api.binance.com"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	// StreamURL is the websocket endpoint for the trade stream in stream mode.
	StreamURL string `env:"STREAM_URL" envDefault:"wss://stream.binance.com:9443"`
}

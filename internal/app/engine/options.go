package engine

import "time"

// Options represents configuration options for the Engine.
type Options struct {
	// OrderQueueSize is the capacity of the hand-off queue between
	// producers and the single order-processor goroutine.
	OrderQueueSize int
	// MetricsInterval is how often throughput metrics are published when a
	// publisher is attached.
	MetricsInterval time.Duration
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		OrderQueueSize:  4096,
		MetricsInterval: 10 * time.Second,
	}
}

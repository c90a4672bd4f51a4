package tradejournal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	"github.com/murphylee10/trading-engine/pkg/errors"
)

const (
	ordersFile = "orders.jsonl"
	tradesFile = "trades.jsonl"
)

// Journal appends accepted orders and executed trades to JSONL files, one
// record per line. Writes go through buffered writers flushed on a timer
// and on Close; the journal is an audit log, not a consistency mechanism.
type Journal struct {
	mu sync.Mutex

	ordersF *os.File
	tradesF *os.File
	orders  *bufio.Writer
	trades  *bufio.Writer

	stop chan struct{}
	done chan struct{}
}

// New opens (creating if needed) the journal files under dir and starts the
// background flusher.
func New(dir string, flushInterval time.Duration) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewTracer("create journal dir").Wrap(err)
	}

	ordersF, err := os.OpenFile(filepath.Join(dir, ordersFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.NewTracer("open orders journal").Wrap(err)
	}
	tradesF, err := os.OpenFile(filepath.Join(dir, tradesFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		ordersF.Close()
		return nil, errors.NewTracer("open trades journal").Wrap(err)
	}

	j := &Journal{
		ordersF: ordersF,
		tradesF: tradesF,
		orders:  bufio.NewWriter(ordersF),
		trades:  bufio.NewWriter(tradesF),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	go j.autoFlush(flushInterval)

	return j, nil
}

// AppendOrder writes one order record.
func (j *Journal) AppendOrder(order *orderbookv1.Order) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return writeRecord(j.orders, order)
}

// AppendTrades writes one record per trade.
func (j *Journal) AppendTrades(trades []orderbookv1.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i := range trades {
		if err := writeRecord(j.trades, &trades[i]); err != nil {
			return err
		}
	}
	return nil
}

// Flush forces buffered records to disk.
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flushLocked()
}

// Close flushes and closes both journal files.
func (j *Journal) Close() error {
	close(j.stop)
	<-j.done

	j.mu.Lock()
	defer j.mu.Unlock()

	flushErr := j.flushLocked()
	if err := j.ordersF.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	if err := j.tradesF.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}

func (j *Journal) flushLocked() error {
	if err := j.orders.Flush(); err != nil {
		return errors.NewTracer("flush orders journal").Wrap(err)
	}
	if err := j.trades.Flush(); err != nil {
		return errors.NewTracer("flush trades journal").Wrap(err)
	}
	return nil
}

func (j *Journal) autoFlush(interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			_ = j.Flush()
		}
	}
}

func writeRecord(w *bufio.Writer, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.NewTracer("marshal journal record").Wrap(err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.NewTracer("write journal record").Wrap(err)
	}
	return w.WriteByte('\n')
}

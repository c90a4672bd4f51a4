package orderintake

import (
	"bufio"
	"context"
	"net"
	"sync"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	"github.com/murphylee10/trading-engine/pkg/errors"
	"github.com/murphylee10/trading-engine/pkg/logger"
)

// Submitter hands decoded orders to the single-writer queue.
type Submitter interface {
	Submit(ctx context.Context, order *orderbookv1.Order) error
}

// Listener accepts line-oriented order connections. Each connection gets
// its own goroutine; all of them funnel into the Submitter, so many
// producers never touch the matching core directly.
type Listener struct {
	addr      string
	submitter Submitter
	logger    *logger.Logger

	ln net.Listener
	wg sync.WaitGroup
}

// NewListener creates a listener for the given TCP address.
func NewListener(addr string, submitter Submitter, log *logger.Logger) *Listener {
	return &Listener{
		addr:      addr,
		submitter: submitter,
		logger:    log,
	}
}

// Start binds the address and serves connections until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return errors.NewTracer("order intake listen failed").Wrap(err)
	}
	l.ln = ln

	l.logger.Info("order intake listening", logger.Field{
		Key:   "addr",
		Value: ln.Addr().String(),
	})

	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	l.wg.Add(1)
	go l.acceptLoop(ctx)
	return nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Wait blocks until all connection goroutines have finished.
func (l *Listener) Wait() {
	l.wg.Wait()
}

func (l *Listener) acceptLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			l.logger.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "accept",
			})
			continue
		}

		l.logger.Info("client connected", logger.Field{
			Key:   "remote",
			Value: conn.RemoteAddr().String(),
		})

		l.wg.Add(1)
		go l.handleConn(ctx, conn)
	}
}

func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	defer l.wg.Done()
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		order, err := ParseOrder(line)
		if err != nil {
			l.logger.Warn("dropping malformed order line",
				logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
				logger.Field{Key: "error", Value: err.Error()},
			)
			continue
		}

		if err := l.submitter.Submit(ctx, order); err != nil {
			l.logger.Error(errors.TracerFromError(err), logger.Field{
				Key:   "action",
				Value: "submit_order",
			})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-ctx.Done():
		default:
			l.logger.Warn("connection read error",
				logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
				logger.Field{Key: "error", Value: err.Error()},
			)
		}
	}

	l.logger.Info("client disconnected", logger.Field{
		Key:   "remote",
		Value: conn.RemoteAddr().String(),
	})
}

package quotefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	marketdatav1 "github.com/murphylee10/trading-engine/internal/domain/marketdata/v1"
)

func TestStreamFeed_Run(t *testing.T) {
	upgrader := websocket.Upgrader{}

	t.Run("should push one quote per trade event", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ws/btcusdt@trade/ethusdt@trade", r.URL.Path)

			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()

			conn.WriteMessage(websocket.TextMessage, []byte(`{"s":"BTCUSDT","p":"65000.10","T":1700000000000}`))
			conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
			conn.WriteMessage(websocket.TextMessage, []byte(`{"s":"ETHUSDT","p":"3200.55","T":1700000000001}`))

			// hold the connection open until the client goes away
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
		defer server.Close()

		baseURL := strings.Replace(server.URL, "http", "ws", 1)
		feed := NewStreamFeed(baseURL, []string{"BTCUSDT", "ETHUSDT"}, newTestLogger(t))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := make(chan marketdatav1.Quote, 4)
		go feed.Run(ctx, out)

		var quotes []marketdatav1.Quote
		deadline := time.After(2 * time.Second)
		for len(quotes) < 2 {
			select {
			case q := <-out:
				quotes = append(quotes, q)
			case <-deadline:
				t.Fatalf("expected 2 quotes, got %d", len(quotes))
			}
		}

		assert.Equal(t, "BTCUSDT", quotes[0].Symbol)
		assert.Equal(t, 65000.10, quotes[0].Price)
		assert.Equal(t, int64(1700000000000)*int64(time.Millisecond), quotes[0].Timestamp)
		assert.Equal(t, "ETHUSDT", quotes[1].Symbol)
	})

	t.Run("should not park a watcher per reconnect", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			// drop the connection immediately, forcing the client to redial
			conn.Close()
		}))
		defer server.Close()

		baseURL := strings.Replace(server.URL, "http", "ws", 1)
		feed := NewStreamFeed(baseURL, []string{"BTCUSDT"}, newTestLogger(t))

		out := make(chan marketdatav1.Quote, 1)
		before := runtime.NumGoroutine()

		for i := 0; i < 20; i++ {
			assert.Error(t, feed.consume(context.Background(), out))
		}

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if runtime.NumGoroutine() <= before+3 {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("goroutines did not settle after reconnects: before=%d now=%d",
			before, runtime.NumGoroutine())
	})

	t.Run("should return cleanly on cancel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
		defer server.Close()

		baseURL := strings.Replace(server.URL, "http", "ws", 1)
		feed := NewStreamFeed(baseURL, []string{"BTCUSDT"}, newTestLogger(t))

		ctx, cancel := context.WithCancel(context.Background())
		out := make(chan marketdatav1.Quote)

		done := make(chan error, 1)
		go func() { done <- feed.Run(ctx, out) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}

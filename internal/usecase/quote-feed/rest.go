package quotefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	marketdatav1 "github.com/murphylee10/trading-engine/internal/domain/marketdata/v1"
	"github.com/murphylee10/trading-engine/pkg/errors"
	"github.com/murphylee10/trading-engine/pkg/logger"
)

// RestPoller polls an exchange's REST ticker endpoint for each configured
// symbol and pushes the observed prices into the quote channel. Transport
// failures are logged and retried on the next tick; they never propagate.
type RestPoller struct {
	baseURL  string
	symbols  []string
	interval time.Duration
	client   *http.Client
	logger   *logger.Logger
}

// tickerResponse mirrors the exchange's /api/v3/ticker/price payload, which
// carries the price as a decimal string.
type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// NewRestPoller creates a poller for the given base URL and symbols.
func NewRestPoller(baseURL string, symbols []string, interval time.Duration, log *logger.Logger) *RestPoller {
	return &RestPoller{
		baseURL:  baseURL,
		symbols:  symbols,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   log,
	}
}

// Run polls until ctx is cancelled.
func (p *RestPoller) Run(ctx context.Context, out chan<- marketdatav1.Quote) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, symbol := range p.symbols {
				quote, err := p.fetch(ctx, symbol)
				if err != nil {
					p.logger.Warn("ticker poll failed",
						logger.Field{Key: "symbol", Value: symbol},
						logger.Field{Key: "error", Value: err.Error()},
					)
					continue
				}
				select {
				case out <- quote:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (p *RestPoller) fetch(ctx context.Context, symbol string) (marketdatav1.Quote, error) {
	endpoint := p.baseURL + "/api/v3/ticker/price?symbol=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return marketdatav1.Quote{}, errors.NewTracer("build ticker request").Wrap(err)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return marketdatav1.Quote{}, errors.NewTracer("ticker request failed").Wrap(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return marketdatav1.Quote{}, errors.NewTracer("ticker request status " + res.Status)
	}

	var body tickerResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return marketdatav1.Quote{}, errors.NewTracer("decode ticker response").Wrap(err)
	}

	price, err := strconv.ParseFloat(body.Price, 64)
	if err != nil {
		return marketdatav1.Quote{}, errors.NewTracer("parse ticker price").Wrap(err)
	}

	return marketdatav1.Quote{
		Symbol:    body.Symbol,
		Price:     price,
		Timestamp: time.Now().UnixNano(),
	}, nil
}

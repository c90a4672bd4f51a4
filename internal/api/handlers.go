package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	"github.com/murphylee10/trading-engine/pkg/logger"
	"github.com/murphylee10/trading-engine/pkg/util"
)

const (
	defaultDepth = 10
	defaultLimit = 10
)

// QueryEngine is the read contract the facade needs from the matching core.
type QueryEngine interface {
	SnapshotBook(symbol string, depth int) []orderbookv1.DepthEntry
	RecentTrades(symbol string, limit int) []orderbookv1.Trade
}

// Handler serves the point-in-time query endpoints.
type Handler struct {
	engine QueryEngine
	logger *logger.Logger
}

// NewHandler creates a handler around the engine's read contract.
func NewHandler(engine QueryEngine, log *logger.Logger) *Handler {
	return &Handler{engine: engine, logger: log}
}

// NewRouter builds the query router: order-book depth, recent trades and a
// health probe, all JSON, CORS open for the web UI.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(requestID)

	r.Get("/book/{symbol}", h.GetBook)
	r.Get("/trades/{symbol}", h.GetTrades)
	r.Get("/health", h.Health)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown endpoint"}`))
	})

	return r
}

// requestID stamps each request's context with an id for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := util.WithRequestID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetBook handles GET /book/{symbol}?depth=N. Only the bid side is served.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	depth := queryInt(r, "depth", defaultDepth)

	bids := h.engine.SnapshotBook(symbol, depth)
	if bids == nil {
		bids = []orderbookv1.DepthEntry{}
	}

	h.writeJSON(r, w, map[string]any{"bids": bids})
}

// GetTrades handles GET /trades/{symbol}?limit=N.
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	limit := queryInt(r, "limit", defaultLimit)

	trades := h.engine.RecentTrades(symbol, limit)
	if trades == nil {
		trades = []orderbookv1.Trade{}
	}

	h.writeJSON(r, w, trades)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (h *Handler) writeJSON(r *http.Request, w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.ErrorContext(r.Context(), err, logger.Field{
			Key:   "action",
			Value: "encode_response",
		})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

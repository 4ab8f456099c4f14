// Package handlers exposes the portfolio, market data and assistant over
// a gin JSON API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/apperr"
	"github.com/atharvakonge/investment-navigator/internal/assistant"
	"github.com/atharvakonge/investment-navigator/internal/engine"
	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/atharvakonge/investment-navigator/internal/monitoring"
	"github.com/atharvakonge/investment-navigator/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MarketData is the quote and reference data provider
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) map[string]models.Quote
	SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error)
	MarketNews(ctx context.Context, category string) ([]models.NewsItem, error)
	CompanyProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
}

// Pinger reports whether persistence is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires a Handler
type Deps struct {
	Store     *store.Store
	Orders    *engine.Processor
	Market    MarketData
	Assistant *assistant.Assistant
	DB        Pinger
	Log       *zap.Logger
	Metrics   *monitoring.Metrics

	ChatRatePerMinute   int
	PriceStreamInterval time.Duration
	// AllowedOrigins restricts browser origins for CORS and the price
	// stream. Empty or "*" allows any origin.
	AllowedOrigins      []string
}

// Handler serves the HTTP API
type Handler struct {
	store     *store.Store
	orders    *engine.Processor
	market    MarketData
	assistant *assistant.Assistant
	db        Pinger
	log       *zap.Logger
	metrics   *monitoring.Metrics

	chatLimiter    *rate.Limiter
	streamInterval time.Duration
	origins        []string
	upgrader       websocket.Upgrader
}

var (
	errInvalidRequest = apperr.NewValidationError("INVALID_REQUEST", "Invalid request")
	errEmptySymbol    = apperr.NewValidationError("INVALID_SYMBOL", "Symbol is required")
	errChatRateLimit  = apperr.NewRateLimitError("Too many chat requests, please wait a moment")
)

// New creates a Handler
func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Assistant == nil {
		d.Assistant = assistant.New(nil, log, d.Metrics)
	}

	limit := rate.Inf
	burst := 1
	if d.ChatRatePerMinute > 0 {
		limit = rate.Limit(float64(d.ChatRatePerMinute) / 60)
		burst = d.ChatRatePerMinute
	}

	interval := d.PriceStreamInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &Handler{
		store:          d.Store,
		orders:         d.Orders,
		market:         d.Market,
		assistant:      d.Assistant,
		db:             d.DB,
		log:            log,
		metrics:        d.Metrics,
		chatLimiter:    rate.NewLimiter(limit, burst),
		streamInterval: interval,
		origins:        origins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// respondError renders err as {error, code, details} with its mapped status
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrEmptySymbol):
		err = errEmptySymbol
	case errors.Is(err, store.ErrUnreadable):
		err = apperr.NewInternalError("Stored portfolio cannot be read", err)
	}

	ae := apperr.From(err)
	status := ae.StatusCode()
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", ae.Code),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, apperr.NewResponse(ae))
}

// bindJSON decodes the body into v, answering 400 on failure
func (h *Handler) bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.respondError(c, errInvalidRequest.Wrap(err))
		return false
	}
	return true
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

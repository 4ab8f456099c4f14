package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetPortfolio handles GET /api/portfolio
func (h *Handler) GetPortfolio(c *gin.Context) {
	state := h.store.Load(c.Request.Context())
	c.JSON(http.StatusOK, models.Summarize(state))
}

// PlaceOrder handles POST /api/orders
func (h *Handler) PlaceOrder(c *gin.Context) {
	var intent models.OrderIntent
	if !h.bindJSON(c, &intent) {
		return
	}

	result := h.orders.Submit(c.Request.Context(), intent)
	if result.Err != nil {
		h.respondError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{
		Message: "Order executed",
		Order:   result.Execution.Order,
		State:   result.Execution.State,
	})
}

// ListOrders handles GET /api/orders?limit=N, most recent first
func (h *Handler) ListOrders(c *gin.Context) {
	orders := h.store.Load(c.Request.Context()).Orders

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.respondError(c, errInvalidRequest.WithDetails(map[string]interface{}{"limit": raw}))
			return
		}
		if limit < len(orders) {
			orders = orders[:limit]
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

type watchlistRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// AddToWatchlist handles POST /api/watchlist
func (h *Handler) AddToWatchlist(c *gin.Context) {
	var req watchlistRequest
	if !h.bindJSON(c, &req) {
		return
	}
	state, err := h.store.AddSymbol(c.Request.Context(), req.Symbol)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": state.Watchlist})
}

// RemoveFromWatchlist handles DELETE /api/watchlist/:symbol
func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	state, err := h.store.RemoveSymbol(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": state.Watchlist})
}

type netWorthRequest struct {
	Timestamp  *time.Time       `json:"timestamp"`
	TotalValue *decimal.Decimal `json:"totalValue"`
}

// AppendNetWorth handles POST /api/networth. Both fields are optional and
// default to now and the current net worth.
func (h *Handler) AppendNetWorth(c *gin.Context) {
	var req netWorthRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	if req.TotalValue != nil && req.TotalValue.IsNegative() {
		h.respondError(c, errInvalidRequest.WithDetails(map[string]interface{}{"reason": "totalValue must not be negative"}))
		return
	}

	var at time.Time
	if req.Timestamp != nil {
		at = req.Timestamp.UTC()
	}
	state, err := h.store.AppendNetWorth(c.Request.Context(), at, req.TotalValue)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"netWorthHistory": state.NetWorthHistory})
}

// RefreshResponse reports which holdings got a fresh price
type RefreshResponse struct {
	Summary     models.PortfolioSummary `json:"summary"`
	Updated     []string                `json:"updated"`
	Unavailable []string                `json:"unavailable"`
}

// RefreshPortfolio handles POST /api/portfolio/refresh. Holdings without a
// usable quote keep their last price.
func (h *Handler) RefreshPortfolio(c *gin.Context) {
	ctx := c.Request.Context()
	current := h.store.Load(ctx)

	symbols := make([]string, 0, len(current.Holdings))
	for _, hd := range current.Holdings {
		symbols = append(symbols, hd.Symbol)
	}
	quotes := h.market.GetQuotes(ctx, symbols)

	resp := RefreshResponse{Updated: []string{}, Unavailable: []string{}}
	prices := make(map[string]decimal.Decimal, len(quotes))
	for _, s := range symbols {
		if q, ok := quotes[s]; ok {
			prices[s] = q.CurrentPrice
			resp.Updated = append(resp.Updated, s)
		} else {
			resp.Unavailable = append(resp.Unavailable, s)
		}
	}

	state, err := h.store.RefreshPrices(ctx, prices)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(resp.Unavailable) > 0 {
		h.log.Info("Some holdings kept stale prices", zap.Strings("symbols", resp.Unavailable))
	}

	resp.Summary = models.Summarize(state)
	c.JSON(http.StatusOK, resp)
}

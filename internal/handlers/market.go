package handlers

import (
	"net/http"
	"strings"

	"github.com/atharvakonge/investment-navigator/internal/market"
	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/gin-gonic/gin"
)

// maxBatchSymbols caps GET /api/quotes
const maxBatchSymbols = 50

// GetQuote handles GET /api/quotes/:symbol
func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.market.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetQuotes handles GET /api/quotes?symbols=A,B
func (h *Handler) GetQuotes(c *gin.Context) {
	var symbols []string
	for _, s := range strings.Split(c.Query("symbols"), ",") {
		if s = models.NormalizeSymbol(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		h.respondError(c, errInvalidRequest.WithDetails(map[string]interface{}{"reason": "symbols is required"}))
		return
	}
	if len(symbols) > maxBatchSymbols {
		h.respondError(c, errInvalidRequest.WithDetails(map[string]interface{}{"reason": "too many symbols", "max": maxBatchSymbols}))
		return
	}

	quotes := h.market.GetQuotes(c.Request.Context(), symbols)
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// SearchSymbols handles GET /api/search?q=
func (h *Handler) SearchSymbols(c *gin.Context) {
	matches, err := h.market.SearchSymbols(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": matches, "count": len(matches)})
}

// MarketNews handles GET /api/news?category=
func (h *Handler) MarketNews(c *gin.Context) {
	news, err := h.market.MarketNews(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": news})
}

// CompanyProfile handles GET /api/profile/:symbol
func (h *Handler) CompanyProfile(c *gin.Context) {
	profile, err := h.market.CompanyProfile(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found", "code": "PROFILE_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Screener handles GET /api/screener
func (h *Handler) Screener(c *gin.Context) {
	c.JSON(http.StatusOK, market.PopularLists())
}

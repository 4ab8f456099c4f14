package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	Gatherer prometheus.Gatherer
}

// NewRouter registers every route on a gin engine and wraps it with CORS
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	router := gin.New()
	router.Use(h.Recovery(), RequestLogger(h.log, h.metrics))

	api := router.Group("/api")
	{
		// Portfolio endpoints
		api.GET("/portfolio", h.GetPortfolio)
		api.POST("/portfolio/refresh", h.RefreshPortfolio)
		api.POST("/orders", h.PlaceOrder)
		api.GET("/orders", h.ListOrders)
		api.POST("/watchlist", h.AddToWatchlist)
		api.DELETE("/watchlist/:symbol", h.RemoveFromWatchlist)
		api.POST("/networth", h.AppendNetWorth)

		// Market data endpoints
		api.GET("/quotes", h.GetQuotes)
		api.GET("/quotes/:symbol", h.GetQuote)
		api.GET("/search", h.SearchSymbols)
		api.GET("/news", h.MarketNews)
		api.GET("/profile/:symbol", h.CompanyProfile)
		api.GET("/screener", h.Screener)

		// Assistant endpoints
		api.POST("/chat", h.Chat)
		api.GET("/chat/prompts", h.ChatPrompts)
	}

	// WebSocket endpoint
	router.GET("/ws/prices", h.PriceStream)

	router.GET("/health", h.Health)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return cors.New(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceUpdate represents a watchlist price update
type PriceUpdate struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Timestamp     time.Time       `json:"timestamp"`
}

const writeWait = 10 * time.Second

// checkOrigin admits upgrades from the configured origins. Requests without
// an Origin header come from non-browser clients and are allowed.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// PriceStream handles GET /ws/prices. Every interval it sends one update per
// watchlist symbol that has a usable quote.
func (h *Handler) PriceStream(c *gin.Context) {
	// Upgrade HTTP connection to WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	h.log.Debug("Client connected to price stream")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client never sends anything we use; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	for {
		if err := h.pushPrices(ctx, conn); err != nil {
			h.log.Debug("Price stream closed", zap.Error(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) pushPrices(ctx context.Context, conn *websocket.Conn) error {
	watchlist := h.store.Load(ctx).Watchlist
	quotes := h.market.GetQuotes(ctx, watchlist)

	for _, symbol := range watchlist {
		q, ok := quotes[symbol]
		if !ok {
			continue
		}
		update := PriceUpdate{
			Symbol:        symbol,
			Price:         q.CurrentPrice,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
			Timestamp:     q.Timestamp,
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(update); err != nil {
			return err
		}
	}
	return ctx.Err()
}

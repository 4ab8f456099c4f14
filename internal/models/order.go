package models

import "github.com/shopspring/decimal"

// OrderIntent - what the client sends to place an order. The price is the
// quote the client last saw; the engine never fetches prices itself.
type OrderIntent struct {
	Symbol     string          `json:"symbol" binding:"required"`
	Side       Side            `json:"side" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	AssetClass AssetClass      `json:"assetClass"`
}

// OrderResponse - what we send back after a successful execution
type OrderResponse struct {
	Message string         `json:"message"`
	Order   Order          `json:"order"`
	State   PortfolioState `json:"state"`
}

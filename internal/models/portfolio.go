package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is BUY or SELL
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// AssetClass is a descriptive category of a security
type AssetClass string

const (
	AssetStock      AssetClass = "Stock"
	AssetCrypto     AssetClass = "Crypto"
	AssetETF        AssetClass = "ETF"
	AssetBond       AssetClass = "Bond"
	AssetMutualFund AssetClass = "Mutual Fund"
)

// OrderStatus of a recorded order. Only FILLED is ever produced, the others
// exist so records written by older clients still decode.
type OrderStatus string

const (
	StatusFilled    OrderStatus = "FILLED"
	StatusPending   OrderStatus = "PENDING"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Holding represents one open position
type Holding struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgPrice     decimal.Decimal `json:"avgPrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	Name         string          `json:"name"`
	AssetClass   AssetClass      `json:"assetClass"`
}

// Order represents an executed buy/sell
type Order struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	AssetClass AssetClass      `json:"assetClass"`
	Status     OrderStatus     `json:"status"`
	Date       time.Time       `json:"date"`
}

// NetWorthPoint is one sample of the net worth time series
type NetWorthPoint struct {
	Timestamp  time.Time       `json:"timestamp"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

// PortfolioState is the whole persisted aggregate
type PortfolioState struct {
	Cash            decimal.Decimal `json:"cash"`
	Holdings        []Holding       `json:"holdings"`
	Orders          []Order         `json:"orders"` // most recent first
	Watchlist       []string        `json:"watchlist"`
	NetWorthHistory []NetWorthPoint `json:"netWorthHistory"`
}

// NewPortfolioState returns an empty state holding cash and the given watchlist
func NewPortfolioState(cash decimal.Decimal, watchlist []string) PortfolioState {
	wl := make([]string, 0, len(watchlist))
	for _, s := range watchlist {
		if s = NormalizeSymbol(s); s != "" && !contains(wl, s) {
			wl = append(wl, s)
		}
	}
	return PortfolioState{
		Cash:            cash,
		Holdings:        []Holding{},
		Orders:          []Order{},
		Watchlist:       wl,
		NetWorthHistory: []NetWorthPoint{},
	}
}

// Clone returns a deep copy so callers can mutate it freely
func (s PortfolioState) Clone() PortfolioState {
	c := s
	c.Holdings = append([]Holding{}, s.Holdings...)
	c.Orders = append([]Order{}, s.Orders...)
	c.Watchlist = append([]string{}, s.Watchlist...)
	c.NetWorthHistory = append([]NetWorthPoint{}, s.NetWorthHistory...)
	return c
}

// HoldingIndex returns the index of symbol in Holdings or -1
func (s PortfolioState) HoldingIndex(symbol string) int {
	for i, h := range s.Holdings {
		if h.Symbol == symbol {
			return i
		}
	}
	return -1
}

// HoldingsValue is the market value of all holdings at current prices
func (s PortfolioState) HoldingsValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Holdings {
		total = total.Add(h.MarketValue())
	}
	return total
}

// CostBasis is the sum of quantity * avgPrice over all holdings
func (s PortfolioState) CostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Holdings {
		total = total.Add(h.CostBasis())
	}
	return total
}

// NetWorth is cash plus market value of holdings
func (s PortfolioState) NetWorth() decimal.Decimal {
	return s.Cash.Add(s.HoldingsValue())
}

// InWatchlist reports whether symbol is watched
func (s PortfolioState) InWatchlist(symbol string) bool {
	return contains(s.Watchlist, symbol)
}

// MarketValue is quantity * currentPrice
func (h Holding) MarketValue() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}

// CostBasis is quantity * avgPrice
func (h Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AvgPrice)
}

// NormalizeSymbol trims and upper-cases a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

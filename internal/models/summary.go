package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// HoldingView is a holding plus its derived valuation
type HoldingView struct {
	Holding
	MarketValue     decimal.Decimal `json:"marketValue"`
	UnrealizedPL    decimal.Decimal `json:"unrealizedPL"`
	UnrealizedPLPct decimal.Decimal `json:"unrealizedPLPercent"`
	PortfolioWeight decimal.Decimal `json:"portfolioWeight"`
}

// Allocation is the share of holdings value per asset class
type Allocation struct {
	AssetClass AssetClass      `json:"assetClass"`
	Value      decimal.Decimal `json:"value"`
	Percent    decimal.Decimal `json:"percent"`
}

// PortfolioSummary - what we send back for GET /api/portfolio
type PortfolioSummary struct {
	State         PortfolioState  `json:"state"`
	Holdings      []HoldingView   `json:"holdings"`
	HoldingsValue decimal.Decimal `json:"holdingsValue"`
	NetWorth      decimal.Decimal `json:"netWorth"`
	UnrealizedPL  decimal.Decimal `json:"unrealizedPL"`
	Allocation    []Allocation    `json:"allocation"`
	CashDisplay   string          `json:"cashDisplay"`
	NetDisplay    string          `json:"netWorthDisplay"`
}

var hundred = decimal.NewFromInt(100)

// Summarize derives valuations from s. Percentages are rounded to two places.
func Summarize(s PortfolioState) PortfolioSummary {
	holdingsValue := s.HoldingsValue()
	sum := PortfolioSummary{
		State:         s,
		Holdings:      make([]HoldingView, 0, len(s.Holdings)),
		HoldingsValue: holdingsValue,
		NetWorth:      s.Cash.Add(holdingsValue),
		UnrealizedPL:  holdingsValue.Sub(s.CostBasis()),
		Allocation:    []Allocation{},
	}

	byClass := map[AssetClass]decimal.Decimal{}
	for _, h := range s.Holdings {
		mv := h.MarketValue()
		cost := h.CostBasis()
		v := HoldingView{
			Holding:      h,
			MarketValue:  mv,
			UnrealizedPL: mv.Sub(cost),
		}
		if !cost.IsZero() {
			v.UnrealizedPLPct = mv.Sub(cost).Div(cost).Mul(hundred).Round(2)
		}
		if !holdingsValue.IsZero() {
			v.PortfolioWeight = mv.Div(holdingsValue).Mul(hundred).Round(2)
		}
		sum.Holdings = append(sum.Holdings, v)
		byClass[h.AssetClass] = byClass[h.AssetClass].Add(mv)
	}

	for class, value := range byClass {
		a := Allocation{AssetClass: class, Value: value}
		if !holdingsValue.IsZero() {
			a.Percent = value.Div(holdingsValue).Mul(hundred).Round(2)
		}
		sum.Allocation = append(sum.Allocation, a)
	}
	sort.Slice(sum.Allocation, func(i, j int) bool {
		return sum.Allocation[i].Value.GreaterThan(sum.Allocation[j].Value)
	})

	sum.CashDisplay = FormatUSD(s.Cash)
	sum.NetDisplay = FormatUSD(sum.NetWorth)
	return sum
}

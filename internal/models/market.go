package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a snapshot of a symbol's price
type Quote struct {
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Open          decimal.Decimal `json:"open"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
}

// IsZero reports whether every price field is zero, which is how Finnhub
// answers for an unknown symbol.
func (q Quote) IsZero() bool {
	for _, d := range []decimal.Decimal{q.CurrentPrice, q.Change, q.ChangePercent, q.High, q.Low, q.Open, q.PreviousClose} {
		if !d.IsZero() {
			return false
		}
	}
	return true
}

// SymbolMatch is one symbol search result
type SymbolMatch struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
}

// NewsItem is one market news headline
type NewsItem struct {
	ID       int64     `json:"id"`
	Headline string    `json:"headline"`
	Summary  string    `json:"summary"`
	Source   string    `json:"source"`
	URL      string    `json:"url"`
	Image    string    `json:"image"`
	Category string    `json:"category"`
	Datetime time.Time `json:"datetime"`
}

// CompanyProfile describes the issuer of a symbol
type CompanyProfile struct {
	Ticker            string          `json:"ticker"`
	Name              string          `json:"name"`
	Country           string          `json:"country"`
	Currency          string          `json:"currency"`
	Exchange          string          `json:"exchange"`
	Industry          string          `json:"industry"`
	IPO               string          `json:"ipo"`
	Logo              string          `json:"logo"`
	WebURL            string          `json:"webUrl"`
	MarketCap         decimal.Decimal `json:"marketCapitalization"`
	SharesOutstanding decimal.Decimal `json:"shareOutstanding"`
}

package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewPortfolioState_NormalizesWatchlist(t *testing.T) {
	s := NewPortfolioState(d("100"), []string{"aapl", " AAPL ", "", "tsla"})

	if len(s.Watchlist) != 2 || s.Watchlist[0] != "AAPL" || s.Watchlist[1] != "TSLA" {
		t.Errorf("Expected [AAPL TSLA], got %v", s.Watchlist)
	}
	if s.Holdings == nil || s.Orders == nil || s.NetWorthHistory == nil {
		t.Error("Expected empty, non-nil collections")
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := NewPortfolioState(d("100"), []string{"AAPL"})
	s.Holdings = append(s.Holdings, Holding{Symbol: "AAPL", Quantity: d("1")})

	c := s.Clone()
	c.Holdings[0].Quantity = d("5")
	c.Watchlist[0] = "MSFT"

	if !s.Holdings[0].Quantity.Equal(d("1")) {
		t.Errorf("Clone shares holdings with original")
	}
	if s.Watchlist[0] != "AAPL" {
		t.Errorf("Clone shares watchlist with original")
	}
}

func TestSummarize(t *testing.T) {
	s := NewPortfolioState(d("1000"), nil)
	s.Holdings = []Holding{
		{Symbol: "AAPL", Quantity: d("10"), AvgPrice: d("100"), CurrentPrice: d("150"), AssetClass: AssetStock},
		{Symbol: "BTC", Quantity: d("0.5"), AvgPrice: d("40000"), CurrentPrice: d("30000"), AssetClass: AssetCrypto},
	}

	sum := Summarize(s)

	if !sum.HoldingsValue.Equal(d("16500")) {
		t.Errorf("Expected holdings value 16500, got %s", sum.HoldingsValue)
	}
	if !sum.NetWorth.Equal(d("17500")) {
		t.Errorf("Expected net worth 17500, got %s", sum.NetWorth)
	}
	// cost 1000 + 20000 = 21000, value 16500
	if !sum.UnrealizedPL.Equal(d("-4500")) {
		t.Errorf("Expected unrealized P/L -4500, got %s", sum.UnrealizedPL)
	}
	if !sum.Holdings[0].UnrealizedPLPct.Equal(d("50")) {
		t.Errorf("Expected AAPL +50%%, got %s", sum.Holdings[0].UnrealizedPLPct)
	}
	if len(sum.Allocation) != 2 || sum.Allocation[0].AssetClass != AssetCrypto {
		t.Errorf("Expected crypto first in allocation, got %+v", sum.Allocation)
	}
	if sum.CashDisplay != "$1,000.00" {
		t.Errorf("Expected $1,000.00, got %s", sum.CashDisplay)
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(NewPortfolioState(d("100000"), nil))
	if !sum.NetWorth.Equal(d("100000")) {
		t.Errorf("Expected net worth equal to cash, got %s", sum.NetWorth)
	}
	if len(sum.Allocation) != 0 {
		t.Errorf("Expected no allocation, got %v", sum.Allocation)
	}
}

func TestQuote_IsZero(t *testing.T) {
	if !(Quote{Symbol: "NOPE"}).IsZero() {
		t.Error("Expected empty quote to be zero")
	}
	if (Quote{PreviousClose: d("1")}).IsZero() {
		t.Error("Expected quote with previous close not to be zero")
	}
}

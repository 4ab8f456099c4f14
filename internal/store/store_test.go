package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/db"
	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/shopspring/decimal"
)

const testKey = "investment_navigator_data"

var testDefaults = Defaults{
	Cash:      decimal.NewFromInt(100000),
	Watchlist: []string{"AAPL", "NVDA", "TSLA", "BTC-USD"},
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestStore(t *testing.T) (*Store, *db.MemoryRepository) {
	t.Helper()
	repo := db.NewMemoryRepository()
	return New(repo, testKey, testDefaults, nil), repo
}

// sameState compares two states through their persisted encoding
func sameState(t *testing.T, a, b models.PortfolioState) {
	t.Helper()
	ea, err := encode(a)
	if err != nil {
		t.Fatal(err)
	}
	eb, err := encode(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(ea) != string(eb) {
		t.Errorf("States differ:\n%s\n%s", ea, eb)
	}
}

func TestLoad_Default(t *testing.T) {
	s, repo := newTestStore(t)

	state := s.Load(context.Background())

	if !state.Cash.Equal(d("100000")) {
		t.Errorf("Expected default cash 100000, got %s", state.Cash)
	}
	if len(state.Holdings) != 0 || len(state.Orders) != 0 || len(state.NetWorthHistory) != 0 {
		t.Errorf("Expected empty collections, got %+v", state)
	}
	if len(state.Watchlist) != 4 || state.Watchlist[3] != "BTC-USD" {
		t.Errorf("Expected seed watchlist, got %v", state.Watchlist)
	}
	if repo.Writes() != 0 {
		t.Errorf("Load must not write, got %d writes", repo.Writes())
	}
}

func TestLoad_CorruptFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{{{"},
		{"null", "null"},
		{"empty", "  "},
		{"negative cash", `{"schemaVersion":1,"cash":"-5"}`},
		{"bad decimal", `{"schemaVersion":1,"cash":"lots"}`},
		{"duplicate holdings", `{"schemaVersion":1,"cash":"1","holdings":[{"symbol":"A","quantity":"1"},{"symbol":"A","quantity":"2"}]}`},
		{"future version", `{"schemaVersion":99,"cash":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo := newTestStore(t)
			repo.Put(context.Background(), testKey, []byte(tt.payload))

			state := s.Load(context.Background())
			sameState(t, state, s.Default())
		})
	}
}

func TestLoad_ReadErrorFallsBackToDefault(t *testing.T) {
	s := New(failingRepo{err: errors.New("connection refused")}, testKey, testDefaults, nil)
	sameState(t, s.Load(context.Background()), s.Default())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	state := s.Load(ctx)
	state.Cash = d("98500.125")
	state.Holdings = []models.Holding{{
		Symbol: "AAPL", Quantity: d("10.5"), AvgPrice: d("142.857142857142857"),
		CurrentPrice: d("150"), Name: "AAPL", AssetClass: models.AssetStock,
	}}
	state.Orders = []models.Order{{
		ID: "o-1", Symbol: "AAPL", Side: models.SideBuy, Quantity: d("10.5"), Price: d("142.857142857142857"),
		AssetClass: models.AssetStock, Status: models.StatusFilled, Date: time.Date(2025, 3, 1, 14, 30, 0, 123, time.UTC),
	}}
	state.NetWorthHistory = []models.NetWorthPoint{{Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), TotalValue: d("100075.13")}}

	if err := s.Save(ctx, state); err != nil {
		t.Fatalf("Save() unexpected error = %v", err)
	}
	first := s.Load(ctx)
	sameState(t, first, state)

	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save() unexpected error = %v", err)
	}
	sameState(t, s.Load(ctx), first)
}

func TestSave_WriteFailureIsReported(t *testing.T) {
	s, repo := newTestStore(t)
	repo.FailWrites = errors.New("quota exceeded")

	if err := s.Save(context.Background(), s.Default()); err == nil {
		t.Error("Expected write failure to be returned")
	}
}

func TestLoad_MigratesLegacyRecord(t *testing.T) {
	s, repo := newTestStore(t)
	legacy := `{
		"cash": 98500.5,
		"holdings": [
			{"symbol":"AAPL","quantity":10,"avgPrice":150,"currentPrice":151.2,"name":"AAPL","assetClass":"Stock"},
			{"symbol":"GONE","quantity":0,"avgPrice":1,"currentPrice":1,"name":"GONE","assetClass":"Stock"}
		],
		"orders": [
			{"id":"1712345678901","symbol":"AAPL","side":"BUY","quantity":10,"price":150,"date":"2024-04-05T19:34:38.901Z","assetClass":"Stock"}
		],
		"watchlist": ["AAPL","nvda","AAPL"],
		"netWorthHistory": [{"date":"2024-04-05T00:00:00.000Z","value":100012.5}]
	}`
	repo.Put(context.Background(), testKey, []byte(legacy))

	state := s.Load(context.Background())

	if !state.Cash.Equal(d("98500.5")) {
		t.Errorf("Expected cash 98500.5, got %s", state.Cash)
	}
	if len(state.Holdings) != 1 || state.Holdings[0].Symbol != "AAPL" {
		t.Errorf("Expected only AAPL to survive, got %+v", state.Holdings)
	}
	if len(state.Orders) != 1 || state.Orders[0].Status != models.StatusFilled {
		t.Errorf("Expected migrated FILLED order, got %+v", state.Orders)
	}
	if len(state.Watchlist) != 2 || state.Watchlist[1] != "NVDA" {
		t.Errorf("Expected [AAPL NVDA], got %v", state.Watchlist)
	}
	if len(state.NetWorthHistory) != 1 || !state.NetWorthHistory[0].TotalValue.Equal(d("100012.5")) {
		t.Errorf("Expected migrated net worth sample, got %+v", state.NetWorthHistory)
	}
}

func TestLoad_MigratesLegacyPlaceholderDates(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()
	legacy := `{
		"cash": 91000,
		"holdings": [
			{"symbol":"TSLA","quantity":20,"avgPrice":450,"currentPrice":450,"name":"TSLA","assetClass":"Stock"}
		],
		"orders": [
			{"id":"1712345678901","symbol":"TSLA","side":"BUY","quantity":20,"price":450,"date":"2024-04-05T19:34:38.901Z","assetClass":"Stock"}
		],
		"watchlist": ["TSLA"],
		"netWorthHistory": [{"date":"Start","value":100000},{"date":"2024-04-06T00:00:00Z","value":100250}]
	}`
	repo.Put(ctx, testKey, []byte(legacy))

	state := s.Load(ctx)
	if !state.Cash.Equal(d("91000")) {
		t.Errorf("Expected cash 91000, got %s", state.Cash)
	}
	if len(state.Holdings) != 1 || !state.Holdings[0].Quantity.Equal(d("20")) {
		t.Errorf("Expected TSLA holding to survive, got %+v", state.Holdings)
	}
	if len(state.NetWorthHistory) != 1 || !state.NetWorthHistory[0].TotalValue.Equal(d("100250")) {
		t.Errorf("Expected only the dated sample, got %+v", state.NetWorthHistory)
	}

	// A mutation must build on the migrated record, not the defaults.
	state, err := s.AddSymbol(ctx, "MSFT")
	if err != nil {
		t.Fatalf("AddSymbol() unexpected error = %v", err)
	}
	if !state.Cash.Equal(d("91000")) || len(state.Holdings) != 1 || len(state.Orders) != 1 {
		t.Errorf("Expected portfolio kept after AddSymbol, got %+v", state)
	}
	if len(state.Watchlist) != 2 {
		t.Errorf("Expected [TSLA MSFT], got %v", state.Watchlist)
	}
}

func TestWatchlist_Idempotent(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	state, err := s.AddSymbol(ctx, "msft")
	if err != nil {
		t.Fatalf("AddSymbol() unexpected error = %v", err)
	}
	if !state.InWatchlist("MSFT") || len(state.Watchlist) != 5 {
		t.Errorf("Expected MSFT appended, got %v", state.Watchlist)
	}
	writes := repo.Writes()

	state, err = s.AddSymbol(ctx, "MSFT")
	if err != nil {
		t.Fatalf("AddSymbol() unexpected error = %v", err)
	}
	if len(state.Watchlist) != 5 {
		t.Errorf("Expected no duplicate, got %v", state.Watchlist)
	}

	state, err = s.RemoveSymbol(ctx, "DOGE")
	if err != nil {
		t.Fatalf("RemoveSymbol() unexpected error = %v", err)
	}
	if len(state.Watchlist) != 5 {
		t.Errorf("Expected unchanged watchlist, got %v", state.Watchlist)
	}
	if repo.Writes() != writes {
		t.Errorf("Expected no writes for no-op mutations, got %d more", repo.Writes()-writes)
	}

	state, err = s.RemoveSymbol(ctx, "tsla")
	if err != nil {
		t.Fatalf("RemoveSymbol() unexpected error = %v", err)
	}
	if state.InWatchlist("TSLA") || len(state.Watchlist) != 4 {
		t.Errorf("Expected TSLA removed, got %v", state.Watchlist)
	}
	sameState(t, s.Load(ctx), state)
}

func TestAddSymbol_Empty(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.AddSymbol(context.Background(), "   "); !errors.Is(err, ErrEmptySymbol) {
		t.Errorf("Expected ErrEmptySymbol, got %v", err)
	}
}

func TestUpdate_RefusesToOverwriteUnreadable(t *testing.T) {
	t.Run("read error", func(t *testing.T) {
		s := New(failingRepo{err: errors.New("timeout")}, testKey, testDefaults, nil)
		_, err := s.AddSymbol(context.Background(), "MSFT")
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("Expected ErrUnreadable, got %v", err)
		}
	})

	t.Run("future version", func(t *testing.T) {
		s, repo := newTestStore(t)
		repo.Put(context.Background(), testKey, []byte(`{"schemaVersion":7,"cash":"1"}`))
		writes := repo.Writes()

		_, err := s.AddSymbol(context.Background(), "MSFT")
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("Expected ErrUnreadable, got %v", err)
		}
		if repo.Writes() != writes {
			t.Error("Expected record to stay untouched")
		}
	})
}

func TestAppendNetWorth(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	state, err := s.AppendNetWorth(ctx, at, nil)
	if err != nil {
		t.Fatalf("AppendNetWorth() unexpected error = %v", err)
	}
	v := d("123.45")
	state, err = s.AppendNetWorth(ctx, at.Add(time.Hour), &v)
	if err != nil {
		t.Fatalf("AppendNetWorth() unexpected error = %v", err)
	}

	if len(state.NetWorthHistory) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(state.NetWorthHistory))
	}
	if !state.NetWorthHistory[0].TotalValue.Equal(d("100000")) {
		t.Errorf("Expected computed net worth 100000, got %s", state.NetWorthHistory[0].TotalValue)
	}
	if !state.NetWorthHistory[1].TotalValue.Equal(v) {
		t.Errorf("Expected supplied value 123.45, got %s", state.NetWorthHistory[1].TotalValue)
	}
}

func TestRefreshPrices(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	state := s.Default()
	state.Holdings = []models.Holding{
		{Symbol: "AAPL", Quantity: d("1"), AvgPrice: d("100"), CurrentPrice: d("100")},
		{Symbol: "TSLA", Quantity: d("1"), AvgPrice: d("200"), CurrentPrice: d("200")},
	}
	if err := s.Save(ctx, state); err != nil {
		t.Fatal(err)
	}

	state, err := s.RefreshPrices(ctx, map[string]decimal.Decimal{"AAPL": d("120"), "MSFT": d("1")})
	if err != nil {
		t.Fatalf("RefreshPrices() unexpected error = %v", err)
	}
	if !state.Holdings[0].CurrentPrice.Equal(d("120")) {
		t.Errorf("Expected AAPL at 120, got %s", state.Holdings[0].CurrentPrice)
	}
	if !state.Holdings[1].CurrentPrice.Equal(d("200")) {
		t.Errorf("Expected TSLA untouched, got %s", state.Holdings[1].CurrentPrice)
	}
	if !state.Holdings[0].AvgPrice.Equal(d("100")) {
		t.Errorf("Expected avgPrice untouched, got %s", state.Holdings[0].AvgPrice)
	}
}

type failingRepo struct{ err error }

func (f failingRepo) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingRepo) Put(context.Context, string, []byte) error { return f.err }

func TestKeyedLocks_SerializesSameKey(t *testing.T) {
	locks := newKeyedLocks()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer locks.lock("k")()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("Race condition detected! Expected 50, got %d", counter)
	}
}

func TestKeyedLocks_IndependentKeys(t *testing.T) {
	locks := newKeyedLocks()
	unlockA := locks.lock("a")
	defer unlockA()

	acquired := make(chan struct{})
	go func() {
		defer locks.lock("b")()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Error("Expected lock on b while a is held")
	}
}

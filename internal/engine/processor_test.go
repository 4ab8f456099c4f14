package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/db"
	"github.com/atharvakonge/investment-navigator/internal/store"
)

// gatedRepo holds every Put until release is closed and honors ctx like a
// network-backed repository would.
type gatedRepo struct {
	*db.MemoryRepository
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) Put(ctx context.Context, key string, data []byte) error {
	close(g.entered)
	<-g.release
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.MemoryRepository.Put(ctx, key, data)
}

func TestProcessor_Submit(t *testing.T) {
	e, _, _ := setupEngine(t, "10000")
	p := NewProcessor(e, 1, nil, nil)
	p.Start()
	defer p.Stop()

	result := p.Submit(context.Background(), buy("AAPL", "10", "150"))

	if result.Err != nil {
		t.Fatalf("Expected order to succeed, got error: %v", result.Err)
	}
	if !result.Execution.State.Cash.Equal(d("8500")) {
		t.Errorf("Expected cash 8500, got %s", result.Execution.State.Cash)
	}
}

func TestProcessor_Rejection(t *testing.T) {
	e, _, _ := setupEngine(t, "100")
	p := NewProcessor(e, 1, nil, nil)
	p.Start()
	defer p.Stop()

	result := p.Submit(context.Background(), buy("AAPL", "10", "150"))

	if !errors.Is(result.Err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got: %v", result.Err)
	}
}

func TestConcurrentBuying_SamePortfolio(t *testing.T) {
	e, s, repo := setupEngine(t, "10000")
	p := NewProcessor(e, 5, nil, nil) // 5 workers
	p.Start()
	defer p.Stop()

	// Execute 50 concurrent orders against the same portfolio
	numOrders := 50
	results := make(chan OrderResult, numOrders)

	for i := 0; i < numOrders; i++ {
		go func() {
			results <- p.Submit(context.Background(), buy("AAPL", "1", "100"))
		}()
	}

	successCount := 0
	for i := 0; i < numOrders; i++ {
		if r := <-results; r.Err == nil {
			successCount++
		}
	}

	if successCount != numOrders {
		t.Errorf("Expected %d successful orders, got %d", numOrders, successCount)
	}

	state := s.Load(context.Background())
	if !state.Cash.Equal(d("5000")) {
		t.Errorf("Race condition detected! Expected balance 5000, got %s", state.Cash)
	}
	if !state.Holdings[0].Quantity.Equal(d("50")) {
		t.Errorf("Race condition detected! Expected quantity 50, got %s", state.Holdings[0].Quantity)
	}
	if len(state.Orders) != numOrders || repo.Writes() != numOrders {
		t.Errorf("Expected %d orders and writes, got %d orders %d writes", numOrders, len(state.Orders), repo.Writes())
	}
}

func TestConcurrentBuying_NeverOverspends(t *testing.T) {
	e, s, _ := setupEngine(t, "1000")
	p := NewProcessor(e, 8, nil, nil)
	p.Start()
	defer p.Stop()

	// 30 orders of $100 against $1000: exactly 10 can fill
	numOrders := 30
	results := make(chan OrderResult, numOrders)
	for i := 0; i < numOrders; i++ {
		go func() {
			results <- p.Submit(context.Background(), buy("TSLA", "1", "100"))
		}()
	}

	filled, rejected := 0, 0
	for i := 0; i < numOrders; i++ {
		r := <-results
		switch {
		case r.Err == nil:
			filled++
		case errors.Is(r.Err, ErrInsufficientFunds):
			rejected++
		default:
			t.Errorf("Unexpected error: %v", r.Err)
		}
	}

	if filled != 10 || rejected != 20 {
		t.Errorf("Expected 10 filled and 20 rejected, got %d and %d", filled, rejected)
	}
	if cash := s.Load(context.Background()).Cash; !cash.IsZero() {
		t.Errorf("Expected cash 0, got %s", cash)
	}
}

func TestProcessor_StoppedRejectsSubmissions(t *testing.T) {
	e, _, _ := setupEngine(t, "10000")
	p := NewProcessor(e, 2, nil, nil)
	p.Start()
	p.Stop()
	p.Stop() // second Stop is a no-op

	result := p.Submit(context.Background(), buy("AAPL", "1", "1"))
	if !errors.Is(result.Err, ErrProcessorStopped) {
		t.Errorf("Expected ErrProcessorStopped, got %v", result.Err)
	}
}

func TestProcessor_CancelledContext(t *testing.T) {
	e, _, repo := setupEngine(t, "10000")
	// Not started: nothing will pick the order up.
	p := NewProcessor(e, 1, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.Submit(ctx, buy("AAPL", "1", "1"))
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", result.Err)
	}
	if repo.Writes() != 0 {
		t.Errorf("Expected no writes")
	}
}

func TestProcessor_CallerCancelsDuringExecution(t *testing.T) {
	repo := &gatedRepo{MemoryRepository: db.NewMemoryRepository(), entered: make(chan struct{}), release: make(chan struct{})}
	s := store.New(repo, "test_portfolio", store.Defaults{Cash: d("10000"), Watchlist: []string{"AAPL"}}, nil)
	p := NewProcessor(New(s, nil), 1, nil, nil)
	p.Start()

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan OrderResult, 1)
	go func() { results <- p.Submit(ctx, buy("AAPL", "10", "150")) }()

	select {
	case <-repo.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the worker to reach the write")
	}
	cancel()

	if result := <-results; !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Expected context.Canceled for the caller, got %v", result.Err)
	}
	close(repo.release)
	p.Stop()

	if repo.Writes() != 1 {
		t.Fatalf("Expected the picked-up order to be written, got %d writes", repo.Writes())
	}
	state := s.Load(context.Background())
	if !state.Cash.Equal(d("8500")) || len(state.Holdings) != 1 || len(state.Orders) != 1 {
		t.Errorf("Expected filled AAPL order in portfolio, got %+v", state)
	}
}

func BenchmarkOrderProcessing(b *testing.B) {
	e, _, _ := setupEngine(b, "1000000000")
	p := NewProcessor(e, 5, nil, nil)
	p.Start()
	defer p.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Submit(context.Background(), buy("AAPL", "1", "1"))
	}
}

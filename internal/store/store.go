// Package store owns the canonical PortfolioState: it loads the aggregate
// from a persistence substrate and writes every mutation back as a whole.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/db"
	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repository is the persistence substrate: one opaque document per key
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Defaults describes the state returned when nothing usable is stored
type Defaults struct {
	Cash      decimal.Decimal
	Watchlist []string
}

// ErrUnreadable is returned by mutations when the stored record exists but
// cannot be read, so the mutation would otherwise overwrite it with defaults.
var ErrUnreadable = errors.New("stored portfolio cannot be read")

// Store is the single owner of the persisted portfolio record
type Store struct {
	repo     Repository
	key      string
	defaults Defaults
	locks    *keyedLocks
	log      *zap.Logger
}

// New creates a store for the record under key
func New(repo Repository, key string, defaults Defaults, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		repo:     repo,
		key:      key,
		defaults: defaults,
		locks:    newKeyedLocks(),
		log:      log.With(zap.String("portfolio_key", key)),
	}
}

// Key returns the storage key of the record
func (s *Store) Key() string { return s.key }

// Default returns a fresh default state
func (s *Store) Default() models.PortfolioState {
	return models.NewPortfolioState(s.defaults.Cash, s.defaults.Watchlist)
}

// Load returns the persisted state, or the default state when the record is
// missing, corrupt or cannot be read. It never fails.
func (s *Store) Load(ctx context.Context) models.PortfolioState {
	state, err := s.read(ctx)
	if err != nil {
		s.log.Warn("Using default portfolio", zap.Error(err))
		return s.Default()
	}
	return state
}

// Save persists the full state, replacing any previous record
func (s *Store) Save(ctx context.Context, state models.PortfolioState) error {
	defer s.locks.lock(s.key)()
	return s.write(ctx, state)
}

// Update runs fn against the current state under the portfolio lock and
// persists the result once. fn reports whether it changed anything; an
// unchanged state is not written. An error from fn aborts without writing.
func (s *Store) Update(ctx context.Context, fn func(*models.PortfolioState) (bool, error)) (models.PortfolioState, error) {
	defer s.locks.lock(s.key)()

	state, err := s.read(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errCorrupt), errors.Is(err, db.ErrNotFound):
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Warn("Replacing corrupt portfolio record with defaults", zap.Error(err))
		}
		state = s.Default()
	default:
		return models.PortfolioState{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	next := state.Clone()
	changed, err := fn(&next)
	if err != nil {
		return state, err
	}
	if !changed {
		return state, nil
	}
	if err := s.write(ctx, next); err != nil {
		return models.PortfolioState{}, err
	}
	return next, nil
}

// AddSymbol adds symbol to the watchlist if it is not already there
func (s *Store) AddSymbol(ctx context.Context, symbol string) (models.PortfolioState, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.PortfolioState{}, ErrEmptySymbol
	}
	return s.Update(ctx, func(st *models.PortfolioState) (bool, error) {
		if st.InWatchlist(symbol) {
			return false, nil
		}
		st.Watchlist = append(st.Watchlist, symbol)
		return true, nil
	})
}

// RemoveSymbol removes symbol from the watchlist; absent symbols are a no-op
func (s *Store) RemoveSymbol(ctx context.Context, symbol string) (models.PortfolioState, error) {
	symbol = models.NormalizeSymbol(symbol)
	return s.Update(ctx, func(st *models.PortfolioState) (bool, error) {
		kept := st.Watchlist[:0]
		for _, w := range st.Watchlist {
			if w != symbol {
				kept = append(kept, w)
			}
		}
		changed := len(kept) != len(st.Watchlist)
		st.Watchlist = kept
		return changed, nil
	})
}

// AppendNetWorth records a net worth sample. A zero timestamp means now and a
// nil value means the state's own net worth at current prices.
func (s *Store) AppendNetWorth(ctx context.Context, at time.Time, value *decimal.Decimal) (models.PortfolioState, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.Update(ctx, func(st *models.PortfolioState) (bool, error) {
		v := st.NetWorth()
		if value != nil {
			v = *value
		}
		st.NetWorthHistory = append(st.NetWorthHistory, models.NetWorthPoint{Timestamp: at, TotalValue: v})
		return true, nil
	})
}

// RefreshPrices overwrites currentPrice of held symbols found in prices
func (s *Store) RefreshPrices(ctx context.Context, prices map[string]decimal.Decimal) (models.PortfolioState, error) {
	return s.Update(ctx, func(st *models.PortfolioState) (bool, error) {
		changed := false
		for i, h := range st.Holdings {
			if p, ok := prices[h.Symbol]; ok && !p.Equal(h.CurrentPrice) {
				st.Holdings[i].CurrentPrice = p
				changed = true
			}
		}
		return changed, nil
	})
}

// ErrEmptySymbol is returned when a watchlist symbol is blank
var ErrEmptySymbol = errors.New("symbol must not be empty")

func (s *Store) read(ctx context.Context) (models.PortfolioState, error) {
	data, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return models.PortfolioState{}, err
	}
	return decode(data)
}

func (s *Store) write(ctx context.Context, state models.PortfolioState) error {
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("encoding portfolio: %w", err)
	}
	if err := s.repo.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("saving portfolio: %w", err)
	}
	return nil
}

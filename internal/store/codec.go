package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/shopspring/decimal"
)

// SchemaVersion is written into every saved record
const SchemaVersion = 1

var (
	errCorrupt            = errors.New("corrupt portfolio record")
	errUnsupportedVersion = errors.New("unsupported portfolio schema version")
)

// record is the persisted layout
type record struct {
	SchemaVersion int `json:"schemaVersion"`
	models.PortfolioState
}

// legacyRecord is the unversioned layout written by the browser client:
// float numbers, net worth samples as {date, value}, status possibly absent.
type legacyRecord struct {
	Cash            decimal.Decimal  `json:"cash"`
	Holdings        []models.Holding `json:"holdings"`
	Orders          []models.Order   `json:"orders"`
	Watchlist       []string         `json:"watchlist"`
	NetWorthHistory []struct {
		Date  string          `json:"date"`
		Value decimal.Decimal `json:"value"`
	} `json:"netWorthHistory"`
}

func encode(s models.PortfolioState) ([]byte, error) {
	return json.Marshal(record{SchemaVersion: SchemaVersion, PortfolioState: s})
}

// decode parses a stored record, migrating older layouts forward
func decode(data []byte) (models.PortfolioState, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.PortfolioState{}, fmt.Errorf("%w: empty record", errCorrupt)
	}

	var head struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return models.PortfolioState{}, fmt.Errorf("%w: %v", errCorrupt, err)
	}

	var s models.PortfolioState
	switch {
	case head.SchemaVersion > SchemaVersion:
		return models.PortfolioState{}, fmt.Errorf("%w: %d", errUnsupportedVersion, head.SchemaVersion)
	case head.SchemaVersion == 0:
		migrated, err := migrateLegacy(data)
		if err != nil {
			return models.PortfolioState{}, err
		}
		s = migrated
	default:
		var r record
		if err := json.Unmarshal(data, &r); err != nil {
			return models.PortfolioState{}, fmt.Errorf("%w: %v", errCorrupt, err)
		}
		s = r.PortfolioState
	}

	return normalize(s)
}

func migrateLegacy(data []byte) (models.PortfolioState, error) {
	var l legacyRecord
	if err := json.Unmarshal(data, &l); err != nil {
		return models.PortfolioState{}, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	s := models.PortfolioState{
		Cash:      l.Cash,
		Holdings:  l.Holdings,
		Orders:    l.Orders,
		Watchlist: l.Watchlist,
	}
	for _, p := range l.NetWorthHistory {
		// Placeholder samples like "Start" carry no usable timestamp.
		at, err := time.Parse(time.RFC3339Nano, p.Date)
		if err != nil {
			continue
		}
		s.NetWorthHistory = append(s.NetWorthHistory, models.NetWorthPoint{Timestamp: at, TotalValue: p.Value})
	}
	for i := range s.Orders {
		if s.Orders[i].Status == "" {
			s.Orders[i].Status = models.StatusFilled
		}
	}
	return s, nil
}

// normalize fills nil collections and enforces the aggregate invariants
func normalize(s models.PortfolioState) (models.PortfolioState, error) {
	if s.Cash.IsNegative() {
		return models.PortfolioState{}, fmt.Errorf("%w: negative cash %s", errCorrupt, s.Cash)
	}

	holdings := make([]models.Holding, 0, len(s.Holdings))
	seen := map[string]bool{}
	for _, h := range s.Holdings {
		if seen[h.Symbol] {
			return models.PortfolioState{}, fmt.Errorf("%w: duplicate holding %s", errCorrupt, h.Symbol)
		}
		seen[h.Symbol] = true
		// A closed position must not survive in the sequence.
		if h.Quantity.IsPositive() {
			holdings = append(holdings, h)
		}
	}
	s.Holdings = holdings

	if s.Orders == nil {
		s.Orders = []models.Order{}
	}
	if s.NetWorthHistory == nil {
		s.NetWorthHistory = []models.NetWorthPoint{}
	}
	watchlist := make([]string, 0, len(s.Watchlist))
	for _, sym := range s.Watchlist {
		if sym = models.NormalizeSymbol(sym); sym != "" && !containsString(watchlist, sym) {
			watchlist = append(watchlist, sym)
		}
	}
	s.Watchlist = watchlist
	return s, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

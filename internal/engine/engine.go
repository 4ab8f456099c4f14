// Package engine is the only mutator of cash, holdings and order history.
// Each execution validates one order intent, applies it to the current
// state and persists the result in a single write.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/atharvakonge/investment-navigator/internal/apperr"
	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/atharvakonge/investment-navigator/internal/monitoring"
	"github.com/atharvakonge/investment-navigator/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rejections. All leave the stored state untouched.
var (
	ErrInsufficientFunds    = apperr.NewValidationError("INSUFFICIENT_FUNDS", "Insufficient buying power")
	ErrInsufficientHoldings = apperr.NewValidationError("INSUFFICIENT_HOLDINGS", "Insufficient holdings to sell")
	ErrInvalidOrder         = apperr.NewValidationError("INVALID_ORDER", "Invalid order")
)

var knownAssetClasses = map[models.AssetClass]bool{
	models.AssetStock:      true,
	models.AssetCrypto:     true,
	models.AssetETF:        true,
	models.AssetBond:       true,
	models.AssetMutualFund: true,
}

// Execution is the outcome of a successful order
type Execution struct {
	Order models.Order
	State models.PortfolioState
}

// Engine executes orders against a Store
type Engine struct {
	store   *store.Store
	now     func() time.Time
	newID   func() string
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the source of order dates
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs sets the order id generator
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithMetrics records executions and rejections
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine over s
func New(s *store.Store, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		log:   log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates and applies one order. On rejection the returned error
// is one of the Err* values above and nothing is written.
func (e *Engine) Execute(ctx context.Context, intent models.OrderIntent) (Execution, error) {
	intent, err := Validate(intent)
	if err != nil {
		e.reject(intent, err)
		return Execution{}, err
	}

	order := models.Order{
		ID:         e.newID(),
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Quantity:   intent.Quantity,
		Price:      intent.Price,
		AssetClass: intent.AssetClass,
		Status:     models.StatusFilled,
		Date:       e.now(),
	}

	state, err := e.store.Update(ctx, func(s *models.PortfolioState) (bool, error) {
		if err := Apply(s, order); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			err = apperr.NewInternalError("Failed to save portfolio", err)
		}
		e.reject(intent, err)
		return Execution{}, err
	}

	e.metrics.OrderExecuted(string(order.Side))
	e.log.Info("Order filled",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("quantity", order.Quantity.String()),
		zap.String("price", order.Price.String()),
		zap.String("cash", state.Cash.String()),
	)
	return Execution{Order: order, State: state}, nil
}

func (e *Engine) reject(intent models.OrderIntent, err error) {
	code := apperr.From(err).Code
	e.metrics.OrderRejected(code)
	e.log.Info("Order rejected",
		zap.String("symbol", intent.Symbol),
		zap.String("side", string(intent.Side)),
		zap.String("code", code),
		zap.Error(err),
	)
}

// Validate normalizes intent and rejects out-of-contract values
func Validate(intent models.OrderIntent) (models.OrderIntent, error) {
	intent.Symbol = models.NormalizeSymbol(intent.Symbol)
	intent.Side = models.Side(models.NormalizeSymbol(string(intent.Side)))
	if intent.AssetClass == "" {
		intent.AssetClass = models.AssetStock
	}

	var reason string
	switch {
	case intent.Symbol == "":
		reason = "symbol is required"
	case !intent.Side.Valid():
		reason = "side must be BUY or SELL"
	case !intent.Quantity.IsPositive():
		reason = "quantity must be greater than zero"
	case intent.Price.IsNegative():
		reason = "price must not be negative"
	case !knownAssetClasses[intent.AssetClass]:
		reason = "unknown asset class"
	}
	if reason != "" {
		return intent, ErrInvalidOrder.WithDetails(map[string]interface{}{"reason": reason})
	}
	return intent, nil
}

// Apply mutates s with a filled order. It checks buying power and held
// quantity first and leaves s untouched when rejecting.
func Apply(s *models.PortfolioState, order models.Order) error {
	total := order.Price.Mul(order.Quantity)
	idx := s.HoldingIndex(order.Symbol)

	switch order.Side {
	case models.SideBuy:
		if s.Cash.LessThan(total) {
			return ErrInsufficientFunds.WithDetails(map[string]interface{}{
				"required":  total.String(),
				"available": s.Cash.String(),
			})
		}
		s.Cash = s.Cash.Sub(total)

		if idx >= 0 {
			h := &s.Holdings[idx]
			newQty := h.Quantity.Add(order.Quantity)
			h.AvgPrice = weightedAvg(h.AvgPrice, h.Quantity, total, newQty)
			h.Quantity = newQty
			h.CurrentPrice = order.Price
		} else {
			s.Holdings = append(s.Holdings, models.Holding{
				Symbol:       order.Symbol,
				Quantity:     order.Quantity,
				AvgPrice:     order.Price,
				CurrentPrice: order.Price,
				Name:         order.Symbol,
				AssetClass:   order.AssetClass,
			})
		}

	case models.SideSell:
		if idx < 0 || s.Holdings[idx].Quantity.LessThan(order.Quantity) {
			held := decimal.Zero
			if idx >= 0 {
				held = s.Holdings[idx].Quantity
			}
			return ErrInsufficientHoldings.WithDetails(map[string]interface{}{
				"requested": order.Quantity.String(),
				"held":      held.String(),
			})
		}
		s.Cash = s.Cash.Add(total)

		h := &s.Holdings[idx]
		h.Quantity = h.Quantity.Sub(order.Quantity)
		h.CurrentPrice = order.Price
		if !h.Quantity.IsPositive() {
			s.Holdings = append(s.Holdings[:idx], s.Holdings[idx+1:]...)
		}

	default:
		return ErrInvalidOrder.WithDetails(map[string]interface{}{"reason": "side must be BUY or SELL"})
	}

	s.Orders = append([]models.Order{order}, s.Orders...)
	return nil
}

// weightedAvg blends the existing cost basis with a new fill's cost
func weightedAvg(avg, qty, cost, newQty decimal.Decimal) decimal.Decimal {
	if qty.IsZero() {
		return cost.Div(newQty)
	}
	return avg.Mul(qty).Add(cost).Div(newQty)
}

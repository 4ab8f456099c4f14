package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/atharvakonge/investment-navigator/internal/models"
	"github.com/atharvakonge/investment-navigator/internal/monitoring"
	"go.uber.org/zap"
)

// ErrProcessorStopped is returned by Submit after Stop
var ErrProcessorStopped = errors.New("order processor stopped")

// OrderResult represents result of an order submission
type OrderResult struct {
	Execution Execution
	Err       error
}

// orderRequest represents an order waiting for a worker
type orderRequest struct {
	ctx      context.Context
	intent   models.OrderIntent
	resultCh chan OrderResult // Channel to send result back
}

// Processor queues order intents for a pool of workers. Executions against
// the same portfolio stay serialized by the store's lock, so the pool only
// bounds how many requests wait in line.
type Processor struct {
	engine  *Engine
	workers int
	queue   chan orderRequest
	stopCh  chan struct{}
	done    chan struct{} // closed once workers exited and the queue is drained
	wg      sync.WaitGroup
	once    sync.Once
	pending atomic.Int64
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// NewProcessor creates a processor with a worker pool over e
func NewProcessor(e *Engine, workers int, log *zap.Logger, m *monitoring.Metrics) *Processor {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		engine:  e,
		workers: workers,
		queue:   make(chan orderRequest, 100), // Buffer of 100 orders
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		log:     log,
		metrics: m,
	}
}

// Start starts the worker pool
func (p *Processor) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info("Started order workers", zap.Int("workers", p.workers))
}

// Stop gracefully stops all workers. Queued orders not yet picked up are
// answered with ErrProcessorStopped.
func (p *Processor) Stop() {
	p.once.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		for {
			select {
			case req := <-p.queue:
				p.dequeued()
				req.resultCh <- OrderResult{Err: ErrProcessorStopped}
			default:
				close(p.done)
				p.log.Info("Order processor stopped")
				return
			}
		}
	})
}

// worker processes orders from the queue
func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			p.log.Debug("Worker stopping", zap.Int("worker", id))
			return

		case req := <-p.queue:
			p.dequeued()
			if err := req.ctx.Err(); err != nil {
				req.resultCh <- OrderResult{Err: err}
				continue
			}
			p.log.Debug("Worker processing order",
				zap.Int("worker", id),
				zap.String("symbol", req.intent.Symbol),
				zap.String("side", string(req.intent.Side)),
			)
			// Once picked up the order runs to completion.
			exec, err := p.engine.Execute(context.WithoutCancel(req.ctx), req.intent)
			req.resultCh <- OrderResult{Execution: exec, Err: err}
		}
	}
}

// Submit queues an order and waits for its result. If ctx ends before a
// worker picks the order up, it is dropped. If ctx ends after that, Submit
// returns ctx.Err() while the order still executes; the filled order then
// shows up in the portfolio.
func (p *Processor) Submit(ctx context.Context, intent models.OrderIntent) OrderResult {
	// Buffered so a worker never blocks on a caller that gave up.
	resultCh := make(chan OrderResult, 1)

	select {
	case <-p.stopCh:
		return OrderResult{Err: ErrProcessorStopped}
	default:
	}

	select {
	case p.queue <- orderRequest{ctx: ctx, intent: intent, resultCh: resultCh}:
		p.metrics.SetQueueDepth(int(p.pending.Add(1)))
	case <-p.stopCh:
		return OrderResult{Err: ErrProcessorStopped}
	case <-ctx.Done():
		return OrderResult{Err: ctx.Err()}
	}

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return OrderResult{Err: ctx.Err()}
	case <-p.done:
		// Everything picked up before shutdown has answered by now.
		select {
		case result := <-resultCh:
			return result
		default:
			return OrderResult{Err: ErrProcessorStopped}
		}
	}
}

func (p *Processor) dequeued() {
	p.metrics.SetQueueDepth(int(p.pending.Add(-1)))
}

package insights

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/aggregates"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// ErrSuperseded is returned by Recomputer.Run when a newer request started
// before this one finished.
var ErrSuperseded = errors.New("superseded by a newer request")

// Recomputer recomputes insights whenever the filter changes. A new Run cancels
// the one in flight and only the newest request publishes its result.
type Recomputer struct {
	provider aggregates.SnapshotProvider
	analyzer *Analyzer
	logger   *zap.Logger
	onResult func(types.Insights)

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	latest  types.Insights
	hasLast bool
}

// NewRecomputer creates a Recomputer. onResult, when non-nil, is called with
// every published result while the internal lock is held, so results arrive in
// request order.
func NewRecomputer(provider aggregates.SnapshotProvider, analyzer *Analyzer, logger *zap.Logger, onResult func(types.Insights)) *Recomputer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recomputer{
		provider: provider,
		analyzer: analyzer,
		logger:   logger,
		onResult: onResult,
	}
}

// Run fetches the snapshot for filter and analyzes it. If another Run starts
// before this one publishes, this one returns ErrSuperseded and its result is
// discarded.
func (r *Recomputer) Run(ctx context.Context, filter types.Filter) (types.Insights, error) {
	gen, runCtx, cancel := r.begin(ctx)
	defer cancel()
	return r.compute(runCtx, gen, filter)
}

// Go registers filter as the newest request before returning and computes it
// in the background. done, when non-nil, receives Run's result.
func (r *Recomputer) Go(ctx context.Context, filter types.Filter, done func(types.Insights, error)) {
	gen, runCtx, cancel := r.begin(ctx)
	go func() {
		defer cancel()
		ins, err := r.compute(runCtx, gen, filter)
		if done != nil {
			done(ins, err)
		}
	}()
}

// begin cancels the request in flight and claims the next generation.
func (r *Recomputer) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	return r.gen, runCtx, cancel
}

func (r *Recomputer) compute(ctx context.Context, gen uint64, filter types.Filter) (types.Insights, error) {
	snap, err := r.provider.Snapshot(ctx, filter)
	if err != nil {
		if r.stale(gen) {
			return types.Insights{}, ErrSuperseded
		}
		return types.Insights{}, err
	}
	result := r.analyzer.Analyze(snap)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		r.logger.Debug("discarding stale insights", zap.String("filter", filter.Describe()))
		return types.Insights{}, ErrSuperseded
	}
	r.latest = result
	r.hasLast = true
	r.cancel = nil
	if r.onResult != nil {
		r.onResult(result)
	}
	return result, nil
}

// Latest returns the most recently published result.
func (r *Recomputer) Latest() (types.Insights, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest, r.hasLast
}

func (r *Recomputer) stale(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen != r.gen
}

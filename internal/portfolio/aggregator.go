// =================================
// File: internal/portfolio/aggregator.go
// =================================
package portfolio

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoPositions distinguishes "this wallet has nothing" from a failed
// refresh.
var ErrNoPositions = errors.New("no positions found")

// Aggregator runs the locator and fans valuation out over every
// position. Task starts are staggered so a big portfolio does not
// trip upstream rate limits, and results commit under an epoch guard
// so a stale in-flight refresh can never overwrite a newer one.
type Aggregator struct {
	locator      *Locator
	engine       *Engine
	staggerDelay time.Duration
	logger       *zap.Logger

	mu        sync.Mutex
	epoch     uint64
	lastEpoch uint64
	lastGood  []*PositionSnapshot
}

func NewAggregator(locator *Locator, engine *Engine, staggerDelay time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		locator:      locator,
		engine:       engine,
		staggerDelay: staggerDelay,
		logger:       logger.Named("aggregator"),
	}
}

// Aggregate values the wallet's whole portfolio. Returns ErrNoPositions
// when the locator finds nothing or everything is filtered as dust.
// Snapshots keep locator order for reproducible display.
func (a *Aggregator) Aggregate(ctx context.Context, owner string, rates Rates) ([]*PositionSnapshot, error) {
	a.mu.Lock()
	a.epoch++
	epoch := a.epoch
	a.mu.Unlock()

	ids := a.locator.Locate(ctx, owner)
	if len(ids) == 0 {
		return nil, ErrNoPositions
	}

	results := make([]*PositionSnapshot, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if a.staggerDelay > 0 && i > 0 {
				select {
				case <-time.After(time.Duration(i) * a.staggerDelay):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			results[i] = a.valuateSafe(gctx, id, owner, rates)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return a.LastGood(), err
	}

	snapshots := make([]*PositionSnapshot, 0, len(results))
	for _, snap := range results {
		if snap != nil {
			snapshots = append(snapshots, snap)
		}
	}
	if len(snapshots) == 0 {
		return nil, ErrNoPositions
	}

	a.commit(epoch, snapshots)
	return snapshots, nil
}

// valuateSafe confines one bad position to itself: a panic inside its
// valuation drops the position and the rest of the portfolio proceeds.
func (a *Aggregator) valuateSafe(ctx context.Context, id, owner string, rates Rates) (snap *PositionSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("valuation panicked, dropping position",
				zap.String("position", id),
				zap.Any("panic", r))
			snap = nil
		}
	}()
	return a.engine.Valuate(ctx, id, owner, rates)
}

func (a *Aggregator) commit(epoch uint64, snapshots []*PositionSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if epoch <= a.lastEpoch {
		a.logger.Debug("discarding stale refresh result",
			zap.Uint64("epoch", epoch),
			zap.Uint64("committed", a.lastEpoch))
		return
	}
	a.lastEpoch = epoch
	a.lastGood = snapshots
}

// LastGood returns the most recently committed snapshot set, so a
// failed refresh keeps showing real data instead of clearing the view.
func (a *Aggregator) LastGood() []*PositionSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastGood
}

// =================================
// File: internal/launch/monitor.go
// =================================

// Package launch polls the DAMM listing API until a pool for a token
// appears or the deadline passes.
package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/alansory/metina/internal/gateway"
)

// ErrTimeout reports that no pool appeared before the monitor's
// attempt budget ran out.
var ErrTimeout = errors.New("pool launch wait timed out")

var errNotLaunched = errors.New("pool not launched yet")

// PoolLister is the listing call the monitor polls. The Meteora
// gateway satisfies it.
type PoolLister interface {
	PoolsByMint(ctx context.Context, mint string) []gateway.DammPool
}

// Monitor waits for a token's first DAMM pool to go live.
type Monitor struct {
	lister   PoolLister
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewMonitor(lister PoolLister, interval, timeout time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		lister:   lister,
		interval: interval,
		timeout:  timeout,
		logger:   logger.Named("launch"),
	}
}

// maxAttempts derives the attempt budget from the timeout and poll
// interval, with at least one attempt.
func (m *Monitor) maxAttempts() uint {
	if m.interval <= 0 {
		return 1
	}
	attempts := uint(m.timeout / m.interval)
	if attempts == 0 {
		return 1
	}
	return attempts
}

// WaitForPool polls until a pool with the token on its A side exists,
// returning it as soon as one is found. ErrTimeout means the attempt
// budget is exhausted; a canceled context is returned as-is.
func (m *Monitor) WaitForPool(ctx context.Context, mint string) (*gateway.DammPool, error) {
	attempts := m.maxAttempts()
	m.logger.Info("waiting for pool launch",
		zap.String("mint", mint),
		zap.Duration("interval", m.interval),
		zap.Uint("max_attempts", attempts))

	operation := func() (*gateway.DammPool, error) {
		pools := m.lister.PoolsByMint(ctx, mint)
		if len(pools) == 0 {
			return nil, errNotLaunched
		}
		return &pools[0], nil
	}

	// Constant-interval polling expressed through the retry helper:
	// a multiplier of 1 keeps every wait equal to the interval.
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.interval
	policy.MaxInterval = m.interval
	policy.Multiplier = 1
	policy.RandomizationFactor = 0

	notify := func(err error, wait time.Duration) {
		m.logger.Debug("pool not live yet, retrying",
			zap.String("mint", mint),
			zap.Duration("next_check", wait))
	}

	pool, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(notify))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errNotLaunched) {
			return nil, fmt.Errorf("%w after %d attempts", ErrTimeout, attempts)
		}
		return nil, err
	}

	m.logger.Info("pool is live",
		zap.String("mint", mint),
		zap.String("pool", pool.Address))
	return pool, nil
}

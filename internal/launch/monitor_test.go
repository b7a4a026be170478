// =================================
// File: internal/launch/monitor_test.go
// =================================
package launch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alansory/metina/internal/gateway"
)

type fakeLister struct {
	calls     atomic.Int32
	liveAfter int32
	pool      gateway.DammPool
}

func (f *fakeLister) PoolsByMint(_ context.Context, _ string) []gateway.DammPool {
	n := f.calls.Add(1)
	if f.liveAfter > 0 && n >= f.liveAfter {
		return []gateway.DammPool{f.pool}
	}
	return nil
}

func TestWaitForPoolImmediateSuccess(t *testing.T) {
	lister := &fakeLister{liveAfter: 1, pool: gateway.DammPool{Address: "pool1"}}
	monitor := NewMonitor(lister, 10*time.Millisecond, time.Second, zaptest.NewLogger(t))

	pool, err := monitor.WaitForPool(context.Background(), "mint1")
	require.NoError(t, err)
	assert.Equal(t, "pool1", pool.Address)
	assert.Equal(t, int32(1), lister.calls.Load())
}

func TestWaitForPoolEventualSuccess(t *testing.T) {
	lister := &fakeLister{liveAfter: 3, pool: gateway.DammPool{Address: "pool1"}}
	monitor := NewMonitor(lister, time.Millisecond, time.Second, zaptest.NewLogger(t))

	pool, err := monitor.WaitForPool(context.Background(), "mint1")
	require.NoError(t, err)
	assert.Equal(t, "pool1", pool.Address)
	assert.Equal(t, int32(3), lister.calls.Load())
}

func TestWaitForPoolTimesOut(t *testing.T) {
	lister := &fakeLister{}
	monitor := NewMonitor(lister, time.Millisecond, 5*time.Millisecond, zaptest.NewLogger(t))

	_, err := monitor.WaitForPool(context.Background(), "mint1")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(5), lister.calls.Load())
}

func TestWaitForPoolContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &fakeLister{}
	monitor := NewMonitor(lister, time.Millisecond, time.Second, zaptest.NewLogger(t))

	_, err := monitor.WaitForPool(ctx, "mint1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaxAttemptsFloor(t *testing.T) {
	monitor := NewMonitor(&fakeLister{}, time.Second, time.Millisecond, zaptest.NewLogger(t))
	assert.Equal(t, uint(1), monitor.maxAttempts())
}

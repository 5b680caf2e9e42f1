package scholar

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterMaxInFlight(t *testing.T) {
	limiter := NewLimiter(3, 0)

	var (
		inFlight int32
		maxSeen  int32
		wg       sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, limiter.Acquire(context.Background()))
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxSeen)
				if cur <= max || atomic.CompareAndSwapInt32(&maxSeen, max, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			limiter.Release()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen, int32(3))
}

func TestLimiterMinDelayBetweenAdmissions(t *testing.T) {
	const minDelay = 20 * time.Millisecond
	limiter := NewLimiter(3, minDelay)

	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, limiter.Acquire(context.Background()))
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
			limiter.Release()
		}()
	}
	wg.Wait()

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		// Toleranz für Timer-Granularität und Scheduler-Jitter
		assert.GreaterOrEqual(t, gap, minDelay-5*time.Millisecond,
			"admissions %d and %d too close: %v", i-1, i, gap)
	}
}

func TestLimiterAcquireCancelled(t *testing.T) {
	limiter := NewLimiter(1, 0)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Permit ist weiterhin nutzbar
	limiter.Release()
	require.NoError(t, limiter.Acquire(context.Background()))
	limiter.Release()
}

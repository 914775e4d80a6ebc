package retry

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/config"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
)

type retryCounter struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	retries map[string]int
}

func (r *retryCounter) IncRetry(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[op]++
}

func newTestRetrier(maxRetries int, rec metrics.Recorder) (*Retrier, *[]time.Duration) {
	r := New(NewPolicy(config.RetryConfig{Backoff: config.RetryBackoffLinear, Initial: 10 * time.Millisecond, Max: time.Second, MaxRetries: &maxRetries}), rec)
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return r, &slept
}

func transient() error {
	return errors.NetworkError("connection reset").Retryable().Build()
}

func TestDoRetriesTransientErrors(t *testing.T) {
	rec := &retryCounter{retries: map[string]int{}}
	r, slept := newTestRetrier(3, rec)
	calls := 0

	got, err := Do(context.Background(), r, "post", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", transient()
		}
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
	require.Equal(t, 2, rec.retries["post"])
}

func TestDoStopsOnPermanentError(t *testing.T) {
	r, slept := newTestRetrier(3, nil)
	calls := 0
	permanent := stderrors.New("bad request")

	_, err := Do(context.Background(), r, "post", func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
	require.Empty(t, *slept)
}

func TestDoGivesUp(t *testing.T) {
	r, _ := newTestRetrier(2, nil)
	calls := 0

	_, err := Do(context.Background(), r, "fetch", func(context.Context) (int, error) {
		calls++
		return 0, transient()
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch failed after 2 retries")
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.Equal(t, 3, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	r, _ := newTestRetrier(5, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, r, "fetch", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, transient()
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

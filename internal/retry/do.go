package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/metrics"
)

// Retrier runs operations under a policy. Only errors classified as
// retryable are attempted again.
type Retrier struct {
	policy   Policy
	recorder metrics.Recorder
	sleep    func(ctx context.Context, d time.Duration) error
}

// New returns a retrier. A nil recorder records nothing.
func New(policy Policy, recorder metrics.Recorder) *Retrier {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Retrier{policy: policy, recorder: recorder, sleep: sleepContext}
}

// Do calls fn until it succeeds, fails permanently or the retries run out.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying operation", slog.String("operation", op), slog.Int("attempt", attempt), slog.String("error", lastErr.Error()))
			r.recorder.IncRetry(op)
			if err := r.sleep(ctx, r.policy.Delay(attempt)); err != nil {
				return zero, err
			}
		}
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !errors.IsRetryable(err) {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%s failed after %d retries: %w", op, r.policy.MaxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

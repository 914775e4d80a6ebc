package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/catalogbuilder/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	require.Equal(t, Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
	}, DefaultPolicy())
}

func TestNewPolicyFromRetrySection(t *testing.T) {
	zero := 0
	p := NewPolicy(config.RetryConfig{Backoff: "EXPONENTIAL", Initial: time.Millisecond, Max: time.Second, MaxRetries: &zero})
	require.Equal(t, Policy{Mode: config.RetryBackoffExponential, Initial: time.Millisecond, Max: time.Second}, p)

	five := 5
	p = NewPolicy(config.RetryConfig{Backoff: config.RetryBackoffFixed, Initial: 5 * time.Second, Max: 2 * time.Second, MaxRetries: &five})
	require.Equal(t, 2*time.Second, p.Initial, "initial is clamped to max")
	require.Equal(t, 5, p.MaxRetries)

	negative := -1
	require.Equal(t, 0, NewPolicy(config.RetryConfig{MaxRetries: &negative}).MaxRetries)
	require.Equal(t, DefaultPolicy(), NewPolicy(config.RetryConfig{Backoff: "Sometimes"}))
}

func TestFixed(t *testing.T) {
	p := Fixed(time.Millisecond, 3)
	require.Equal(t, Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 3}, p)
}

func TestDelayModes(t *testing.T) {
	retries := 5
	section := func(mode config.RetryBackoffMode, initial, maxDelay time.Duration) Policy {
		return NewPolicy(config.RetryConfig{Backoff: mode, Initial: initial, Max: maxDelay, MaxRetries: &retries})
	}
	fixed := section(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond)
	linear := section(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond)
	exp := section(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond)

	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed first", fixed, 1, 100 * time.Millisecond},
		{"fixed third", fixed, 3, 100 * time.Millisecond},
		{"linear first", linear, 1, 100 * time.Millisecond},
		{"linear second", linear, 2, 200 * time.Millisecond},
		{"linear capped", linear, 3, 250 * time.Millisecond},
		{"exponential first", exp, 1, 50 * time.Millisecond},
		{"exponential second", exp, 2, 100 * time.Millisecond},
		{"exponential capped", exp, 3, 160 * time.Millisecond},
		{"exponential overflow", exp, 70, 160 * time.Millisecond},
		{"no retry", exp, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.policy.Delay(tt.attempt))
		})
	}
}

package config

import (
	"time"

	"git.home.luguber.info/inful/catalogbuilder/internal/foundation"
	"git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = foundation.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// RetryConfig governs retries of catalog API posts and rollup fetches.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries *int             `yaml:"max_retries"`
}

// Retries returns the configured retry count.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return 2
	}
	return *r.MaxRetries
}

func (r *RetryConfig) applyDefaults() {
	if r.Backoff == "" {
		r.Backoff = RetryBackoffLinear
	} else if mode := NormalizeRetryBackoff(string(r.Backoff)); mode != "" {
		r.Backoff = mode
	}
	if r.Initial == 0 {
		r.Initial = time.Second
	}
	if r.Max == 0 {
		r.Max = 30 * time.Second
	}
}

func (r RetryConfig) validate() error {
	if _, err := retryBackoffNormalizer.Parse(string(r.Backoff)); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid retry.backoff").
			WithContext("backoff", r.Backoff).
			Build()
	}
	if r.Initial < 0 || r.Max < 0 {
		return errors.ValidationError("retry durations cannot be negative").Build()
	}
	if r.Retries() < 0 {
		return errors.ValidationError("retry.max_retries cannot be negative").
			WithContext("max_retries", r.Retries()).
			Build()
	}
	return nil
}

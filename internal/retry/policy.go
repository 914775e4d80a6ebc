package retry

import (
	"time"

	"git.home.luguber.info/inful/catalogbuilder/internal/config"
)

// Policy is the backoff applied between attempts of a catalog post or a rollup fetch.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
}

// DefaultPolicy matches an empty retry section: linear from 1s, capped at 30s, two retries.
func DefaultPolicy() Policy {
	return NewPolicy(config.RetryConfig{})
}

// NewPolicy reads the retry section of the configuration file. Unset or unusable
// fields keep their defaults and Initial never exceeds Max.
func NewPolicy(cfg config.RetryConfig) Policy {
	p := Policy{
		Mode:       config.NormalizeRetryBackoff(string(cfg.Backoff)),
		Initial:    cfg.Initial,
		Max:        cfg.Max,
		MaxRetries: max(cfg.Retries(), 0),
	}
	if p.Mode == "" {
		p.Mode = config.RetryBackoffLinear
	}
	if p.Initial <= 0 {
		p.Initial = time.Second
	}
	if p.Max <= 0 {
		p.Max = 30 * time.Second
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// Fixed retries up to maxRetries times, waiting d before each retry.
func Fixed(d time.Duration, maxRetries int) Policy {
	return NewPolicy(config.RetryConfig{Backoff: config.RetryBackoffFixed, Initial: d, Max: d, MaxRetries: &maxRetries})
}

// Delay is the wait before retry number n, counting from 1.
func (p Policy) Delay(n int) time.Duration {
	var d time.Duration
	switch {
	case n <= 0:
		return 0
	case p.Mode == config.RetryBackoffFixed:
		d = p.Initial
	case p.Mode == config.RetryBackoffExponential:
		shift := n - 1
		if shift >= 62 || p.Initial > p.Max>>shift {
			return p.Max
		}
		d = p.Initial << shift
	default:
		d = time.Duration(n) * p.Initial
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

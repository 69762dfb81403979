// Package retry replays units of work that failed with a transient storage
// conflict. Every other error is returned on the first attempt.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/stondral/tsew-sub002/pkg/config"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
)

const (
	defaultAttempts = 3
	defaultBase     = 50 * time.Millisecond
	defaultMax      = time.Second
)

// Retryable marks an error as safe to replay.
type Retryable struct {
	Err error
}

func (r *Retryable) Error() string {
	if r == nil || r.Err == nil {
		return "retryable error"
	}
	return r.Err.Error()
}

func (r *Retryable) Unwrap() error {
	if r == nil {
		return nil
	}
	return r.Err
}

// Mark wraps err as Retryable. nil stays nil.
func Mark(err error) error {
	if err == nil {
		return nil
	}
	return &Retryable{Err: err}
}

// IsRetryable reports whether err was marked Retryable or carries the
// write-conflict code.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r *Retryable
	if errors.As(err, &r) {
		return true
	}
	return pkgerrors.Is(err, pkgerrors.CodeWriteConflict)
}

// Policy bounds the number of attempts and the backoff between them.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
	// OnRetry is called before each wait with the 1-based attempt that failed.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy is three attempts starting at 50ms.
func DefaultPolicy() Policy {
	return Policy{Attempts: defaultAttempts, Base: defaultBase, Max: defaultMax}
}

// PolicyFromConfig fills zero values from DefaultPolicy.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.Attempts = cfg.MaxAttempts
	}
	if cfg.BaseBackoff > 0 {
		p.Base = cfg.BaseBackoff
	}
	if cfg.MaxBackoff > 0 {
		p.Max = cfg.MaxBackoff
	}
	return p
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return defaultAttempts
	}
	return p.Attempts
}

func (p Policy) backoff() goretry.Backoff {
	base := p.Base
	if base <= 0 {
		base = defaultBase
	}
	b := goretry.NewExponential(base)
	if p.Max > 0 {
		b = goretry.WithCappedDuration(p.Max, b)
	}
	return goretry.WithMaxRetries(uint64(p.attempts()-1), b)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the policy
// is exhausted. The last error is returned unchanged.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	attempt := 0
	return goretry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if policy.OnRetry != nil && attempt < policy.attempts() {
			policy.OnRetry(attempt, err)
		}
		return goretry.RetryableError(err)
	})
}

package infra

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy describes how a failing call is retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt; 0 disables retrying.
	MaxRetries int
	// Initial is the first backoff delay; zero retries immediately.
	Initial time.Duration
	// Max caps a single backoff delay. Defaults to 10s.
	Max time.Duration
	// Retryable reports whether err is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
}

// Retry calls op until it succeeds, the policy is exhausted, a non-retryable
// error is returned, or ctx is done. notify, when non-nil, is called before each wait.
func Retry[T any](ctx context.Context, p RetryPolicy, op func() (T, error), notify func(err error, wait time.Duration)) (T, error) {
	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxRetries) + 1),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(notify))
	}

	v, err := backoff.Retry(ctx, wrapped, opts...)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	return v, err
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.Initial <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	if b.MaxInterval <= 0 {
		b.MaxInterval = 10 * time.Second
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	return b
}

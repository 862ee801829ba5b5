package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config tunes the exponential backoff
type Config struct {
	// MaxRetries is the number of retries after the initial attempt
	MaxRetries int
	// InitialInterval is the first backoff wait
	InitialInterval time.Duration
	// MaxInterval caps the backoff wait
	MaxInterval time.Duration
	// Multiplier grows the interval between attempts
	Multiplier float64
	// JitterFactor (0..1) randomizes each wait to spread reconnect storms
	JitterFactor float64
}

// DefaultConfig retries five times: 1s, 2s, 4s, 8s, 16s
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

func (c *Config) normalized() *Config {
	out := *c
	if out.InitialInterval <= 0 {
		out.InitialInterval = 1 * time.Second
	}
	if out.MaxInterval <= 0 {
		out.MaxInterval = 30 * time.Second
	}
	if out.Multiplier <= 0 {
		out.Multiplier = 2.0
	}
	if out.JitterFactor < 0 {
		out.JitterFactor = 0
	}
	if out.JitterFactor > 1 {
		out.JitterFactor = 1
	}
	return &out
}

// Operation is the function being retried
type Operation func(ctx context.Context) error

// RetryableError marks an error worth another attempt
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so Do keeps trying
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// PermanentError stops the retry loop immediately
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do gives up at once
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result reports how a retry loop ended
type Result struct {
	// Err is nil on success
	Err error
	// Attempts counts every call of the operation, the initial one included
	Attempts int
	// TotalDuration includes the backoff waits
	TotalDuration time.Duration
	// LastError is the error from the final attempt
	LastError error
}

// Do runs op until it succeeds, returns a permanent error, exhausts
// MaxRetries, or the context ends.
func Do(ctx context.Context, cfg *Config, op Operation) *Result {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.normalized()

	start := time.Now()
	result := &Result{}
	var lastErr error

	finish := func(err error) *Result {
		result.Err = err
		result.LastError = lastErr
		result.TotalDuration = time.Since(start)
		return result
	}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		if ctx.Err() != nil {
			return finish(ErrContextCanceled)
		}

		err := op(ctx)
		if err == nil {
			result.TotalDuration = time.Since(start)
			return result
		}
		lastErr = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			lastErr = permErr.Err
			return finish(permErr.Err)
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return finish(ErrContextCanceled)
		case <-time.After(backoff(cfg, attempt)):
		}
	}

	return finish(ErrMaxRetriesExceeded)
}

// backoff computes the wait before the next attempt
func backoff(cfg *Config, attempt int) time.Duration {
	interval := float64(cfg.InitialInterval) * math.Pow(cfg.Multiplier, float64(attempt))

	if cfg.JitterFactor > 0 {
		jitter := interval * cfg.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}

	if interval > float64(cfg.MaxInterval) {
		interval = float64(cfg.MaxInterval)
	}
	if interval < 0 {
		interval = float64(cfg.InitialInterval)
	}
	return time.Duration(interval)
}

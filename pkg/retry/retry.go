// Package retry repeats operations that fail for transient reasons, such as a
// Redis connection reset or an object store timing out.
//
// Only errors marked with [Transient] are retried; anything else is returned
// after the first attempt.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds a retry loop. The delay doubles after every failed attempt.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Default is three attempts starting at 100ms.
var Default = Policy{Attempts: 3, Delay: 100 * time.Millisecond}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with [Transient].
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Do runs fn until it succeeds, fails permanently or p.Attempts is used up.
// It returns the last error, or ctx.Err() when cancelled between attempts.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if lastErr = err; !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
			delay *= 2
		}
	}
	return lastErr
}

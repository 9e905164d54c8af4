// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

// Package retry provides a function for retrying an operation.
package retry

import (
	"context"
	"errors"
	"time"

	"zombiezen.com/go/log"
)

// A BackoffStrategy can be called repeatedly to obtain (presumably) increasing
// durations to wait between retries.
type BackoffStrategy interface {
	Duration() time.Duration
}

// Exponential is a BackoffStrategy that multiplies the wait by Factor after
// each attempt, up to Max. The zero value waits 100ms, doubling up to 10s.
// An Exponential must not be shared between concurrent calls to Do.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64

	next time.Duration
}

// Duration returns the next wait.
func (e *Exponential) Duration() time.Duration {
	if e.next == 0 {
		e.next = e.Initial
		if e.next <= 0 {
			e.next = 100 * time.Millisecond
		}
	}
	max := e.Max
	if max <= 0 {
		max = 10 * time.Second
	}
	factor := e.Factor
	if factor < 1 {
		factor = 2
	}
	d := e.next
	if d > max {
		d = max
	}
	e.next = time.Duration(float64(d) * factor)
	return d
}

// Reset makes the next call to Duration return the initial wait.
func (e *Exponential) Reset() {
	e.next = 0
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do returns it without further attempts.
// Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// Do calls a function repeatedly with the strategy's backoff until it returns
// a nil error. Do returns an error only if the passed-in function does not
// return nil before the Context is Done, or if the function returns an error
// created by Permanent. The function is guaranteed to be called at least once.
//
// The operation should be a verb phrase like "fetching configuration" for
// logging.
func Do(ctx context.Context, operation string, strategy BackoffStrategy, f func() error) error {
	var t *time.Timer
	for attempt := 1; ; attempt++ {
		err := f()
		if err == nil {
			if attempt > 1 {
				log.Debugf(ctx, "Succeeded %s after %d attempts", operation, attempt)
			}
			return nil
		}
		if errors.As(err, new(permanentError)) {
			return err
		}
		d := strategy.Duration()
		if d <= 0 {
			log.Warnf(ctx, "Error %s (will retry): %v", operation, err)
			select {
			case <-ctx.Done():
				return err
			default:
			}
			continue
		}
		log.Warnf(ctx, "Error %s (will retry in %v): %v", operation, d, err)
		if t == nil {
			t = time.NewTimer(d)
			defer t.Stop()
		} else {
			t.Reset(d)
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return err
		}
	}
}

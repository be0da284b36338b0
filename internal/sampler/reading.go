package sampler

import (
	"errors"
	"fmt"
)

// ErrUnavailable is the single failure class every probe reports: the OS
// query failed or returned nothing usable.
var ErrUnavailable = errors.New("probe unavailable")

// Reading is what a probe returns. When Err is non-nil the probe took its
// fallback path and Err says why; Value is then the probe's documented
// default, or for the network probe the rates it could still compute.
type Reading[T any] struct {
	Value T
	Err   error
}

// Degraded reports whether the fallback path was taken.
func (r Reading[T]) Degraded() bool { return r.Err != nil }

func ok[T any](v T) Reading[T] { return Reading[T]{Value: v} }

func fallback[T any](v T, err error) Reading[T] { return Reading[T]{Value: v, Err: err} }

func unavailable(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, what, err)
}

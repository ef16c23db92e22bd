// Package source provides the wall clock capability consumed by the cluster clock.
package source

import (
	"context"
	"time"
)

// Source supplies wall clock readings. Implementations must be safe for
// concurrent use and must not block on I/O in Now; backward jumps are
// tolerated by consumers.
type Source interface {
	// Now returns the current wall clock time.
	Now() time.Time
	// String returns the name of the implementation.
	String() string
}

type Options struct {
	// Alternative options set by implementations.
	Context context.Context
}

type Option func(*Options)

// NewOptions returns options with defaults applied.
func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}

	for _, o := range opts {
		o(&options)
	}

	return options
}

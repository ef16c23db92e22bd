package clock

import (
	"context"
	"time"

	"github.com/micro/go-clock/logger"
	"github.com/micro/go-clock/proof"
	"github.com/micro/go-clock/source"
	"github.com/micro/go-clock/source/local"
)

type Options struct {
	// Source supplies wall clock readings
	Source source.Source
	// Proof signs and verifies logical times. Optional; without it the
	// clock runs unsigned and AdvanceClusterTime is unavailable.
	Proof proof.Provider
	// MaxDrift bounds how far in the future a peer time may be
	MaxDrift time.Duration
	// Logger used for clock events
	Logger *logger.Helper

	// Alternative options
	Context context.Context
}

type Option func(*Options)

// NewOptions returns options with defaults applied.
func NewOptions(opts ...Option) Options {
	options := Options{
		Source:   local.NewSource(),
		MaxDrift: DefaultMaxDrift,
		Logger:   logger.NewHelper(logger.DefaultLogger),
		Context:  context.Background(),
	}

	for _, o := range opts {
		o(&options)
	}

	return options
}

// Source sets the wall clock source.
func Source(s source.Source) Option {
	return func(o *Options) {
		o.Source = s
	}
}

// Proof sets the proof provider. Pass nil to run unsigned.
func Proof(p proof.Provider) Option {
	return func(o *Options) {
		o.Proof = p
	}
}

// MaxDrift sets the drift limit for peer supplied times.
func MaxDrift(d time.Duration) Option {
	return func(o *Options) {
		o.MaxDrift = d
	}
}

// Logger sets the logger.
func Logger(l *logger.Helper) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

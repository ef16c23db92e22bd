// Package proof provides the time authentication capability: signing
// logical times for distribution and verifying times received from peers.
package proof

import (
	"context"
	"errors"

	"github.com/micro/go-clock/logical"
)

var (
	// ErrInvalidProof is returned when a proof does not match its time
	ErrInvalidProof = errors.New("invalid time proof")
	// ErrUnknownKey is returned when a proof references an unknown key id
	ErrUnknownKey = errors.New("unknown proof key")
	// ErrNoSigningKey is returned when the provider has no key to sign with
	ErrNoSigningKey = errors.New("no signing key configured")
)

// Provider signs and verifies logical times
type Provider interface {
	Sign(t logical.Time) (logical.SignedTime, error)
	Verify(st logical.SignedTime) error
	String() string
}

type Options struct {
	// PrivateKey is a base64 encoded PEM key used for signing
	PrivateKey string
	// PublicKey is a base64 encoded PEM key used for verification
	PublicKey string
	// Alternative options set by implementations
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

// WithPrivateKey sets the base64 encoded PEM signing key
func WithPrivateKey(key string) Option {
	return func(o *Options) {
		o.PrivateKey = key
	}
}

// WithPublicKey sets the base64 encoded PEM verification key
func WithPublicKey(key string) Option {
	return func(o *Options) {
		o.PublicKey = key
	}
}

// Package noop provides a proof provider that accepts everything
package noop

import (
	"github.com/micro/go-clock/logical"
	"github.com/micro/go-clock/proof"
)

type noopProvider struct{}

func (n *noopProvider) Sign(t logical.Time) (logical.SignedTime, error) {
	return logical.SignedTime{Time: t}, nil
}

func (n *noopProvider) Verify(st logical.SignedTime) error {
	return nil
}

func (n *noopProvider) String() string {
	return "noop"
}

// NewProvider returns a provider that signs with empty proofs and
// verifies any proof. Useful for tests and single node deployments.
func NewProvider(opts ...proof.Option) proof.Provider {
	return new(noopProvider)
}

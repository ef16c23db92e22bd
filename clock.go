// Package clock provides the cluster wide logical clock. Every node runs
// one clock instance; writes and cross node messages are stamped with
// values minted by ReserveTicks, and times received from peers are
// validated and adopted through the advance operations so that cluster
// time never goes backward anywhere.
package clock

import (
	"errors"
	"time"

	"github.com/micro/go-clock/logical"
)

var (
	// ErrClusterTimeFailsRateLimiter is returned when a peer supplied
	// time is further in the future than the drift limit permits.
	ErrClusterTimeFailsRateLimiter = errors.New("cluster time fails rate limiter")
	// ErrCannotVerifyAndSignLogicalTime is returned when an operation
	// needs the proof provider and none is configured, or the provider
	// rejects the proof.
	ErrCannotVerifyAndSignLogicalTime = errors.New("cannot verify and sign logical time")
)

// DefaultMaxDrift is how far in the future a peer supplied time may be
// before the rate limiter rejects it.
const DefaultMaxDrift = 365 * 24 * time.Hour

// Clock maintains the cluster time for a node.
type Clock interface {
	// Init swaps options, e.g. collaborators in tests
	Init(...Option) error
	// Options returns the current options
	Options() Options
	// ClusterTime returns a signed snapshot of the current cluster time
	ClusterTime() logical.SignedTime
	// ReserveTicks mints n fresh logical times for local use and
	// returns the first of them
	ReserveTicks(n uint32) logical.Time
	// InitClusterTime unconditionally sets the cluster time. Bootstrap
	// only: it skips every safety check and may move time backward.
	InitClusterTime(t logical.Time)
	// AdvanceClusterTime verifies, rate limits and adopts a peer time
	AdvanceClusterTime(st logical.SignedTime) error
	// AdvanceClusterTimeFromTrustedSource adopts a peer time from an
	// already authenticated channel, still applying the rate limiter
	AdvanceClusterTimeFromTrustedSource(st logical.SignedTime) error
	// SignAndAdvanceClusterTime signs a locally originated time and
	// adopts it for later distribution to peers
	SignAndAdvanceClusterTime(t logical.Time) error
	// String returns the name of the implementation
	String() string
}

// NewClock returns the default atomic clock implementation.
func NewClock(opts ...Option) Clock {
	return newAtomicClock(opts...)
}

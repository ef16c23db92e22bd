package clock

import (
	"sync/atomic"

	"github.com/micro/go-clock/logical"
	"github.com/pkg/errors"
)

// atomicClock keeps the cluster time in a single uint64 word, seconds in
// the high half and ordinal in the low half, so the whole value can be
// advanced with one compare and swap. Mutation never holds a lock and
// never happens while a collaborator call is in flight.
type atomicClock struct {
	state uint64

	opts Options
}

func newAtomicClock(opts ...Option) *atomicClock {
	return &atomicClock{
		opts: NewOptions(opts...),
	}
}

func pack(t logical.Time) uint64 {
	return uint64(t.Seconds())<<32 | uint64(t.Ordinal())
}

func unpack(v uint64) logical.Time {
	return logical.NewTime(uint32(v>>32), uint32(v))
}

func (c *atomicClock) Init(opts ...Option) error {
	for _, o := range opts {
		o(&c.opts)
	}
	return nil
}

func (c *atomicClock) Options() Options {
	return c.opts
}

func (c *atomicClock) ClusterTime() logical.SignedTime {
	t := unpack(atomic.LoadUint64(&c.state))

	if c.opts.Proof == nil {
		return logical.SignedTime{Time: t}
	}

	st, err := c.opts.Proof.Sign(t)
	if err != nil {
		// still hand out the time, just unsigned
		c.opts.Logger.Warnf("signing cluster time %v failed: %v", t, err)
		return logical.SignedTime{Time: t}
	}

	return st
}

func (c *atomicClock) ReserveTicks(n uint32) logical.Time {
	if n == 0 || n > logical.MaxOrdinal {
		panic("clock: tick reservation out of range")
	}

	for {
		old := atomic.LoadUint64(&c.state)
		cur := unpack(old)

		base := cur
		wall := logical.FromTime(c.opts.Source.Now())

		if wall.Seconds() > cur.Seconds() {
			// wall clock progress dominates a stale logical second
			base = wall
		} else if uint64(cur.Ordinal())+uint64(n) > uint64(logical.MaxOrdinal) {
			// the reservation would not fit in this second
			c.opts.Logger.Warnf("cluster time ordinal is at %d, moving to the next second", cur.Ordinal())
			base = logical.NewTime(cur.Seconds()+1, 0)
		}

		// the reserved range is base+1 through base+n
		if atomic.CompareAndSwapUint64(&c.state, old, pack(base.AddTicks(n))) {
			return base.AddTicks(1)
		}
	}
}

func (c *atomicClock) InitClusterTime(t logical.Time) {
	atomic.StoreUint64(&c.state, pack(t))
}

func (c *atomicClock) AdvanceClusterTime(st logical.SignedTime) error {
	if c.opts.Proof == nil {
		return ErrCannotVerifyAndSignLogicalTime
	}
	if err := c.opts.Proof.Verify(st); err != nil {
		return errors.WithMessage(ErrCannotVerifyAndSignLogicalTime, err.Error())
	}

	return c.rateLimitAndAdvance(st.Time)
}

func (c *atomicClock) AdvanceClusterTimeFromTrustedSource(st logical.SignedTime) error {
	return c.rateLimitAndAdvance(st.Time)
}

func (c *atomicClock) SignAndAdvanceClusterTime(t logical.Time) error {
	if c.opts.Proof != nil {
		if _, err := c.opts.Proof.Sign(t); err != nil {
			return errors.WithMessage(ErrCannotVerifyAndSignLogicalTime, err.Error())
		}
	}

	c.advance(t)
	return nil
}

func (c *atomicClock) rateLimitAndAdvance(t logical.Time) error {
	wall := logical.FromTime(c.opts.Source.Now())
	if !passesRateLimiter(t, wall, c.opts.MaxDrift) {
		return errors.WithMessagef(ErrClusterTimeFailsRateLimiter,
			"new time %v is too far from the wall clock %v", t, wall)
	}

	c.advance(t)
	return nil
}

// advance moves the state up to t. An older or equal t is a no-op: the
// merge is monotonic and never finishes below a concurrently installed
// larger value.
func (c *atomicClock) advance(t logical.Time) {
	for {
		old := atomic.LoadUint64(&c.state)
		if !t.After(unpack(old)) {
			return
		}
		if atomic.CompareAndSwapUint64(&c.state, old, pack(t)) {
			return
		}
	}
}

func (c *atomicClock) String() string {
	return "atomic"
}

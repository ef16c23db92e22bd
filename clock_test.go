package clock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/micro/go-clock/logical"
	"github.com/micro/go-clock/proof"
	"github.com/micro/go-clock/proof/hmac"
	"github.com/micro/go-clock/source/mock"
)

func testProvider(t *testing.T) proof.Provider {
	t.Helper()

	p, err := hmac.NewProvider(
		hmac.WithKeys(map[int64][]byte{1: []byte("test key material, 32 bytes long")}),
		hmac.WithCurrentKey(1),
	)
	if err != nil {
		t.Fatalf("creating proof provider: %v", err)
	}
	return p
}

func testClock(t *testing.T) (Clock, *mock.Source, proof.Provider) {
	t.Helper()

	src := mock.NewSource()
	p := testProvider(t)
	return NewClock(Source(src), Proof(p)), src, p
}

func signTime(t *testing.T, p proof.Provider, lt logical.Time) logical.SignedTime {
	t.Helper()

	st, err := p.Sign(lt)
	if err != nil {
		t.Fatalf("signing %v: %v", lt, err)
	}
	return st
}

// Check that the initial time does not change during clock creation.
func TestRoundTrip(t *testing.T) {
	clk, _, _ := testClock(t)

	lt := logical.NewTime(1, 0)
	clk.InitClusterTime(lt)

	if stored := clk.ClusterTime(); stored.Time != lt {
		t.Errorf("got %v, expected %v", stored.Time, lt)
	}
}

// Verify the reserve ticks functionality.
func TestReserveTicks(t *testing.T) {
	clk, src, _ := testClock(t)

	// Set clock to a non-zero time, so we can verify wall clock
	// synchronization.
	src.Set(time.Unix(10, 0))

	t1 := clk.ReserveTicks(1)
	if t2 := clk.ClusterTime(); t1 != t2.Time {
		t.Errorf("got %v, expected %v", t2.Time, t1)
	}

	// Make sure we synchronized with the wall clock.
	if secs := clk.ClusterTime().Time.Seconds(); secs != 10 {
		t.Errorf("got second %d, expected 10", secs)
	}

	t3 := clk.ReserveTicks(1)
	t1 = t1.AddTicks(1)
	if t3 != t1 {
		t.Errorf("got %v, expected %v", t3, t1)
	}

	t3 = clk.ReserveTicks(100)
	t1 = t1.AddTicks(1)
	if t3 != t1 {
		t.Errorf("got %v, expected %v", t3, t1)
	}

	t3 = clk.ReserveTicks(1)
	t1 = t1.AddTicks(100)
	if t3 != t1 {
		t.Errorf("got %v, expected %v", t3, t1)
	}

	// Ensure overflow to a new second.
	initTimeSecs := clk.ClusterTime().Time.Seconds()
	clk.ReserveTicks(logical.MaxOrdinal)
	newTimeSecs := clk.ClusterTime().Time.Seconds()
	if newTimeSecs != initTimeSecs+1 {
		t.Errorf("got second %d, expected %d", newTimeSecs, initTimeSecs+1)
	}
}

// Verify the advanceClusterTime functionality.
func TestAdvanceClusterTime(t *testing.T) {
	clk, _, p := testClock(t)

	t1 := clk.ReserveTicks(1)
	l1 := signTime(t, p, t1.AddTicks(100))
	if err := clk.AdvanceClusterTimeFromTrustedSource(l1); err != nil {
		t.Fatalf("advance returned %v, expected nil", err)
	}
	if l2 := clk.ClusterTime(); l1.Time != l2.Time {
		t.Errorf("got %v, expected %v", l2.Time, l1.Time)
	}
}

// Verify rate limiter rejects logical times whose seconds values are too
// far ahead, authenticated or not.
func TestRateLimiterRejectsTimesTooFarAhead(t *testing.T) {
	clk, src, p := testClock(t)
	src.Set(time.Unix(10, 0))

	driftSecs := uint32(DefaultMaxDrift / time.Second)
	// Add 10 seconds to ensure the limit is exceeded.
	tooFarAhead := logical.NewTime(10+driftSecs+10, 1)
	l1 := signTime(t, p, tooFarAhead)

	if err := clk.AdvanceClusterTime(l1); !errors.Is(err, ErrClusterTimeFailsRateLimiter) {
		t.Errorf("AdvanceClusterTime returned %v, expected %v", err, ErrClusterTimeFailsRateLimiter)
	}
	if err := clk.AdvanceClusterTimeFromTrustedSource(l1); !errors.Is(err, ErrClusterTimeFailsRateLimiter) {
		t.Errorf("AdvanceClusterTimeFromTrustedSource returned %v, expected %v", err, ErrClusterTimeFailsRateLimiter)
	}
}

// Verify cluster time can be initialized to a very old time.
func TestInitCanAcceptVeryOldTime(t *testing.T) {
	clk, src, _ := testClock(t)

	driftSecs := int64(DefaultMaxDrift / time.Second)
	src.Set(time.Unix(driftSecs*10, 0))

	veryOldTime := logical.NewTime(uint32(driftSecs*10-driftSecs*5), 0)
	clk.InitClusterTime(veryOldTime)

	if got := clk.ClusterTime(); got.Time != veryOldTime {
		t.Errorf("got %v, expected %v", got.Time, veryOldTime)
	}
}

// A clock with no proof provider should reject new times in
// AdvanceClusterTime, and accept them again once a provider is restored.
func TestAdvanceFailsWithoutProofProvider(t *testing.T) {
	clk, _, p := testClock(t)

	initialTime := logical.NewTime(10, 0)
	clk.InitClusterTime(initialTime)

	if err := clk.Init(Proof(nil)); err != nil {
		t.Fatalf("Init returned %v, expected nil", err)
	}

	l1 := signTime(t, p, logical.NewTime(100, 0))
	if err := clk.AdvanceClusterTime(l1); !errors.Is(err, ErrCannotVerifyAndSignLogicalTime) {
		t.Errorf("AdvanceClusterTime returned %v, expected %v", err, ErrCannotVerifyAndSignLogicalTime)
	}
	if got := clk.ClusterTime(); got.Time != initialTime {
		t.Errorf("got %v, expected unchanged %v", got.Time, initialTime)
	}

	if err := clk.Init(Proof(p)); err != nil {
		t.Fatalf("Init returned %v, expected nil", err)
	}

	l2 := signTime(t, p, logical.NewTime(200, 0))
	if err := clk.AdvanceClusterTime(l2); err != nil {
		t.Fatalf("AdvanceClusterTime returned %v, expected nil", err)
	}
	if got := clk.ClusterTime(); got.Time != l2.Time {
		t.Errorf("got %v, expected %v", got.Time, l2.Time)
	}
}

// A clock with no proof provider can still advance its time through
// certain methods.
func TestCertainMethodsCanAdvanceWithoutProofProvider(t *testing.T) {
	src := mock.NewSource()
	clk := NewClock(Source(src))

	t1 := logical.NewTime(100, 0)
	clk.InitClusterTime(t1)
	if got := clk.ClusterTime(); got.Time != t1 {
		t.Errorf("got %v, expected %v", got.Time, t1)
	}

	t2 := clk.ReserveTicks(1)
	if got := clk.ClusterTime(); got.Time != t2 {
		t.Errorf("got %v, expected %v", got.Time, t2)
	}

	t3 := logical.NewTime(300, 0)
	if err := clk.SignAndAdvanceClusterTime(t3); err != nil {
		t.Fatalf("SignAndAdvanceClusterTime returned %v, expected nil", err)
	}
	if got := clk.ClusterTime(); got.Time != t3 {
		t.Errorf("got %v, expected %v", got.Time, t3)
	}

	l4 := logical.SignedTime{Time: logical.NewTime(400, 0)}
	if err := clk.AdvanceClusterTimeFromTrustedSource(l4); err != nil {
		t.Fatalf("AdvanceClusterTimeFromTrustedSource returned %v, expected nil", err)
	}
	if got := clk.ClusterTime(); got.Time != l4.Time {
		t.Errorf("got %v, expected %v", got.Time, l4.Time)
	}
}

// Accepting an older or equal time is a successful no-op.
func TestAdvanceIsNoOpOnStaleTime(t *testing.T) {
	clk, _, p := testClock(t)

	cur := logical.NewTime(100, 50)
	clk.InitClusterTime(cur)

	for _, stale := range []logical.Time{
		logical.NewTime(100, 50),
		logical.NewTime(100, 49),
		logical.NewTime(99, 100),
	} {
		if err := clk.AdvanceClusterTime(signTime(t, p, stale)); err != nil {
			t.Fatalf("advancing to stale %v returned %v, expected nil", stale, err)
		}
		if got := clk.ClusterTime(); got.Time != cur {
			t.Errorf("got %v, expected unchanged %v", got.Time, cur)
		}
	}
}

// N goroutines reserving one tick each advance the ordinal by exactly N
// and never receive the same value twice.
func TestReserveTicksDisjointUnderConcurrency(t *testing.T) {
	clk, _, _ := testClock(t)
	clk.InitClusterTime(logical.NewTime(100, 0))

	n := 64
	results := make([]logical.Time, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = clk.ReserveTicks(1)
		}(i)
	}
	wg.Wait()

	seen := make(map[logical.Time]bool, n)
	for _, r := range results {
		if seen[r] {
			t.Errorf("time %v was issued twice", r)
		}
		seen[r] = true
	}

	if got := clk.ClusterTime(); got.Time != logical.NewTime(100, uint32(n)) {
		t.Errorf("got %v, expected %v", got.Time, logical.NewTime(100, uint32(n)))
	}
}

// A reader racing mixed writers never observes time going backward.
func TestClusterTimeIsMonotonicUnderConcurrency(t *testing.T) {
	clk, _, _ := testClock(t)
	clk.InitClusterTime(logical.NewTime(100, 0))

	done := make(chan bool)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				switch w % 2 {
				case 0:
					clk.ReserveTicks(uint32(1 + i%5))
				case 1:
					st := logical.SignedTime{Time: logical.NewTime(100, uint32(i))}
					clk.AdvanceClusterTimeFromTrustedSource(st)
				}
			}
		}(w)
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	last := clk.ClusterTime().Time
	for {
		select {
		case <-done:
			return
		default:
		}

		cur := clk.ClusterTime().Time
		if cur.Before(last) {
			t.Fatalf("cluster time went backward from %v to %v", last, cur)
		}
		last = cur
	}
}

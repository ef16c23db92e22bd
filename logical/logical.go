// Package logical provides the cluster logical time value types.
package logical

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxOrdinal is the largest value the ordinal component may hold.
// Advancing an ordinal past it carries into the seconds component.
const MaxOrdinal uint32 = 1<<31 - 1

// Time is a cluster-wide logical time value: a wall clock second paired
// with an ordinal counter ordering events within that second. The zero
// value is the unset sentinel. Time is immutable and passed by value.
type Time struct {
	seconds uint32
	ordinal uint32
}

// NewTime returns the logical time for the given second and ordinal.
// An ordinal beyond MaxOrdinal carries into the seconds component.
func NewTime(seconds, ordinal uint32) Time {
	return Time{seconds: seconds}.AddTicks(ordinal)
}

// FromTime converts a wall clock reading to a logical time at ordinal zero.
func FromTime(t time.Time) Time {
	return Time{seconds: uint32(t.Unix())}
}

// Seconds returns the wall clock second component.
func (t Time) Seconds() uint32 {
	return t.seconds
}

// Ordinal returns the counter component within the second.
func (t Time) Ordinal() uint32 {
	return t.ordinal
}

// AddTicks returns the time advanced by n ticks. When the ordinal would
// pass MaxOrdinal the seconds component is bumped by exactly one and the
// ordinal keeps the remainder.
func (t Time) AddTicks(n uint32) Time {
	sum := uint64(t.ordinal) + uint64(n)
	if sum <= uint64(MaxOrdinal) {
		return Time{seconds: t.seconds, ordinal: uint32(sum)}
	}
	return Time{seconds: t.seconds + 1, ordinal: uint32(sum & uint64(MaxOrdinal))}
}

// Compare orders two logical times, seconds first, then ordinal.
// It returns -1 if t is older than o, 0 if equal and 1 if newer.
func (t Time) Compare(o Time) int {
	switch {
	case t.seconds < o.seconds:
		return -1
	case t.seconds > o.seconds:
		return 1
	case t.ordinal < o.ordinal:
		return -1
	case t.ordinal > o.ordinal:
		return 1
	}
	return 0
}

// After reports whether t is strictly newer than o.
func (t Time) After(o Time) bool {
	return t.Compare(o) > 0
}

// Before reports whether t is strictly older than o.
func (t Time) Before(o Time) bool {
	return t.Compare(o) < 0
}

// IsZero reports whether t is the unset sentinel.
func (t Time) IsZero() bool {
	return t.seconds == 0 && t.ordinal == 0
}

func (t Time) String() string {
	return fmt.Sprintf("%d.%d", t.seconds, t.ordinal)
}

type timeJSON struct {
	Seconds uint32 `json:"seconds"`
	Ordinal uint32 `json:"ordinal"`
}

// MarshalJSON encodes the time as {"seconds":s,"ordinal":o}.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeJSON{Seconds: t.seconds, Ordinal: t.ordinal})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (t *Time) UnmarshalJSON(b []byte) error {
	var v timeJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = NewTime(v.Seconds, v.Ordinal)
	return nil
}

// Proof is an opaque authentication tag over a logical time, produced
// and checked by a proof provider.
type Proof []byte

// SignedTime couples a logical time with its proof of origin and the id
// of the key that produced it. It is constructed, passed and discarded
// per call; an empty proof marks an unsigned snapshot.
type SignedTime struct {
	Time  Time  `json:"time"`
	Proof Proof `json:"proof,omitempty"`
	KeyID int64 `json:"keyId,omitempty"`
}

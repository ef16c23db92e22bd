// Package mock provides a settable wall clock source for testing
package mock

import (
	"sync"
	"time"

	"github.com/micro/go-clock/source"
)

// Source is a frozen wall clock that only moves when told to. It starts
// at the unix epoch.
type Source struct {
	sync.RWMutex
	now time.Time
}

func (s *Source) Now() time.Time {
	s.RLock()
	defer s.RUnlock()
	return s.now
}

func (s *Source) String() string {
	return "mock"
}

// Set pins the clock to the given time.
func (s *Source) Set(t time.Time) {
	s.Lock()
	s.now = t
	s.Unlock()
}

// Advance moves the clock forward by d.
func (s *Source) Advance(d time.Duration) {
	s.Lock()
	s.now = s.now.Add(d)
	s.Unlock()
}

// NewSource returns a mock source pinned to the unix epoch.
func NewSource(opts ...source.Option) *Source {
	return &Source{now: time.Unix(0, 0)}
}

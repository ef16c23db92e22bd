// Package local provides the system wall clock
package local

import (
	"time"

	"github.com/micro/go-clock/source"
)

type localSource struct{}

func (l *localSource) Now() time.Time {
	return time.Now()
}

func (l *localSource) String() string {
	return "local"
}

// NewSource returns a source backed by the system clock.
func NewSource(opts ...source.Option) source.Source {
	return new(localSource)
}

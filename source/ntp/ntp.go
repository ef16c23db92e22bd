// Package ntp provides an NTP disciplined wall clock source
package ntp

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/micro/go-clock/logger"
	"github.com/micro/go-clock/source"
)

const (
	// DefaultServer is queried when no server option is given.
	DefaultServer = "time.google.com"
	// DefaultInterval is how long an offset is trusted before a resync.
	DefaultInterval = 15 * time.Minute
)

type ntpServerKey struct{}
type ntpIntervalKey struct{}

// ntpSource applies a cached NTP offset to the local clock. Reads never
// touch the network; a stale offset triggers a resync off the read path.
type ntpSource struct {
	sync.RWMutex
	server   string
	interval time.Duration
	query    func(server string) (*ntp.Response, error)

	offset   time.Duration
	lastSync time.Time
	syncing  bool
}

func (n *ntpSource) Now() time.Time {
	n.RLock()
	offset := n.offset
	stale := time.Since(n.lastSync) > n.interval
	syncing := n.syncing
	n.RUnlock()

	if stale && !syncing {
		go n.resync()
	}

	return time.Now().Add(offset)
}

func (n *ntpSource) String() string {
	return "ntp"
}

func (n *ntpSource) resync() {
	n.Lock()
	if n.syncing {
		n.Unlock()
		return
	}
	n.syncing = true
	n.Unlock()

	rsp, err := n.query(n.server)

	n.Lock()
	defer n.Unlock()

	n.syncing = false
	// back off until the next interval even on failure
	n.lastSync = time.Now()

	if err != nil {
		logger.Warnf("ntp: query of %s failed: %v", n.server, err)
		return
	}
	if err := rsp.Validate(); err != nil {
		logger.Warnf("ntp: response from %s failed validation: %v", n.server, err)
		return
	}

	if n.offset != rsp.ClockOffset {
		logger.Debugf("ntp: offset against %s is now %v", n.server, rsp.ClockOffset)
	}
	n.offset = rsp.ClockOffset
}

// NewSource returns an NTP disciplined source. The first synchronisation
// happens before the source is returned; if it fails the source starts
// with a zero offset and retries on the next stale read.
func NewSource(opts ...source.Option) source.Source {
	options := source.NewOptions(opts...)

	n := &ntpSource{
		server:   DefaultServer,
		interval: DefaultInterval,
		query:    ntp.Query,
	}

	if k, ok := options.Context.Value(ntpServerKey{}).(string); ok {
		n.server = k
	}
	if d, ok := options.Context.Value(ntpIntervalKey{}).(time.Duration); ok {
		n.interval = d
	}

	n.resync()

	return n
}

// WithServer sets the ntp server
func WithServer(s string) source.Option {
	return func(o *source.Options) {
		if o.Context == nil {
			o.Context = context.Background()
		}
		o.Context = context.WithValue(o.Context, ntpServerKey{}, s)
	}
}

// WithInterval sets how often the offset is resynchronised
func WithInterval(d time.Duration) source.Option {
	return func(o *source.Options) {
		if o.Context == nil {
			o.Context = context.Background()
		}
		o.Context = context.WithValue(o.Context, ntpIntervalKey{}, d)
	}
}

package gossip

import (
	"context"
	"time"

	"github.com/google/uuid"
	clock "github.com/micro/go-clock"
	"github.com/micro/go-clock/broker"
	"github.com/micro/go-clock/broker/memory"
	"github.com/micro/go-clock/logger"
)

const (
	// DefaultTopic carries the time announcements
	DefaultTopic = "cluster.time"
	// DefaultInterval is how often the local time is announced
	DefaultInterval = time.Second
)

type Options struct {
	// Clock whose time is announced and advanced
	Clock clock.Clock
	// Broker carrying the announcements
	Broker broker.Broker
	// Node is this node's id, excluded from adoption
	Node string
	// Topic for announcements
	Topic string
	// Interval between announcements
	Interval time.Duration
	// Trusted uses the trusted source advance path, for brokers with
	// transport level authentication
	Trusted bool
	// Logger used for gossip events
	Logger *logger.Helper

	// Alternative options
	Context context.Context
}

type Option func(*Options)

// NewOptions returns options with defaults applied.
func NewOptions(opts ...Option) Options {
	options := Options{
		Clock:    clock.NewClock(),
		Broker:   memory.NewBroker(),
		Node:     uuid.New().String(),
		Topic:    DefaultTopic,
		Interval: DefaultInterval,
		Logger:   logger.NewHelper(logger.DefaultLogger),
		Context:  context.Background(),
	}

	for _, o := range opts {
		o(&options)
	}

	return options
}

// Clock sets the clock to gossip for.
func Clock(c clock.Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// Broker sets the broker announcements travel over.
func Broker(b broker.Broker) Option {
	return func(o *Options) {
		o.Broker = b
	}
}

// Node sets the node id.
func Node(id string) Option {
	return func(o *Options) {
		o.Node = id
	}
}

// Topic sets the announcement topic.
func Topic(t string) Option {
	return func(o *Options) {
		o.Topic = t
	}
}

// Interval sets how often the local time is announced.
func Interval(d time.Duration) Option {
	return func(o *Options) {
		o.Interval = d
	}
}

// Trusted adopts peer times without proof verification. Only for
// brokers that authenticate peers at the transport level.
func Trusted(b bool) Option {
	return func(o *Options) {
		o.Trusted = b
	}
}

// Logger sets the logger.
func Logger(l *logger.Helper) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

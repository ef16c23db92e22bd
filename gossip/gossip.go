// Package gossip distributes signed cluster time between nodes over a
// broker. Each node periodically announces its current time and adopts
// any newer time it hears, so idle nodes keep pace with busy ones.
package gossip

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/micro/go-clock/broker"
	"github.com/micro/go-clock/logical"
)

// envelope is the wire form of an announcement.
type envelope struct {
	// Node is the announcing node id, used to skip our own messages
	Node string `json:"node"`
	// Time is the announced signed cluster time
	Time  logical.Time  `json:"time"`
	Proof logical.Proof `json:"proof,omitempty"`
	KeyID int64         `json:"keyId,omitempty"`
}

type Gossip struct {
	opts Options

	sync.Mutex
	running bool
	sub     broker.Subscriber
	exit    chan bool
}

// Start connects the broker, subscribes to announcements and begins
// announcing the local cluster time.
func (g *Gossip) Start() error {
	g.Lock()
	defer g.Unlock()

	if g.running {
		return errors.New("already started")
	}

	if err := g.opts.Broker.Connect(); err != nil {
		return err
	}

	sub, err := g.opts.Broker.Subscribe(g.opts.Topic, g.handle)
	if err != nil {
		g.opts.Broker.Disconnect()
		return err
	}

	g.sub = sub
	g.exit = make(chan bool)
	g.running = true

	go g.announce()

	g.opts.Logger.Infof("gossip: node %s announcing on %s over %s every %v",
		g.opts.Node, g.opts.Topic, g.opts.Broker.String(), g.opts.Interval)

	return nil
}

// Stop ends announcing and disconnects the broker.
func (g *Gossip) Stop() error {
	g.Lock()
	defer g.Unlock()

	if !g.running {
		return nil
	}

	close(g.exit)
	g.sub.Unsubscribe()
	g.running = false

	return g.opts.Broker.Disconnect()
}

// announce publishes the current signed time until stopped.
func (g *Gossip) announce() {
	t := time.NewTicker(g.opts.Interval)
	defer t.Stop()

	for {
		select {
		case <-g.exit:
			return
		case <-t.C:
		}

		st := g.opts.Clock.ClusterTime()
		b, err := json.Marshal(envelope{
			Node:  g.opts.Node,
			Time:  st.Time,
			Proof: st.Proof,
			KeyID: st.KeyID,
		})
		if err != nil {
			g.opts.Logger.Errorf("gossip: marshaling announcement: %v", err)
			continue
		}

		msg := &broker.Message{
			Header: map[string]string{"node": g.opts.Node},
			Body:   b,
		}
		if err := g.opts.Broker.Publish(g.opts.Topic, msg); err != nil {
			g.opts.Logger.Warnf("gossip: publishing announcement: %v", err)
		}
	}
}

// handle adopts a peer announcement. Rejections are logged, never
// returned, so one bad peer cannot take down the subscription.
func (g *Gossip) handle(e broker.Event) error {
	var env envelope
	if err := json.Unmarshal(e.Message().Body, &env); err != nil {
		g.opts.Logger.Warnf("gossip: dropping malformed announcement: %v", err)
		return nil
	}

	// skip our own announcements
	if env.Node == g.opts.Node {
		return nil
	}

	st := logical.SignedTime{
		Time:  env.Time,
		Proof: env.Proof,
		KeyID: env.KeyID,
	}

	var err error
	if g.opts.Trusted {
		err = g.opts.Clock.AdvanceClusterTimeFromTrustedSource(st)
	} else {
		err = g.opts.Clock.AdvanceClusterTime(st)
	}
	if err != nil {
		g.opts.Logger.Warnf("gossip: rejecting time %v from node %s: %v", st.Time, env.Node, err)
	}

	return nil
}

// NewGossip returns a gossip over the given clock and broker.
func NewGossip(opts ...Option) *Gossip {
	return &Gossip{
		opts: NewOptions(opts...),
	}
}

// Package memory provides an in-process push channel for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"github.com/scrapable/preview-service/internal/preview"
	"github.com/scrapable/preview-service/internal/transport"
)

const subscriptionBuffer = 16

// Channel is an in-memory fan-out keyed by channel name. It models the
// transport's connection state: while disconnected, publishes are dropped
// and subscribe intents are queued until SetConnected(true).
type Channel struct {
	mu        sync.Mutex
	connected bool
	subs      map[string][]*subscription
	pending   []*subscription
}

// NewChannel returns a connected in-memory channel.
func NewChannel() *Channel {
	return &Channel{
		connected: true,
		subs:      map[string][]*subscription{},
	}
}

// SetConnected flips the simulated connection state. Reconnecting activates
// any queued subscribe intents.
func (c *Channel) SetConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = connected
	if !connected {
		return
	}
	for _, sub := range c.pending {
		c.subs[sub.name] = append(c.subs[sub.name], sub)
	}
	c.pending = nil
}

// Subscribe registers for messages on the named channel. While
// disconnected the intent is queued and becomes live on reconnect.
func (c *Channel) Subscribe(_ context.Context, name string) (transport.Subscription, error) {
	sub := &subscription{
		channel: c,
		name:    name,
		msgs:    make(chan preview.Message, subscriptionBuffer),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.subs[name] = append(c.subs[name], sub)
	} else {
		c.pending = append(c.pending, sub)
	}
	return &Subscription{inner: sub}, nil
}

// Publish delivers a message to every live subscriber of the named channel.
// Delivery is non-blocking; a full subscriber buffer drops the message.
func (c *Channel) Publish(name string, msg preview.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return
	}
	for _, sub := range c.subs[name] {
		select {
		case sub.msgs <- msg:
		default:
		}
	}
}

func (c *Channel) remove(target *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.subs[target.name]
	for i, sub := range live {
		if sub == target {
			c.subs[target.name] = append(live[:i], live[i+1:]...)
			break
		}
	}
	for i, sub := range c.pending {
		if sub == target {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
}

type subscription struct {
	channel   *Channel
	name      string
	msgs      chan preview.Message
	closeOnce sync.Once
}

// Subscription adapts the in-memory stream to the transport interface.
type Subscription struct {
	inner *subscription
}

// Messages returns the inbound stream.
func (s *Subscription) Messages() <-chan preview.Message {
	return s.inner.msgs
}

// Unsubscribe removes the subscriber and closes the stream, discarding any
// buffered messages.
func (s *Subscription) Unsubscribe(context.Context) error {
	s.inner.channel.remove(s.inner)
	s.inner.closeOnce.Do(func() {
		close(s.inner.msgs)
	})
	return nil
}

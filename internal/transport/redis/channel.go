// Package redis implements the push transport over Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/preview"
	"github.com/scrapable/preview-service/internal/transport"
)

const subscriptionBuffer = 16

// Channel subscribes to per-task Redis channels. Reconnects and
// resubscription after a dropped connection are handled by the go-redis
// pub/sub client.
type Channel struct {
	client *redis.Client
	logger *zap.Logger
}

// NewChannel wraps an existing Redis client.
func NewChannel(client *redis.Client, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{client: client, logger: logger}
}

// Subscribe opens a Redis subscription on the named channel and decodes
// payloads into push messages. Payloads that do not decode are dropped with
// a debug log; the backend owns the wire format.
func (c *Channel) Subscribe(ctx context.Context, name string) (transport.Subscription, error) {
	ps := c.client.Subscribe(ctx, name)
	if _, err := ps.Receive(ctx); err != nil {
		if closeErr := ps.Close(); closeErr != nil {
			c.logger.Warn("close redis subscription after failed receive", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("subscribe %q: %w", name, err)
	}

	sub := &Subscription{
		pubsub: ps,
		msgs:   make(chan preview.Message, subscriptionBuffer),
	}
	go sub.pump(c.logger)
	return sub, nil
}

// Subscription is one live Redis channel subscription.
type Subscription struct {
	pubsub    *redis.PubSub
	msgs      chan preview.Message
	closeOnce sync.Once
	closeErr  error
}

// Messages returns the decoded inbound stream.
func (s *Subscription) Messages() <-chan preview.Message {
	return s.msgs
}

// Unsubscribe closes the Redis subscription; the message stream closes once
// the pump drains.
func (s *Subscription) Unsubscribe(context.Context) error {
	s.closeOnce.Do(func() {
		if err := s.pubsub.Close(); err != nil {
			s.closeErr = fmt.Errorf("close redis subscription: %w", err)
		}
	})
	return s.closeErr
}

func (s *Subscription) pump(logger *zap.Logger) {
	defer close(s.msgs)
	for raw := range s.pubsub.Channel() {
		var msg preview.Message
		if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
			logger.Debug("discarding undecodable push message",
				zap.String("channel", raw.Channel),
				zap.Error(err),
			)
			continue
		}
		select {
		case s.msgs <- msg:
		default:
			logger.Warn("push message dropped, subscriber buffer full",
				zap.String("channel", raw.Channel),
				zap.String("task_id", msg.TaskID),
			)
		}
	}
}

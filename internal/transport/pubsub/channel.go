// Package pubsub implements the push transport over a Google Cloud Pub/Sub
// subscription shared by all tasks.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/preview"
	"github.com/scrapable/preview-service/internal/transport"
)

const (
	// channelAttribute carries the logical channel name on each message.
	channelAttribute = "channel"

	subscriptionBuffer = 16
)

// Channel multiplexes per-task logical channels over one Pub/Sub
// subscription. Messages are routed by their channel attribute; messages
// for channels with no local subscriber are acked and dropped. Redelivery
// and reconnect handling belong to the Pub/Sub client.
type Channel struct {
	client         *pubsub.Client
	subscriptionID string
	logger         *zap.Logger

	mu      sync.Mutex
	subs    map[string]*Subscription
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewChannel creates a Pub/Sub client and verifies the subscription exists.
func NewChannel(ctx context.Context, projectID, subscriptionID string, logger *zap.Logger) (*Channel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	exists, err := client.Subscription(subscriptionID).Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub subscription %q: %w", subscriptionID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub subscription %q does not exist in project %q", subscriptionID, projectID)
	}
	return &Channel{
		client:         client,
		subscriptionID: subscriptionID,
		logger:         logger,
		subs:           map[string]*Subscription{},
	}, nil
}

// Subscribe registers a logical channel. The shared receive loop starts on
// the first subscription.
func (c *Channel) Subscribe(_ context.Context, name string) (transport.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[name]; ok {
		return nil, fmt.Errorf("channel %q already subscribed", name)
	}
	sub := &Subscription{
		channel: c,
		name:    name,
		msgs:    make(chan preview.Message, subscriptionBuffer),
	}
	c.subs[name] = sub
	if !c.started {
		receiveCtx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.done = make(chan struct{})
		c.started = true
		go c.receive(receiveCtx)
	}
	return sub, nil
}

// Close stops the receive loop and closes the client.
func (c *Channel) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

func (c *Channel) receive(ctx context.Context) {
	defer close(c.done)
	sub := c.client.Subscription(c.subscriptionID)
	err := sub.Receive(ctx, func(_ context.Context, m *pubsub.Message) {
		defer m.Ack()
		c.dispatch(m)
	})
	if err != nil && ctx.Err() == nil {
		c.logger.Error("pubsub receive loop exited", zap.Error(err))
	}
}

func (c *Channel) dispatch(m *pubsub.Message) {
	name := m.Attributes[channelAttribute]
	// The send stays under the lock so an Unsubscribe cannot close the
	// stream mid-dispatch. Sends are non-blocking, so this never stalls
	// the receive loop.
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := c.subs[name]
	if sub == nil {
		return
	}
	var msg preview.Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		c.logger.Debug("discarding undecodable push message",
			zap.String("channel", name),
			zap.Error(err),
		)
		return
	}
	select {
	case sub.msgs <- msg:
	default:
		c.logger.Warn("push message dropped, subscriber buffer full",
			zap.String("channel", name),
			zap.String("task_id", msg.TaskID),
		)
	}
}

// Subscription is one logical channel over the shared subscription.
type Subscription struct {
	channel   *Channel
	name      string
	msgs      chan preview.Message
	closeOnce sync.Once
}

// Messages returns the decoded inbound stream.
func (s *Subscription) Messages() <-chan preview.Message {
	return s.msgs
}

// Unsubscribe deregisters the logical channel and closes the stream.
func (s *Subscription) Unsubscribe(context.Context) error {
	s.channel.mu.Lock()
	delete(s.channel.subs, s.name)
	s.closeOnce.Do(func() {
		close(s.msgs)
	})
	s.channel.mu.Unlock()
	return nil
}

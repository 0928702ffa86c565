// Package transport abstracts the push-messaging channel the orchestrator
// listens on for async task updates.
package transport

import (
	"context"

	"github.com/scrapable/preview-service/internal/preview"
)

// Subscription is a live stream of messages for one channel name. The
// message channel is closed after Unsubscribe or when the transport shuts
// down.
type Subscription interface {
	Messages() <-chan preview.Message
	Unsubscribe(ctx context.Context) error
}

// Channel provides scoped subscriptions on the push transport. Subscribe
// and Unsubscribe calls are paired strictly with task lifecycle: a
// subscription is acquired when a task is accepted and released on its
// terminal message or on cancellation.
//
// Reconnection policy is owned by the transport: implementations tolerate a
// disconnected state by queueing the subscribe intent until the connection
// returns.
type Channel interface {
	Subscribe(ctx context.Context, name string) (Subscription, error)
}

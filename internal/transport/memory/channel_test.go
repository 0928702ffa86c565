package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scrapable/preview-service/internal/preview"
)

func TestChannelPublishSubscribe(t *testing.T) {
	t.Parallel()

	ch := NewChannel()
	sub, err := ch.Subscribe(context.Background(), "scraper:T1")
	require.NoError(t, err)

	ch.Publish("scraper:T1", preview.Message{Type: preview.MessageProgress, TaskID: "T1"})
	ch.Publish("scraper:T2", preview.Message{Type: preview.MessageComplete, TaskID: "T2"})

	select {
	case msg := <-sub.Messages():
		require.Equal(t, "T1", msg.TaskID)
	case <-time.After(time.Second):
		t.Fatal("expected a message on the subscribed channel")
	}
	select {
	case msg := <-sub.Messages():
		t.Fatalf("unexpected message for task %s", msg.TaskID)
	default:
	}
}

func TestChannelUnsubscribeClosesStream(t *testing.T) {
	t.Parallel()

	ch := NewChannel()
	sub, err := ch.Subscribe(context.Background(), "scraper:T1")
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe(context.Background()))

	_, open := <-sub.Messages()
	require.False(t, open)

	// Publishing after unsubscribe must not panic or deliver.
	ch.Publish("scraper:T1", preview.Message{Type: preview.MessageComplete, TaskID: "T1"})
}

// TestChannelQueuesIntentWhileDisconnected covers the transport-owned
// reconnect policy: a subscribe placed while disconnected goes live once
// the connection returns.
func TestChannelQueuesIntentWhileDisconnected(t *testing.T) {
	t.Parallel()

	ch := NewChannel()
	ch.SetConnected(false)

	sub, err := ch.Subscribe(context.Background(), "scraper:T1")
	require.NoError(t, err)

	// Dropped: transport is down and the subscription is not live yet.
	ch.Publish("scraper:T1", preview.Message{Type: preview.MessageProgress, TaskID: "T1"})

	ch.SetConnected(true)
	ch.Publish("scraper:T1", preview.Message{Type: preview.MessageComplete, TaskID: "T1"})

	select {
	case msg := <-sub.Messages():
		require.Equal(t, preview.MessageComplete, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("expected delivery after reconnect")
	}
}

func TestChannelDropsWhenSubscriberBufferFull(t *testing.T) {
	t.Parallel()

	ch := NewChannel()
	sub, err := ch.Subscribe(context.Background(), "scraper:T1")
	require.NoError(t, err)

	for i := 0; i < subscriptionBuffer*2; i++ {
		ch.Publish("scraper:T1", preview.Message{Type: preview.MessageProgress, TaskID: "T1"})
	}
	require.Len(t, sub.Messages(), subscriptionBuffer)
}

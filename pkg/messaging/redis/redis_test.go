package redis

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *RedisBroker {
	t.Helper()
	s := miniredis.RunT(t)

	broker, err := NewRedisBroker(Config{URL: "redis://" + s.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { broker.Close() })
	return broker
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "conversation:abc")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "conversation:abc", map[string]string{"body": "hello"}))

	select {
	case raw := <-msgs:
		var got map[string]string
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "hello", got["body"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestRedisBroker_RawPayloadIsNotReencoded(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "events")
	require.NoError(t, err)

	payload := json.RawMessage(`{"booking_id":"b1"}`)
	require.NoError(t, broker.Publish(ctx, "events", payload))

	select {
	case raw := <-msgs:
		assert.JSONEq(t, `{"booking_id":"b1"}`, string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestRedisBroker_SubscriptionClosesWithContext(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := broker.Subscribe(ctx, "conversation:closing")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestRedisBroker_CancelledSubscriptionsReleaseGoroutines(t *testing.T) {
	broker := newTestBroker(t)
	before := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		msgs, err := broker.Subscribe(ctx, "conversation:churn")
		require.NoError(t, err)
		cancel()
		for range msgs {
		}
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNewRedisBroker_BadURL(t *testing.T) {
	_, err := NewRedisBroker(Config{URL: "not a url"}, nil)
	assert.Error(t, err)
}

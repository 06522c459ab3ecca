package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/pkg/messaging"
)

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := NewClient(ctx, Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)

	logger := zerolog.Nop()
	broker := NewRedisBroker(client, &logger)
	defer broker.Close()

	ch, err := broker.Subscribe(ctx, messaging.TopicBookingFinalized)
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, messaging.TopicBookingFinalized, map[string]string{"doctor_id": "1"}))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"doctor_id":"1"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{URL: "not a url"})
	assert.Error(t, err)
}

package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case evt := <-sub.Events():
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryChannelExcludesSender(t *testing.T) {
	ch := NewMemoryChannel()
	ctx := context.Background()

	alice, err := ch.Subscribe(ctx, "m1", "alice")
	require.NoError(t, err)
	defer alice.Close()
	bob, err := ch.Subscribe(ctx, "m1", "bob")
	require.NoError(t, err)
	defer bob.Close()

	evt, err := NewEvent(TypePlayerReady, "alice", PlayerReadyPayload{PlayerID: "alice"})
	require.NoError(t, err)
	require.NoError(t, ch.Publish(ctx, "m1", evt))

	got := recv(t, bob)
	assert.Equal(t, TypePlayerReady, got.Type)
	assert.Equal(t, "alice", got.SenderID)

	// The sender never hears their own broadcast.
	select {
	case evt := <-alice.Events():
		t.Fatalf("sender received own event: %+v", evt)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMemoryChannelIsolatesMatches(t *testing.T) {
	ch := NewMemoryChannel()
	ctx := context.Background()

	other, err := ch.Subscribe(ctx, "m2", "carol")
	require.NoError(t, err)
	defer other.Close()

	evt, err := NewEvent(TypeGameOver, "alice", GameOverPayload{})
	require.NoError(t, err)
	require.NoError(t, ch.Publish(ctx, "m1", evt))

	select {
	case evt := <-other.Events():
		t.Fatalf("event leaked across matches: %+v", evt)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMemoryChannelCloseIsIdempotent(t *testing.T) {
	ch := NewMemoryChannel()
	sub, err := ch.Subscribe(context.Background(), "m1", "alice")
	require.NoError(t, err)

	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestPublishAfterCloseDoesNotPanic(t *testing.T) {
	ch := NewMemoryChannel()
	ctx := context.Background()
	sub, err := ch.Subscribe(ctx, "m1", "alice")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	evt, err := NewEvent(TypePlayerReady, "bob", PlayerReadyPayload{PlayerID: "bob"})
	require.NoError(t, err)
	assert.NoError(t, ch.Publish(ctx, "m1", evt))
}

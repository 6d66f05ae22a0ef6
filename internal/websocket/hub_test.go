package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestClient(h *Hub, userID string) *Client {
	return &Client{UserID: userID, hub: h, send: make(chan []byte, 4)}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan struct{}) {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	return h, cancel, stopped
}

func TestHubDeliversToUser(t *testing.T) {
	defer goleak.VerifyNone(t)

	h, cancel, stopped := startHub(t)
	alice := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")
	require.True(t, h.RegisterClient(alice))
	require.True(t, h.RegisterClient(bob))
	assert.Eventually(t, func() bool { return h.ConnectedClients("alice") == 1 }, time.Second, 5*time.Millisecond)

	h.SendToUser("alice", Event{Type: EventPostLiked, Payload: PostLikedEvent{PostID: "p1", UserID: "bob", LikesCount: 1}})

	select {
	case msg := <-alice.send:
		var got struct {
			Type    string         `json:"type"`
			Payload PostLikedEvent `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, EventPostLiked, got.Type)
		assert.Equal(t, "p1", got.Payload.PostID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Empty(t, bob.send)

	cancel()
	<-stopped

	_, open := <-alice.send
	assert.False(t, open, "stopping the hub closes client queues")
}

func TestHubUnregister(t *testing.T) {
	defer goleak.VerifyNone(t)

	h, cancel, stopped := startHub(t)
	c := newTestClient(h, "alice")
	require.True(t, h.RegisterClient(c))
	h.UnregisterClient(c)
	assert.Eventually(t, func() bool { return h.ConnectedClients("alice") == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped

	assert.False(t, h.RegisterClient(newTestClient(h, "late")))
	h.UnregisterClient(c)
}

func TestSendToUserNeverBlocks(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.SendToUser("alice", Event{Type: EventStoryViewed})
	}
	assert.Len(t, h.broadcast, cap(h.broadcast))

	var nilHub *Hub
	nilHub.SendToUser("alice", Event{})
}

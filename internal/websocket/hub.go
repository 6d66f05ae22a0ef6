package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	EventPostLiked     = "post.liked"
	EventPostCommented = "post.commented"
	EventStoryViewed   = "story.viewed"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type PostLikedEvent struct {
	PostID     string `json:"postId"`
	UserID     string `json:"userId"`
	LikesCount int    `json:"likesCount"`
}

type PostCommentedEvent struct {
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Text      string `json:"text"`
}

type StoryViewedEvent struct {
	StoryID  string    `json:"storyId"`
	ViewerID string    `json:"viewerId"`
	ViewedAt time.Time `json:"viewedAt"`
}

// Hub fans events out to every connection of an actor.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

type Message struct {
	UserID  string
	Payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mu.Lock()
			for userID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; !ok {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.UserID] {
				select {
				case client.send <- message.Payload:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
}

// RegisterClient reports false once the hub has stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ConnectedClients counts open connections for userID.
func (h *Hub) ConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUser queues event for userID. It never blocks the caller: when the
// queue is full the event is dropped.
func (h *Hub) SendToUser(userID string, event Event) {
	if h == nil || userID == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- &Message{UserID: userID, Payload: payload}:
	default:
	}
}

package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans live session updates out to websocket viewers. When a Redis
// client is configured, updates are also published so other instances can
// forward them to their own viewers.
type Hub struct {
	redis   *redis.Client
	viewers map[string]map[*Viewer]struct{}
	mu      sync.RWMutex
}

// Viewer is one connected watcher of a live session.
type Viewer struct {
	SessionID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		viewers: map[string]map[*Viewer]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(sessionID string) *Viewer {
	v := &Viewer{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.viewers[sessionID] == nil {
		h.viewers[sessionID] = map[*Viewer]struct{}{}
	}
	h.viewers[sessionID][v] = struct{}{}
	return v
}

func (h *Hub) Unregister(v *Viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionViewers, ok := h.viewers[v.SessionID]; ok {
		delete(sessionViewers, v)
		if len(sessionViewers) == 0 {
			delete(h.viewers, v.SessionID)
		}
	}
	close(v.Send)
}

// Broadcast delivers a payload to every viewer of the session. Slow viewers
// lose updates rather than block the tracking path. The lock is held across
// the sends so Unregister cannot delete from or close a viewer mid-iteration;
// sends never block, so the hold is brief.
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	h.mu.RLock()
	for v := range h.viewers[sessionID] {
		select {
		case v.Send <- payload:
		default:
		}
	}
	h.mu.RUnlock()

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), liveChannel(sessionID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, "session:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		sessionID := sessionIDFromChannel(msg.Channel)
		h.mu.RLock()
		for v := range h.viewers[sessionID] {
			select {
			case v.Send <- []byte(msg.Payload):
			default:
			}
		}
		h.mu.RUnlock()
	}
}

func liveChannel(sessionID string) string {
	return "session:" + sessionID + ":live"
}

func sessionIDFromChannel(ch string) string {
	// session:{id}:live
	const prefix = "session:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}

package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans tracking samples out to WebSocket subscribers, keyed by vehicle
// id. When a Redis client is present, broadcasts are also published so other
// instances can forward them to their own subscribers. Delivery is
// best-effort: a subscriber with a full buffer misses the message.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	VehicleID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(vehicleID string) *Client {
	client := &Client{
		VehicleID: vehicleID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[vehicleID] == nil {
		h.clients[vehicleID] = map[*Client]struct{}{}
	}
	h.clients[vehicleID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if vehicleClients, ok := h.clients[client.VehicleID]; ok {
		delete(vehicleClients, client)
		if len(vehicleClients) == 0 {
			delete(h.clients, client.VehicleID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(vehicleID string, payload []byte) {
	// The read lock is held across the fan-out: Unregister mutates the map and
	// closes Send under the write lock, so sending outside the lock races with
	// both. Sends never block, the hold is brief.
	h.mu.RLock()
	for client := range h.clients[vehicleID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
	h.mu.RUnlock()

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(vehicleID), payload).Err()
		if err != nil {
			log.Printf("stream: redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "tracking:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		vehicleID := vehicleIDFromChannel(msg.Channel)
		h.mu.RLock()
		for client := range h.clients[vehicleID] {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
		h.mu.RUnlock()
	}
}

func redisChannel(vehicleID string) string {
	return "tracking:" + vehicleID + ":broadcast"
}

func vehicleIDFromChannel(ch string) string {
	// tracking:{vehicle}:broadcast
	const prefix = "tracking:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}

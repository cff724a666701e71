package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "colatrails:"
	channelSuffix = ":broadcast"
)

// Hub fans payloads out to websocket clients by topic. With redis configured,
// broadcasts are also published so clients connected to other instances
// receive them.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
}

type Client struct {
	Topic string
	Send  chan []byte
}

// envelope tags a published payload with the instance that sent it so the
// sender does not deliver it twice.
type envelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
		done:    make(chan struct{}),
	}

	if redisClient == nil {
		close(h.done)
		return h
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	pubsub := redisClient.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
	go h.subscribeRedis(ctx, pubsub)
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		if _, registered := topicClients[client]; !registered {
			return
		}
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
		close(client.Send)
	}
}

// Subscribers reports how many local clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) Broadcast(topic string, payload []byte) {
	h.deliver(topic, payload)

	if h.redis != nil {
		msg, err := json.Marshal(envelope{Origin: h.id, Payload: payload})
		if err != nil {
			log.Printf("stream envelope error: %v", err)
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(topic), msg).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// Close stops the redis subscription. Registered clients are left to their
// handlers.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.done
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			topic := topicFromChannel(msg.Channel)
			if topic == "" {
				continue
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				// plain publishes from other tools are forwarded as-is
				h.deliver(topic, []byte(msg.Payload))
				continue
			}
			if env.Origin == h.id {
				continue
			}
			h.deliver(topic, env.Payload)
		}
	}
}

func redisChannel(topic string) string {
	return channelPrefix + topic + channelSuffix
}

func topicFromChannel(ch string) string {
	// colatrails:{topic}:broadcast
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}

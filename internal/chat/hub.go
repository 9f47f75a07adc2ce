package chat

import (
	"context"
	"fmt"

	"github.com/Zhouyi071021/campus-circle/internal/logging"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis channel every instance publishes to and
// subscribes on.
const EventsChannel = "chat-events"

// Hub tracks the sockets connected to this instance and delivers events
// received from Redis to the addressed user's sockets.
type Hub struct {
	clients    map[int]map[*Client]bool
	broadcast  chan envelope // From Redis -> Clients
	Register   chan *Client
	Unregister chan *Client
	redis      *redis.Client
	log        logging.Logger
	done       chan struct{}
}

func NewHub(redisClient *redis.Client, log logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[int]map[*Client]bool),
		broadcast:  make(chan envelope),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		redis:      redisClient,
		log:        log.With("module", "hub"),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
			}
			h.clients = make(map[int]map[*Client]bool)
			return

		case client := <-h.Register:
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.UserID] = set
			}
			set[client] = true

		case client := <-h.Unregister:
			h.remove(client)

		case env := <-h.broadcast:
			for client := range h.clients[env.UserID] {
				select {
				case client.Send <- env.Payload:
				default:
					// Slow consumer; drop it rather than block everyone else.
					h.remove(client)
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
}

// Publish implements Publisher by fanning the event out through Redis, so the
// user's sockets on every instance receive it.
func (h *Hub) Publish(ctx context.Context, userID int, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope{UserID: userID, Payload: payload})
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, EventsChannel, data).Err()
}

// SubscribeToRedis listens for events from all instances until ctx ends. It
// returns once the subscription is confirmed.
func (h *Hub) SubscribeToRedis(ctx context.Context) error {
	pubsub := h.redis.Subscribe(ctx, EventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}

	go func() {
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
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					h.log.Warn(ctx, "bad event on channel", "error", err)
					continue
				}
				select {
				case h.broadcast <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/crewdesk/realtime/pkg/db"
	"github.com/crewdesk/realtime/pkg/fanout"
	"github.com/crewdesk/realtime/pkg/presence"
	"github.com/crewdesk/realtime/pkg/realtime"
	"github.com/google/uuid"
)

// presenceSink fans presence transitions out to both the durable store and
// the Redis mirror. The store write is the one that matters; a mirror
// failure only degrades remote presence reads and is logged.
type presenceSink struct {
	store  *db.Store
	mirror *presence.Mirror
}

func (s *presenceSink) SetOnline(ctx context.Context, userID string, at time.Time) error {
	if err := s.store.SetOnline(ctx, userID, at); err != nil {
		return err
	}
	if err := s.mirror.SetOnline(ctx, userID, at); err != nil {
		log.Printf("presence mirror: %v", err)
	}
	return nil
}

func (s *presenceSink) SetOffline(ctx context.Context, userID string, at time.Time) error {
	if err := s.store.SetOffline(ctx, userID, at); err != nil {
		return err
	}
	if err := s.mirror.SetOffline(ctx, userID, at); err != nil {
		log.Printf("presence mirror: %v", err)
	}
	return nil
}

// Hub owns the realtime core for this gateway instance and bridges it to
// Kafka: everything the tracker and relay broadcast goes through the
// producer, and the consumer loop re-delivers every push (this instance's
// included) to locally connected clients.
type Hub struct {
	registry *realtime.MemoryRegistry
	router   *realtime.Router
	tracker  *realtime.Tracker
	relay    *realtime.Relay
	producer *fanout.Producer
	consumer *fanout.Consumer
}

func NewHub(store *db.Store, mirror *presence.Mirror, brokers []string, topic string, grace time.Duration) *Hub {
	registry := realtime.NewMemoryRegistry()
	router := realtime.NewRouter()
	producer := fanout.NewProducer(brokers, topic)

	sink := &presenceSink{store: store, mirror: mirror}
	tracker := realtime.NewTracker(registry, sink, producer, grace)
	relay := realtime.NewRelay(store, producer)

	// Unique group per instance: every gateway sees every push.
	consumer := fanout.NewConsumer(brokers, topic, "gateway-"+uuid.NewString())

	return &Hub{
		registry: registry,
		router:   router,
		tracker:  tracker,
		relay:    relay,
		producer: producer,
		consumer: consumer,
	}
}

// Run consumes the push topic until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	err := h.consumer.Run(ctx, func(env fanout.PushEnvelope) {
		n, err := h.router.Broadcast(ctx, env.Channel, env.Event, json.RawMessage(env.Data))
		if err != nil {
			log.Printf("local fanout of %s to %s: %v", env.Event, env.Channel, err)
			return
		}
		if n > 0 {
			log.Printf("delivered %s to %d connection(s) on %s", env.Event, n, env.Channel)
		}
	})
	if err != nil {
		log.Printf("push consumer stopped: %v", err)
	}
}

// Connect registers a new connection: registry entry, automatic private and
// presence channel membership, then the presence transition.
func (h *Hub) Connect(ctx context.Context, c *Client) error {
	h.registry.Register(c.userID, c.id)
	if err := h.router.Join(c, realtime.PrivateChannel(c.userID)); err != nil {
		return err
	}
	if err := h.router.Join(c, realtime.ChannelPresence); err != nil {
		return err
	}
	if err := h.tracker.HandleConnect(ctx, c.userID); err != nil {
		log.Printf("presence transition for %s: %v", c.userID, err)
	}
	log.Printf("client connected: user=%s conn=%s", c.userID, c.id)
	return nil
}

// Disconnect tears a connection down. The router drops it from every
// channel, then the registry decides whether the user's set became empty
// and the tracker arms the offline grace timer if so.
func (h *Hub) Disconnect(c *Client) {
	h.router.RemoveConn(c.id)
	becameEmpty := h.registry.Remove(c.userID, c.id)
	h.tracker.HandleDisconnect(c.userID, becameEmpty)
	log.Printf("client disconnected: user=%s conn=%s lastConn=%v", c.userID, c.id, becameEmpty)
}

func (h *Hub) JoinRoom(c *Client, room string) error {
	return h.router.Join(c, room)
}

func (h *Hub) LeaveRoom(connID, room string) error {
	return h.router.Leave(connID, room)
}

func (h *Hub) Typing(ctx context.Context, c *Client, conversationID, recipientID string, isTyping bool) error {
	return h.relay.Typing(ctx, conversationID, recipientID, c.userID, isTyping)
}

func (h *Hub) MarkRead(ctx context.Context, conversationID, recipientID string) error {
	return h.relay.MarkRead(ctx, conversationID, recipientID)
}

func (h *Hub) Close() {
	h.tracker.Stop()
	h.router.Close()
	if err := h.producer.Close(); err != nil {
		log.Printf("close producer: %v", err)
	}
	if err := h.consumer.Close(); err != nil {
		log.Printf("close consumer: %v", err)
	}
}

// Package fanout carries push events over Kafka from whichever process
// originated them (the API's dispatcher, a gateway's tracker) to every
// gateway instance, which re-broadcasts them to its local connections.
package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
)

// ErrProducerClosed is returned by Broadcast after Close, so a call made
// before initialization or after teardown fails fast instead of silently
// dropping the event.
var ErrProducerClosed = errors.New("fanout: producer is closed")

// PushEnvelope is the on-topic frame: a channel-addressed event.
type PushEnvelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Producer publishes push envelopes. It satisfies the core Broadcaster; a
// successful publish counts as one receiver, since the actual per-connection
// fanout happens asynchronously on the gateway side.
type Producer struct {
	mu     sync.Mutex
	writer *kafka.Writer
	closed bool
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Producer) Broadcast(ctx context.Context, channel, event string, payload any) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(PushEnvelope{Channel: channel, Event: event, Data: data})
	if err != nil {
		return 0, fmt.Errorf("marshal push envelope: %w", err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrProducerClosed
	}
	w := p.writer
	p.mu.Unlock()

	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(channel), Value: frame}); err != nil {
		return 0, fmt.Errorf("publish %s to %s: %w", event, channel, err)
	}
	return 1, nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

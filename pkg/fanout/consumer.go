package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// Consumer reads push envelopes for one gateway instance. Each gateway uses
// a unique group ID so every instance sees every push and can fan it out to
// its own connections.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
			MinBytes:    10e3,
			MaxBytes:    10e6,
		}),
	}
}

// Run delivers each envelope to the handler until the context is canceled or
// the reader fails. Malformed frames are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handler func(PushEnvelope)) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var env PushEnvelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			log.Printf("skip malformed push frame: %v", err)
			continue
		}
		handler(env)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

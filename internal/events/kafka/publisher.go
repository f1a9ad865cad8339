package kafka

import (
	"context"
	"encoding/json"

	"github.com/paperledger/paperledger/internal/entity"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const defaultTopic = "trade_executed"

// Publisher writes trade-executed events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers. An empty topic
// falls back to "trade_executed".
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = defaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish emits the trade record keyed by account so per-account ordering is
// preserved within a partition.
func (p *Publisher) Publish(ctx context.Context, record entity.TradeRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal trade event")
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.AccountID),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Package messaging publishes committed transaction events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TransactionEventMessage is the JSON payload written for each event.
type TransactionEventMessage struct {
	ID          int32              `json:"id"`
	ULID        string             `json:"ulid"`
	RequestID   int32              `json:"request_id"`
	Kind        string             `json:"kind"`
	ProcessedBy int32              `json:"processed_by"`
	Lines       []domain.LineDelta `json:"lines"`
	Notes       string             `json:"notes,omitempty"`
	CreatedOn   time.Time          `json:"created_on"`
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher writes to topic with the request id as key, so events of one request
// land on one partition in order.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, topic)
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) PublishTransactionEvents(ctx context.Context, events []domain.TransactionEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(TransactionEventMessage{
			ID:          ev.ID,
			ULID:        ev.ULID,
			RequestID:   ev.RequestID,
			Kind:        string(ev.Kind),
			ProcessedBy: ev.ProcessedBy,
			Lines:       ev.Lines,
			Notes:       ev.Notes,
			CreatedOn:   ev.CreatedOn,
		})
		if err != nil {
			return fmt.Errorf("failed to encode transaction event %d: %w", ev.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.Itoa(int(ev.RequestID))),
			Value: payload,
			Time:  ev.CreatedOn,
			Headers: []kafka.Header{
				{Key: "event-kind", Value: []byte(ev.Kind)},
				{Key: "event-ulid", Value: []byte(ev.ULID)},
			},
		})
	}

	logger.ExternalServiceCall("kafka", "WriteMessages", "topic", p.topic, "count", len(msgs))
	err := p.writer.WriteMessages(ctx, msgs...)
	logger.ExternalServiceResult("kafka", "WriteMessages", err, "topic", p.topic)
	if err != nil {
		return fmt.Errorf("failed to publish %d transaction events: %w", len(msgs), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

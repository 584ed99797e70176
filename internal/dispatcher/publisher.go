package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/akylbek/payment-system/payout-service/internal/models"
)

// Kafka topics. payout.created is the work queue; payout.status.changed is
// the audit stream of every transition.
const (
	TopicPayoutCreated = "payout.created"
	TopicStatusChanged = "payout.status.changed"
)

// WorkMessage is the single work-queue message type.
type WorkMessage struct {
	ExternalID string `json:"external_id"`
}

type statusChangedEvent struct {
	ExternalID     string    `json:"external_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher writes payout events to Kafka.
type Publisher struct {
	workWriter  *kafka.Writer
	stateWriter *kafka.Writer
}

func NewPublisher(brokers string) *Publisher {
	return &Publisher{
		workWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    TopicPayoutCreated,
			Balancer: &kafka.LeastBytes{},
		},
		stateWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    TopicStatusChanged,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PayoutCreated enqueues pipeline work for the payout. Callers must invoke
// this only after the creating transaction has committed.
func (p *Publisher) PayoutCreated(ctx context.Context, externalID string) error {
	payload, err := json.Marshal(WorkMessage{ExternalID: externalID})
	if err != nil {
		return err
	}
	return p.workWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(externalID),
		Value: payload,
	})
}

// StatusChanged publishes a transition to the audit stream.
func (p *Publisher) StatusChanged(ctx context.Context, externalID string, from, to models.Status) error {
	payload, err := json.Marshal(statusChangedEvent{
		ExternalID:     externalID,
		Status:         string(to),
		PreviousStatus: string(from),
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.stateWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(externalID),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	if err := p.workWriter.Close(); err != nil {
		p.stateWriter.Close()
		return err
	}
	return p.stateWriter.Close()
}

package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/atomic"
)

// Event types published for the external notification collaborator. The
// engine never delivers notifications itself; it emits facts and moves on.
const (
	EventRidePosted       = "ride.posted"
	EventRideCancelled    = "ride.cancelled"
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingConfirmed = "booking.confirmed"
	EventRequestMatched   = "request.matched"
	EventUserBlacklisted  = "user.blacklisted"
)

type Event struct {
	Type       string    `json:"type"`
	SubjectID  string    `json:"subject_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	RideID     string    `json:"ride_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is the notification boundary. Publishing is best-effort:
// implementations must never fail a business operation.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

type KafkaPublisher struct {
	writer  *kafka.Writer
	dropped atomic.Int64
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	b, err := json.Marshal(event)
	if err != nil {
		p.dropped.Inc()
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.SubjectID),
		Value: b,
	}); err != nil {
		p.dropped.Inc()
		log.Printf("notify: dropped %s event for %s: %v (total dropped %d)",
			event.Type, event.SubjectID, err, p.dropped.Load())
	}
}

// Dropped returns how many events failed to publish since startup.
func (p *KafkaPublisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// NopPublisher discards events; used when kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) {}
func (NopPublisher) Close() error                             { return nil }

package audit

import (
	"context"
	"encoding/json"

	"spamstopper/internal/platform/kafka/producer"
	pkgerrors "spamstopper/pkg/domain-errors"
)

// KafkaStore ships audit events to a Kafka topic for downstream consumers.
// It is write-only: the trail is read from the analytics side, not from here.
type KafkaStore struct {
	producer *producer.Producer
	topic    string
}

func NewKafkaStore(p *producer.Producer, topic string) *KafkaStore {
	return &KafkaStore{producer: p, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "marshal audit event")
	}

	msg := &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.SubscriberID),
		Value: payload,
		Headers: map[string]string{
			"action": event.Action,
		},
	}
	if err := s.producer.Produce(ctx, msg); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeUnavailable, "publish audit event")
	}
	return nil
}

// ListBySubscriber is not supported on the Kafka sink.
func (s *KafkaStore) ListBySubscriber(context.Context, string) ([]Event, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit kafka sink is write-only")
}

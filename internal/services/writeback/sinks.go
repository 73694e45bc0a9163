package writeback

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/OrderTrack/internal/broker/messages"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/pkg/errors"
)

const DefaultTopic = "order.facts_learned"

// FactsStore is implemented by pgorders.Storage.
type FactsStore interface {
	ApplyOrderFacts(ctx context.Context, f models.OrderFacts) (bool, error)
}

// DirectSink writes facts straight into the order record.
type DirectSink struct {
	store FactsStore
}

func NewDirectSink(store FactsStore) *DirectSink {
	return &DirectSink{store: store}
}

func (s *DirectSink) Apply(ctx context.Context, f models.OrderFacts) error {
	changed, err := s.store.ApplyOrderFacts(ctx, f)
	if err != nil {
		return errors.Wrap(err, "apply order facts")
	}
	if !changed {
		slog.Debug("writeback was a no-op", "order", f.OrderNumber)
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaSink hands facts to writeback-worker through Kafka, keyed by order number so
// facts for one order stay ordered.
type KafkaSink struct {
	pub   Publisher
	topic string
	now   func() time.Time
}

func NewKafkaSink(pub Publisher, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaSink{pub: pub, topic: topic, now: time.Now}
}

func (s *KafkaSink) Apply(ctx context.Context, f models.OrderFacts) error {
	b, err := json.Marshal(ToMessage(f, s.now().UTC()))
	if err != nil {
		return errors.Wrap(err, "marshal facts")
	}
	return s.pub.Publish(ctx, s.topic, []byte(f.OrderNumber), b)
}

func ToMessage(f models.OrderFacts, learnedAt time.Time) messages.OrderFactsLearned {
	m := messages.OrderFactsLearned{
		OrderID:         f.OrderID,
		OrderNumber:     f.OrderNumber,
		LearnedAt:       learnedAt,
		TrackingLink:    f.TrackingLink,
		ProviderOrderID: f.ProviderOrderID,
	}
	if f.HasCourier() {
		m.Courier = &messages.CourierFact{
			ProviderCourierID: f.ProviderCourierID,
			Name:              f.CourierName,
			Phone:             f.CourierPhone,
			Photo:             f.CourierPhoto,
		}
	}
	return m
}

func FromMessage(m messages.OrderFactsLearned) models.OrderFacts {
	f := models.OrderFacts{
		OrderID:         m.OrderID,
		OrderNumber:     m.OrderNumber,
		TrackingLink:    m.TrackingLink,
		ProviderOrderID: m.ProviderOrderID,
	}
	if c := m.Courier; c != nil {
		f.ProviderCourierID = c.ProviderCourierID
		f.CourierName = c.Name
		f.CourierPhone = c.Phone
		f.CourierPhoto = c.Photo
	}
	return f
}

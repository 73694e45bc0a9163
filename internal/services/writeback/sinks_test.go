package writeback

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/OrderTrack/internal/broker/messages"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	return m.Called(ctx, topic, key, value).Error(0)
}

type fakeFactsStore struct {
	got     []models.OrderFacts
	changed bool
	err     error
}

func (s *fakeFactsStore) ApplyOrderFacts(ctx context.Context, f models.OrderFacts) (bool, error) {
	s.got = append(s.got, f)
	return s.changed, s.err
}

func TestDirectSink(t *testing.T) {
	st := &fakeFactsStore{changed: false}
	sink := NewDirectSink(st)
	require.NoError(t, sink.Apply(context.Background(), models.OrderFacts{OrderNumber: "BF-1", TrackingLink: "x"}))
	require.Len(t, st.got, 1)

	st.err = errors.New("boom")
	err := sink.Apply(context.Background(), models.OrderFacts{OrderNumber: "BF-1"})
	require.ErrorContains(t, err, "boom")
}

func TestKafkaSink_PublishesKeyedByOrderNumber(t *testing.T) {
	pub := &mockPublisher{}
	sink := NewKafkaSink(pub, "")
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return at }

	pub.On("Publish", mock.Anything, DefaultTopic, []byte("BF-1001"), mock.MatchedBy(func(b []byte) bool {
		var m messages.OrderFactsLearned
		if err := json.Unmarshal(b, &m); err != nil {
			return false
		}
		return m.OrderNumber == "BF-1001" && m.Courier != nil && *m.Courier.ProviderCourierID == 42 && m.LearnedAt.Equal(at)
	})).Return(nil).Once()

	err := sink.Apply(context.Background(), models.OrderFacts{OrderNumber: "BF-1001", ProviderCourierID: int64Ptr(42), CourierName: "Luis"})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestMessageConversion(t *testing.T) {
	f := models.OrderFacts{
		OrderID:           "id",
		OrderNumber:       "BF-1",
		ProviderCourierID: int64Ptr(7),
		CourierName:       "Ana",
		CourierPhoto:      "https://cdn/ana.png",
		TrackingLink:      "https://t/abc",
	}
	require.Equal(t, f, FromMessage(ToMessage(f, time.Now())))

	m := ToMessage(models.OrderFacts{OrderNumber: "BF-2", ProviderOrderID: "sd"}, time.Now())
	require.Nil(t, m.Courier)
}

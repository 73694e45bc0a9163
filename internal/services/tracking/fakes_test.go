package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

type fakeStore struct {
	byNumber     map[string][]*models.Order
	byProviderID map[string][]*models.Order
	byID         map[string]*models.Order
	err          error

	assignmentsByProvider map[string]*models.CourierAssignment
	assignmentsByID       map[string]*models.CourierAssignment
	couriers              map[string]*models.Courier
	courierErr            error

	mu    sync.Mutex
	calls []string
}

func (f *fakeStore) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeStore) FindOrdersByNumber(ctx context.Context, orderNumber string, limit int) ([]*models.Order, error) {
	f.record("by_number")
	if f.err != nil {
		return nil, f.err
	}
	return limitOrders(f.byNumber[orderNumber], limit), nil
}

func (f *fakeStore) FindOrdersByProviderOrderID(ctx context.Context, providerOrderID string, limit int) ([]*models.Order, error) {
	f.record("by_provider_id")
	if f.err != nil {
		return nil, f.err
	}
	return limitOrders(f.byProviderID[providerOrderID], limit), nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	f.record("by_id")
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

func (f *fakeStore) GetAssignmentByProviderOrderID(ctx context.Context, providerOrderID string) (*models.CourierAssignment, error) {
	f.record("assignment_by_provider")
	if f.courierErr != nil {
		return nil, f.courierErr
	}
	return f.assignmentsByProvider[providerOrderID], nil
}

func (f *fakeStore) GetAssignmentByID(ctx context.Context, id string) (*models.CourierAssignment, error) {
	f.record("assignment_by_id")
	return f.assignmentsByID[id], nil
}

func (f *fakeStore) GetCourierByID(ctx context.Context, id string) (*models.Courier, error) {
	f.record("courier_by_id")
	return f.couriers[id], nil
}

func limitOrders(in []*models.Order, limit int) []*models.Order {
	if len(in) > limit {
		return in[:limit]
	}
	return in
}

type fakeProvider struct {
	detail   *models.ProviderOrderDetail
	progress *models.ProviderProgress

	mu          sync.Mutex
	identifiers []string
	tokens      []string
}

func (p *fakeProvider) OrderDetail(ctx context.Context, identifier string) (*models.ProviderOrderDetail, bool) {
	p.mu.Lock()
	p.identifiers = append(p.identifiers, identifier)
	p.mu.Unlock()
	return p.detail, p.detail != nil
}

func (p *fakeProvider) Progress(ctx context.Context, token string) (*models.ProviderProgress, bool) {
	p.mu.Lock()
	p.tokens = append(p.tokens, token)
	p.mu.Unlock()
	return p.progress, p.progress != nil
}

type submitted struct {
	order *models.Order
	facts models.OrderFacts
}

type fakeSubmitter struct {
	mu  sync.Mutex
	got []submitted
}

func (s *fakeSubmitter) Submit(order *models.Order, facts models.OrderFacts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, submitted{order: order, facts: facts})
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

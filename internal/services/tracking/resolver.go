package tracking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type OrderRepository interface {
	FindOrdersByNumber(ctx context.Context, orderNumber string, limit int) ([]*models.Order, error)
	FindOrdersByProviderOrderID(ctx context.Context, providerOrderID string, limit int) ([]*models.Order, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

type lookupStrategy struct {
	name string
	find func(ctx context.Context, ref string) ([]*models.Order, error)
}

// Resolver locates the persistent order for an opaque reference. Strategies run in
// order: order number, provider order id, storage key. The customer-facing number goes
// first because that is what tracking links carry.
type Resolver struct {
	strategies []lookupStrategy
	timeout    time.Duration
}

func NewResolver(repo OrderRepository, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{
		timeout: timeout,
		strategies: []lookupStrategy{
			{name: "order_number", find: func(ctx context.Context, ref string) ([]*models.Order, error) {
				return repo.FindOrdersByNumber(ctx, ref, 2)
			}},
			{name: "provider_order_id", find: func(ctx context.Context, ref string) ([]*models.Order, error) {
				return repo.FindOrdersByProviderOrderID(ctx, ref, 2)
			}},
			{name: "storage_key", find: func(ctx context.Context, ref string) ([]*models.Order, error) {
				if _, err := uuid.Parse(ref); err != nil {
					return nil, nil
				}
				o, err := repo.GetOrderByID(ctx, ref)
				if err != nil || o == nil {
					return nil, err
				}
				return []*models.Order{o}, nil
			}},
		},
	}
}

// Resolve returns the single order matching ref. A strategy with two matches fails
// closed with ErrAmbiguousReference; store failures come back wrapped in ErrInternal.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyReference
	}

	for _, st := range r.strategies {
		found, err := r.run(ctx, st, ref)
		if err != nil {
			return nil, errors.Wrapf(ErrInternal, "lookup by %s: %v", st.name, err)
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			slog.Warn("order reference matches several orders", "reference", ref, "strategy", st.name)
			return nil, errors.Wrapf(ErrAmbiguousReference, "%s=%s", st.name, ref)
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "reference %s", ref)
}

func (r *Resolver) run(ctx context.Context, st lookupStrategy, ref string) ([]*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return st.find(ctx, ref)
}

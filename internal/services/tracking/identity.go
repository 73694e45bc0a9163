package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

// IdentityResolver is one source of a fallback courier identity.
// (nil, nil) means "nothing here".
type IdentityResolver interface {
	Name() string
	Resolve(ctx context.Context, o *models.Order) (*Identity, error)
}

type CourierRepository interface {
	GetAssignmentByProviderOrderID(ctx context.Context, providerOrderID string) (*models.CourierAssignment, error)
	GetAssignmentByID(ctx context.Context, id string) (*models.CourierAssignment, error)
	GetCourierByID(ctx context.Context, id string) (*models.Courier, error)
}

// IdentityChain tries resolvers in order; the first identity wins. A failing resolver
// is logged and skipped.
type IdentityChain struct {
	resolvers []IdentityResolver
	timeout   time.Duration
}

func NewIdentityChain(timeout time.Duration, resolvers ...IdentityResolver) *IdentityChain {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IdentityChain{resolvers: resolvers, timeout: timeout}
}

// DefaultIdentityChain: assignment by provider order id, assignment by internal id,
// then the courier roster.
func DefaultIdentityChain(repo CourierRepository, timeout time.Duration) *IdentityChain {
	return NewIdentityChain(timeout,
		assignmentByProviderOrder{repo: repo},
		assignmentByID{repo: repo},
		rosterByCourierID{repo: repo},
	)
}

func (c *IdentityChain) Resolve(ctx context.Context, o *models.Order) *Identity {
	for _, r := range c.resolvers {
		id, err := c.try(ctx, r, o)
		if err != nil {
			slog.Warn("fallback courier lookup failed", "order", o.OrderNumber, "strategy", r.Name(), "error", err.Error())
			continue
		}
		if id != nil && id.Name != "" {
			return id
		}
	}
	return nil
}

func (c *IdentityChain) try(ctx context.Context, r IdentityResolver, o *models.Order) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return r.Resolve(ctx, o)
}

type assignmentByProviderOrder struct{ repo CourierRepository }

func (assignmentByProviderOrder) Name() string { return "assignment_by_provider_order" }

func (r assignmentByProviderOrder) Resolve(ctx context.Context, o *models.Order) (*Identity, error) {
	if o.ProviderOrderID == nil || *o.ProviderOrderID == "" {
		return nil, nil
	}
	a, err := r.repo.GetAssignmentByProviderOrderID(ctx, *o.ProviderOrderID)
	if err != nil {
		return nil, err
	}
	return fromAssignment(a), nil
}

type assignmentByID struct{ repo CourierRepository }

func (assignmentByID) Name() string { return "assignment_by_id" }

func (r assignmentByID) Resolve(ctx context.Context, o *models.Order) (*Identity, error) {
	if o.CourierAssignmentID == nil || *o.CourierAssignmentID == "" {
		return nil, nil
	}
	a, err := r.repo.GetAssignmentByID(ctx, *o.CourierAssignmentID)
	if err != nil {
		return nil, err
	}
	return fromAssignment(a), nil
}

type rosterByCourierID struct{ repo CourierRepository }

func (rosterByCourierID) Name() string { return "roster_by_courier_id" }

func (r rosterByCourierID) Resolve(ctx context.Context, o *models.Order) (*Identity, error) {
	if o.CourierID == nil || *o.CourierID == "" {
		return nil, nil
	}
	c, err := r.repo.GetCourierByID(ctx, *o.CourierID)
	if err != nil || c == nil {
		return nil, err
	}
	return &Identity{Name: c.Name, Phone: deref(c.Phone), Photo: deref(c.Photo), Rating: c.Rating}, nil
}

func fromAssignment(a *models.CourierAssignment) *Identity {
	if a == nil || !a.Assigned || a.CourierName == "" {
		return nil
	}
	return &Identity{Name: a.CourierName, Phone: deref(a.CourierPhone), Photo: deref(a.CourierPhoto)}
}

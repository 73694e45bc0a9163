package tracking

import (
	"context"
	"log/slog"

	"github.com/BearBump/OrderTrack/internal/integrations/dispatch"
	"github.com/BearBump/OrderTrack/internal/models"
	"golang.org/x/sync/errgroup"
)

// Provider is the soft-failing view of the dispatch provider (dispatch.Resilient).
// false means "no data", never an error for the caller.
type Provider interface {
	OrderDetail(ctx context.Context, identifier string) (*models.ProviderOrderDetail, bool)
	Progress(ctx context.Context, trackingToken string) (*models.ProviderProgress, bool)
}

// FactsSubmitter accepts learned facts for a detached write-back. Must not block.
type FactsSubmitter interface {
	Submit(order *models.Order, facts models.OrderFacts)
}

type Service struct {
	resolver   *Resolver
	identities *IdentityChain
	provider   Provider
	writeback  FactsSubmitter
	defaultFee float64
}

// NewService wires the engine. provider and writeback may be nil: without a provider
// the view is built from the persistent record only.
func NewService(resolver *Resolver, identities *IdentityChain, provider Provider, writeback FactsSubmitter, defaultFee float64) *Service {
	if defaultFee <= 0 {
		defaultFee = DefaultDeliveryFee
	}
	return &Service{
		resolver:   resolver,
		identities: identities,
		provider:   provider,
		writeback:  writeback,
		defaultFee: defaultFee,
	}
}

// GetTracking returns the reconciled view for an order reference. Only ErrNotFound,
// ErrAmbiguousReference, ErrEmptyReference and ErrInternal (wrapped) come back.
func (s *Service) GetTracking(ctx context.Context, reference string) (models.TrackingView, error) {
	order, err := s.resolver.Resolve(ctx, reference)
	if err != nil {
		return models.TrackingView{}, err
	}

	snap := BuildSnapshot(order, s.defaultFee)
	detail, progress := s.fetchProvider(ctx, order)

	var fallback *Identity
	if s.identities != nil && NeedsFallbackIdentity(snap, detail) {
		fallback = s.identities.Resolve(ctx, order)
	}

	rec := Reconcile(ReconcileInput{
		Snapshot: snap,
		Detail:   detail,
		Progress: progress,
		Fallback: fallback,
	})

	if s.writeback != nil && !rec.Facts.IsEmpty() {
		s.writeback.Submit(order, rec.Facts)
	}

	return ToView(rec), nil
}

// fetchProvider calls detail and progress. With a persisted tracking link both run
// concurrently; otherwise progress waits for the link learned from detail.
func (s *Service) fetchProvider(ctx context.Context, o *models.Order) (*models.ProviderOrderDetail, *models.ProviderProgress) {
	if s.provider == nil {
		return nil, nil
	}

	identifier := dispatch.DetailIdentifier(o)
	var (
		detail   *models.ProviderOrderDetail
		progress *models.ProviderProgress
	)

	if token := dispatch.TrackingToken(deref(o.TrackingLink)); token != "" {
		var g errgroup.Group
		g.Go(func() error {
			detail, _ = s.provider.OrderDetail(ctx, identifier)
			return nil
		})
		g.Go(func() error {
			progress, _ = s.provider.Progress(ctx, token)
			return nil
		})
		_ = g.Wait()
		return detail, progress
	}

	detail, _ = s.provider.OrderDetail(ctx, identifier)
	if detail == nil {
		return nil, nil
	}
	token := dispatch.TrackingToken(detail.TrackingLink)
	if token == "" {
		slog.Debug("no tracking token, progress skipped", "order", o.OrderNumber)
		return detail, nil
	}
	progress, _ = s.provider.Progress(ctx, token)
	return detail, progress
}

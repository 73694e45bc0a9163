package writeback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

// Sink persists or forwards a diffed fact set.
type Sink interface {
	Apply(ctx context.Context, f models.OrderFacts) error
}

// Marker is the dedupe store (rediscache.RedisCache).
type Marker interface {
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

type Stats struct {
	Submitted int64 `json:"submitted"`
	Skipped   int64 `json:"skipped"`
	Deduped   int64 `json:"deduped"`
	Applied   int64 `json:"applied"`
	Failed    int64 `json:"failed"`
}

// Applier runs write-backs off the request path. Submit never blocks and never reports
// failures to the caller.
type Applier struct {
	sink      Sink
	marker    Marker
	timeout   time.Duration
	dedupeTTL time.Duration

	// на снятие маркера после ошибки, контекст apply к этому моменту мог истечь
	releaseTimeout time.Duration

	wg sync.WaitGroup

	submitted atomic.Int64
	skipped   atomic.Int64
	deduped   atomic.Int64
	applied   atomic.Int64
	failed    atomic.Int64
}

// NewApplier: marker may be nil, then every diff reaches the sink.
func NewApplier(sink Sink, marker Marker) *Applier {
	return &Applier{
		sink:      sink,
		marker:    marker,
		timeout:   5 * time.Second,
		dedupeTTL: 10 * time.Minute,

		releaseTimeout: 2 * time.Second,
	}
}

func (a *Applier) WithSettings(timeout, dedupeTTL time.Duration) *Applier {
	if timeout > 0 {
		a.timeout = timeout
	}
	if dedupeTTL > 0 {
		a.dedupeTTL = dedupeTTL
	}
	return a
}

func (a *Applier) Submit(o *models.Order, facts models.OrderFacts) {
	if o == nil {
		return
	}
	upd := Diff(o, facts)
	if upd.IsEmpty() {
		a.skipped.Add(1)
		return
	}
	a.submitted.Add(1)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		// не от контекста запроса: клиент мог уже уйти
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		a.apply(ctx, upd)
	}()
}

func (a *Applier) apply(ctx context.Context, f models.OrderFacts) {
	key := dedupeKey(f)
	if a.marker != nil {
		first, err := a.marker.SetIfAbsent(ctx, key, []byte(time.Now().UTC().Format(time.RFC3339)), a.dedupeTTL)
		switch {
		case err != nil:
			slog.Warn("writeback dedupe marker unavailable", "order", f.OrderNumber, "error", err.Error())
		case !first:
			a.deduped.Add(1)
			return
		}
	}

	if err := a.sink.Apply(ctx, f); err != nil {
		a.failed.Add(1)
		slog.Error("writeback failed", "order", f.OrderNumber, "error", err.Error())
		if a.marker != nil {
			// следующий опрос должен попробовать ещё раз
			a.releaseMarker(f.OrderNumber, key)
		}
		return
	}
	a.applied.Add(1)
	slog.Info("writeback applied", "order", f.OrderNumber, "courier", f.CourierName, "tracking_link", f.TrackingLink != "", "provider_order_id", f.ProviderOrderID)
}

func (a *Applier) releaseMarker(order, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.releaseTimeout)
	defer cancel()
	if err := a.marker.Delete(ctx, key); err != nil {
		slog.Warn("writeback dedupe marker not released", "order", order, "error", err.Error())
	}
}

// Wait blocks until in-flight write-backs finish or ctx is done.
func (a *Applier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Applier) Stats() Stats {
	return Stats{
		Submitted: a.submitted.Load(),
		Skipped:   a.skipped.Load(),
		Deduped:   a.deduped.Load(),
		Applied:   a.applied.Load(),
		Failed:    a.failed.Load(),
	}
}

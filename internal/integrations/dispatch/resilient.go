package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// ErrRateLimited is returned internally when the local provider quota is exhausted.
var ErrRateLimited = errors.New("dispatch quota exhausted")

// Resilient wraps a Client so that every failure (timeout, non-2xx, network error,
// malformed payload, exhausted quota) becomes a soft miss instead of an error.
type Resilient struct {
	c Client

	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration

	rl          RateLimiter
	rlPerMinute int64

	now func() time.Time
}

func NewResilient(c Client) *Resilient {
	return &Resilient{
		c:              c,
		timeout:        5 * time.Second,
		maxRetries:     2,
		initialBackoff: 100 * time.Millisecond,
		now:            time.Now,
	}
}

func (r *Resilient) WithSettings(timeout time.Duration, maxRetries int, initialBackoff time.Duration) *Resilient {
	if timeout > 0 {
		r.timeout = timeout
	}
	if maxRetries >= 0 {
		r.maxRetries = maxRetries
	}
	if initialBackoff > 0 {
		r.initialBackoff = initialBackoff
	}
	return r
}

// WithRateLimit caps provider calls per minute across all track-api instances.
func (r *Resilient) WithRateLimit(rl RateLimiter, perMinute int) *Resilient {
	if rl != nil && perMinute > 0 {
		r.rl = rl
		r.rlPerMinute = int64(perMinute)
	}
	return r
}

// OrderDetail returns the provider's view of the order, or ok=false on any failure.
func (r *Resilient) OrderDetail(ctx context.Context, identifier string) (*models.ProviderOrderDetail, bool) {
	if identifier == "" {
		return nil, false
	}
	var out *models.ProviderOrderDetail
	err := r.call(ctx, func(ctx context.Context) error {
		d, err := r.c.FetchOrderDetail(ctx, identifier)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrMalformed
		}
		out = d
		return nil
	})
	if err != nil {
		slog.Warn("dispatch order detail unavailable", "identifier", identifier, "error", err.Error())
		return nil, false
	}
	return out, true
}

// Progress returns live courier position/ETA for a tracking token, or ok=false.
func (r *Resilient) Progress(ctx context.Context, trackingToken string) (*models.ProviderProgress, bool) {
	if trackingToken == "" {
		return nil, false
	}
	var out *models.ProviderProgress
	err := r.call(ctx, func(ctx context.Context) error {
		p, err := r.c.FetchProgress(ctx, trackingToken)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrMalformed
		}
		out = p
		return nil
	})
	if err != nil {
		slog.Warn("dispatch progress unavailable", "token", trackingToken, "error", err.Error())
		return nil, false
	}
	return out, true
}

func (r *Resilient) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.initialBackoff
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.maxRetries)), ctx)

	return backoff.Retry(func() error {
		if err := r.allow(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

func (r *Resilient) allow(ctx context.Context) error {
	if r.rl == nil {
		return nil
	}
	minuteKey := fmt.Sprintf("rl:dispatch:%s", r.now().UTC().Format("200601021504"))
	allowed, n, err := r.rl.Allow(ctx, minuteKey, r.rlPerMinute, 70*time.Second)
	if err != nil {
		// квота best effort: без redis не блокируем провайдера
		slog.Warn("dispatch rate limiter unavailable", "error", err.Error())
		return nil
	}
	if !allowed {
		return errors.Wrapf(ErrRateLimited, "count=%d limit=%d", n, r.rlPerMinute)
	}
	return nil
}

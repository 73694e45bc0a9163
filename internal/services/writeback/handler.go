package writeback

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/BearBump/OrderTrack/internal/broker/messages"
	"github.com/cenkalti/backoff/v4"
)

type HandlerStats struct {
	Consumed int64 `json:"consumed"`
	Applied  int64 `json:"applied"`
	Skipped  int64 `json:"skipped"`
	Failed   int64 `json:"failed"`
	Retries  int64 `json:"retries"`
}

// Handler applies OrderFactsLearned messages in writeback-worker. A broken payload is
// logged and skipped; a failing sink is retried until ctx is done so the offset is never
// committed past an unapplied message.
type Handler struct {
	sink           Sink
	initialBackoff time.Duration
	maxBackoff     time.Duration

	consumed atomic.Int64
	applied  atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
	retries  atomic.Int64
}

func NewHandler(sink Sink) *Handler {
	return &Handler{sink: sink, initialBackoff: 200 * time.Millisecond, maxBackoff: 10 * time.Second}
}

func (h *Handler) WithBackoff(initial, maxInterval time.Duration) *Handler {
	if initial > 0 {
		h.initialBackoff = initial
	}
	if maxInterval > 0 {
		h.maxBackoff = maxInterval
	}
	return h
}

func (h *Handler) Handle(ctx context.Context, key, value []byte) error {
	h.consumed.Add(1)

	var m messages.OrderFactsLearned
	if err := json.Unmarshal(value, &m); err != nil {
		h.skipped.Add(1)
		slog.Error("bad facts message, skipped", "key", string(key), "error", err.Error())
		return nil
	}
	f := FromMessage(m)
	if f.OrderNumber == "" || f.IsEmpty() {
		h.skipped.Add(1)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = h.initialBackoff
	bo.MaxInterval = h.maxBackoff
	bo.MaxElapsedTime = 0

	err := backoff.RetryNotify(func() error {
		return h.sink.Apply(ctx, f)
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		h.retries.Add(1)
		slog.Warn("apply facts failed, retrying", "order", f.OrderNumber, "in", next.String(), "error", err.Error())
	})
	if err != nil {
		h.failed.Add(1)
		return err
	}
	h.applied.Add(1)
	return nil
}

func (h *Handler) Stats() HandlerStats {
	return HandlerStats{
		Consumed: h.consumed.Load(),
		Applied:  h.applied.Load(),
		Skipped:  h.skipped.Load(),
		Failed:   h.failed.Load(),
		Retries:  h.retries.Load(),
	}
}

package dispatch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/pkg/errors"
)

// Client is the dispatch provider API. Both calls are read-only on the provider side
// and safe to retry.
type Client interface {
	FetchOrderDetail(ctx context.Context, identifier string) (*models.ProviderOrderDetail, error)
	FetchProgress(ctx context.Context, trackingToken string) (*models.ProviderProgress, error)
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dispatch http %d: %s", e.Code, e.Body)
}

// ErrMalformed marks a 2xx response whose payload could not be used.
var ErrMalformed = errors.New("malformed dispatch payload")

// IsRetryable reports whether err is worth another attempt: 429, 5xx and network errors.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// TrackingToken extracts the token from a tracking link: the last non-empty path
// segment, query and fragment ignored. Returns "" when nothing can be derived.
func TrackingToken(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	path := link
	if u, err := url.Parse(link); err == nil {
		path = u.Path
		if path == "" && u.Scheme == "" {
			path = u.Opaque
		}
	} else {
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return ""
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// DetailIdentifier picks the identifier for the order detail call:
// provider order number, then provider order id, then our own order number.
func DetailIdentifier(o *models.Order) string {
	if o.ProviderOrderNumber != nil && *o.ProviderOrderNumber != "" {
		return *o.ProviderOrderNumber
	}
	if o.ProviderOrderID != nil && *o.ProviderOrderID != "" {
		return *o.ProviderOrderID
	}
	return o.OrderNumber
}

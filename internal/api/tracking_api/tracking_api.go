package tracking_api

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type TrackingService interface {
	GetTracking(ctx context.Context, reference string) (models.TrackingView, error)
}

type TrackingAPI struct {
	svc TrackingService
}

func New(svc TrackingService) *TrackingAPI {
	return &TrackingAPI{svc: svc}
}

func (a *TrackingAPI) GetTracking(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	v, err := a.svc.GetTracking(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(req.GetValue(), err)
	}
	out, err := ViewToStruct(v)
	if err != nil {
		slog.Error("tracking view encoding failed", "reference", req.GetValue(), "error", err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStatus: ambiguous references look like missing ones to the caller.
func toStatus(ref string, err error) error {
	switch {
	case errors.Is(err, tracking.ErrEmptyReference):
		return status.Error(codes.InvalidArgument, "orderReference is required")
	case errors.Is(err, tracking.ErrAmbiguousReference):
		slog.Warn("ambiguous order reference", "reference", ref, "error", err.Error())
		return status.Error(codes.NotFound, "order not found")
	case errors.Is(err, tracking.ErrNotFound):
		return status.Error(codes.NotFound, "order not found")
	default:
		slog.Error("get tracking failed", "reference", ref, "error", err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

// ViewToStruct keeps the JSON shape of TrackingView (omitted and null fields included).
func ViewToStruct(v models.TrackingView) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal view")
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal view")
	}
	return structpb.NewStruct(m)
}

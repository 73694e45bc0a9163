package tracking_api

import (
	"context"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const getTrackingPattern = "/v1/tracking/{orderReference}"

// RegisterTrackingServiceHandlerFromEndpoint dials the gRPC server and routes
// GET /v1/tracking/{orderReference} to it. The connection closes with ctx.
func RegisterTrackingServiceHandlerFromEndpoint(ctx context.Context, mux *runtime.ServeMux, endpoint string, opts []grpc.DialOption) error {
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return errors.Wrapf(err, "dial %s", endpoint)
	}
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	return RegisterTrackingServiceHandlerClient(mux, NewTrackingServiceClient(conn))
}

func RegisterTrackingServiceHandlerClient(mux *runtime.ServeMux, client TrackingServiceClient) error {
	return mux.HandlePath(http.MethodGet, getTrackingPattern, func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		_, outbound := runtime.MarshalerForRequest(mux, r)

		ctx, err := runtime.AnnotateContext(r.Context(), mux, r, GetTrackingMethod, runtime.WithHTTPPathPattern(getTrackingPattern))
		if err != nil {
			runtime.HTTPError(r.Context(), mux, outbound, w, r, err)
			return
		}

		ref, ok := pathParams["orderReference"]
		if !ok || ref == "" {
			runtime.HTTPError(ctx, mux, outbound, w, r, status.Error(codes.InvalidArgument, "orderReference is required"))
			return
		}

		resp, err := client.GetTracking(ctx, wrapperspb.String(ref))
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}
		runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, resp)
	})
}

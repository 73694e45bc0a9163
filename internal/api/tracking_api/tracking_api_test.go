package tracking_api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type stubService struct {
	views map[string]models.TrackingView
	errs  map[string]error
}

func (s *stubService) GetTracking(ctx context.Context, ref string) (models.TrackingView, error) {
	if err, ok := s.errs[ref]; ok {
		return models.TrackingView{}, err
	}
	if v, ok := s.views[ref]; ok {
		return v, nil
	}
	return models.TrackingView{}, errors.Wrap(tracking.ErrNotFound, ref)
}

func sampleView() models.TrackingView {
	eta := 12
	return models.TrackingView{
		OrderNumber:     "BF-1001",
		Status:          "STARTED",
		Customer:        models.Contact{Name: "Carla", Address: "Av. Juarez 10"},
		Business:        models.BusinessContact{Name: "Birria Flores"},
		Driver:          &models.Driver{Name: "Luis"},
		DriverLocation:  &models.Coordinate{Latitude: 19.1, Longitude: -103.7},
		EstimatedTime:   &eta,
		OrderItems:      []models.LineItem{{Name: "Birria", Quantity: 2, UnitPrice: 85}},
		DeliveryFee:     40,
		TotalCost:       210,
		PlacementTime:   "2026-03-01T10:00:00Z",
		ProofOfDelivery: []string{},
		Timeline:        []models.TimelineEntry{{Status: "ORDER_PLACED", Timestamp: "2026-03-01T10:00:00Z", Description: "Order placed"}},
	}
}

func newStub() *stubService {
	return &stubService{
		views: map[string]models.TrackingView{"BF-1001": sampleView()},
		errs: map[string]error{
			"":    tracking.ErrEmptyReference,
			"DUP": errors.Wrap(tracking.ErrAmbiguousReference, "order_number=DUP"),
			"ERR": errors.Wrap(tracking.ErrInternal, "db down"),
		},
	}
}

func TestTrackingAPI_StatusCodes(t *testing.T) {
	api := New(newStub())

	out, err := api.GetTracking(context.Background(), wrapperspb.String("BF-1001"))
	require.NoError(t, err)
	require.Equal(t, "STARTED", out.GetFields()["status"].GetStringValue())
	require.Equal(t, float64(12), out.GetFields()["estimatedTime"].GetNumberValue())

	cases := map[string]codes.Code{
		"":     codes.InvalidArgument,
		"DUP":  codes.NotFound,
		"NOPE": codes.NotFound,
		"ERR":  codes.Internal,
	}
	for ref, want := range cases {
		_, err := api.GetTracking(context.Background(), wrapperspb.String(ref))
		require.Equal(t, want, status.Code(err), "ref %q", ref)
	}
}

func TestViewToStruct_NullDeliveryTime(t *testing.T) {
	v := sampleView()
	v.Driver = nil
	v.EstimatedTime = nil

	s, err := ViewToStruct(v)
	require.NoError(t, err)
	fields := s.GetFields()
	require.Contains(t, fields, "deliveryTime")
	_, isNull := fields["deliveryTime"].GetKind().(*structpb.Value_NullValue)
	require.True(t, isNull)
	require.NotContains(t, fields, "driver")
	require.NotContains(t, fields, "estimatedTime")
}

func startGRPC(t *testing.T, srv TrackingServiceServer) string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := grpc.NewServer(grpc.UnaryInterceptor(LoggingUnaryInterceptor))
	RegisterTrackingServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)
	return lis.Addr().String()
}

func TestGRPC_RoundTrip(t *testing.T) {
	addr := startGRPC(t, New(newStub()))

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := NewTrackingServiceClient(conn)

	out, err := client.GetTracking(context.Background(), wrapperspb.String("BF-1001"))
	require.NoError(t, err)
	require.Equal(t, "Luis", out.GetFields()["driver"].GetStructValue().GetFields()["name"].GetStringValue())

	_, err = client.GetTracking(context.Background(), wrapperspb.String(""))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGateway(t *testing.T) {
	addr := startGRPC(t, New(newStub()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mux := runtime.NewServeMux()
	require.NoError(t, RegisterTrackingServiceHandlerFromEndpoint(ctx, mux, addr,
		[]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/tracking/BF-1001")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "BF-1001", got["orderNumber"])
	require.Equal(t, float64(12), got["estimatedTime"])
	require.Nil(t, got["deliveryTime"])
	require.Equal(t, []any{}, got["proofOfDelivery"])

	for ref, want := range map[string]int{"NOPE": http.StatusNotFound, "DUP": http.StatusNotFound, "ERR": http.StatusInternalServerError} {
		resp, err := http.Get(srv.URL + "/v1/tracking/" + ref)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, want, resp.StatusCode, ref)
	}
}

package tracking_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Service descriptor is declared by hand over well-known types: the request is the
// order reference, the response is the tracking view as a JSON object.
const (
	ServiceName       = "ordertrack.v1.TrackingService"
	GetTrackingMethod = "/ordertrack.v1.TrackingService/GetTracking"
)

type TrackingServiceServer interface {
	GetTracking(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

func RegisterTrackingServiceServer(s grpc.ServiceRegistrar, srv TrackingServiceServer) {
	s.RegisterService(&trackingServiceDesc, srv)
}

var trackingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetTracking", Handler: getTrackingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ordertrack/v1/tracking.proto",
}

func getTrackingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).GetTracking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetTrackingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrackingServiceServer).GetTracking(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type TrackingServiceClient interface {
	GetTracking(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type trackingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTrackingServiceClient(cc grpc.ClientConnInterface) TrackingServiceClient {
	return &trackingServiceClient{cc: cc}
}

func (c *trackingServiceClient) GetTracking(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetTrackingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

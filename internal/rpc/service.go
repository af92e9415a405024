// Package rpc exposes the latest polled frame over gRPC.
//
// The service is registered by hand instead of from generated code. Requests
// and responses are google.protobuf.Struct values so no .proto compilation
// step is needed; the response body carries the same fields as the HTTP
// /api/subjects response.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName       = "mocap.v1.FrameService"
	latestFrameMethod = "/" + ServiceName + "/LatestFrame"
)

// FrameServiceServer is the server API for FrameService.
type FrameServiceServer interface {
	// LatestFrame returns the most recent frame. The request may carry
	// "units" (m, mm, cm, in) and "subject" string fields.
	LatestFrame(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterFrameServiceServer registers srv with s.
func RegisterFrameServiceServer(s grpc.ServiceRegistrar, srv FrameServiceServer) {
	s.RegisterService(&frameServiceDesc, srv)
}

func latestFrameHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FrameServiceServer).LatestFrame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: latestFrameMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FrameServiceServer).LatestFrame(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var frameServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FrameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "LatestFrame",
			Handler:    latestFrameHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mocap/v1/frame.proto",
}

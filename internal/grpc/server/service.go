package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProfileServiceName is the fully qualified gRPC service name
const ProfileServiceName = "malt.v1.ProfileService"

// Method paths of ProfileService
const (
	ProcessProfileMethod = "/" + ProfileServiceName + "/ProcessProfile"
	GetProfileMethod     = "/" + ProfileServiceName + "/GetProfile"
)

// ProfileServiceServer is served with google.protobuf.Struct messages on both
// sides, so no generated code is involved.
//
//	ProcessProfile {url} -> {status, message, cached, data}
//	GetProfile {profile_id} -> {status, message, data}
type ProfileServiceServer interface {
	ProcessProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ProfileServiceDesc describes ProfileService for grpc.Server.RegisterService
var ProfileServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ProcessProfile",
			Handler:    unaryHandler(ProcessProfileMethod, ProfileServiceServer.ProcessProfile),
		},
		{
			MethodName: "GetProfile",
			Handler:    unaryHandler(GetProfileMethod, ProfileServiceServer.GetProfile),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "malt/v1/profile.proto",
}

type structMethod func(ProfileServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method structMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(ProfileServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(ProfileServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ProfileServiceClient calls ProfileService over conn
type ProfileServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewProfileServiceClient(conn grpc.ClientConnInterface) *ProfileServiceClient {
	return &ProfileServiceClient{conn: conn}
}

func (c *ProfileServiceClient) ProcessProfile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, ProcessProfileMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProfileServiceClient) GetProfile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, GetProfileMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "exchange.v1.VoluntaryChangesService"

	validateMethod = "/" + ServiceName + "/Validate"
	mergeMethod    = "/" + ServiceName + "/MergeConstraints"
)

// VoluntaryChangesServer is served with Struct payloads so that clients can call it
// without generated stubs, e.g. with grpcurl and reflection.
type VoluntaryChangesServer interface {
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MergeConstraints(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VoluntaryChangesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
		{MethodName: "MergeConstraints", Handler: mergeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "exchange/v1/voluntary_changes.proto",
}

func validateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VoluntaryChangesServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: validateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VoluntaryChangesServer).Validate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func mergeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VoluntaryChangesServer).MergeConstraints(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: mergeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VoluntaryChangesServer).MergeConstraints(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls VoluntaryChangesService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Validate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, validateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MergeConstraints(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, mergeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

package basketrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Full method names of the Basket service.
const (
	ServiceName = "BasketApi.Basket"

	GetBasketMethod    = "/" + ServiceName + "/GetBasket"
	UpdateBasketMethod = "/" + ServiceName + "/UpdateBasket"
	DeleteBasketMethod = "/" + ServiceName + "/DeleteBasket"
)

// BasketServer is the server API of the Basket service.
type BasketServer interface {
	GetBasket(context.Context, *GetBasketRequest) (*CustomerBasketResponse, error)
	UpdateBasket(context.Context, *UpdateBasketRequest) (*CustomerBasketResponse, error)
	DeleteBasket(context.Context, *DeleteBasketRequest) (*DeleteBasketResponse, error)
}

// UnimplementedBasketServer answers every method with codes.Unimplemented.
type UnimplementedBasketServer struct{}

func (UnimplementedBasketServer) GetBasket(context.Context, *GetBasketRequest) (*CustomerBasketResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBasket not implemented")
}

func (UnimplementedBasketServer) UpdateBasket(context.Context, *UpdateBasketRequest) (*CustomerBasketResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateBasket not implemented")
}

func (UnimplementedBasketServer) DeleteBasket(context.Context, *DeleteBasketRequest) (*DeleteBasketResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteBasket not implemented")
}

// RegisterBasketServer registers srv on s.
func RegisterBasketServer(s grpc.ServiceRegistrar, srv BasketServer) {
	s.RegisterService(&BasketServiceDesc, srv)
}

// BasketServiceDesc describes the Basket service for grpc.Server.
var BasketServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BasketServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBasket", Handler: getBasketHandler},
		{MethodName: "UpdateBasket", Handler: updateBasketHandler},
		{MethodName: "DeleteBasket", Handler: deleteBasketHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "basket.proto",
}

func getBasketHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBasketRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BasketServer).GetBasket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetBasketMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(BasketServer).GetBasket(ctx, req.(*GetBasketRequest))
	})
}

func updateBasketHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateBasketRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BasketServer).UpdateBasket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UpdateBasketMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(BasketServer).UpdateBasket(ctx, req.(*UpdateBasketRequest))
	})
}

func deleteBasketHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DeleteBasketRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BasketServer).DeleteBasket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DeleteBasketMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(BasketServer).DeleteBasket(ctx, req.(*DeleteBasketRequest))
	})
}

// BasketClient is the client API of the Basket service.
type BasketClient interface {
	GetBasket(ctx context.Context, in *GetBasketRequest, opts ...grpc.CallOption) (*CustomerBasketResponse, error)
	UpdateBasket(ctx context.Context, in *UpdateBasketRequest, opts ...grpc.CallOption) (*CustomerBasketResponse, error)
	DeleteBasket(ctx context.Context, in *DeleteBasketRequest, opts ...grpc.CallOption) (*DeleteBasketResponse, error)
}

type basketClient struct {
	cc grpc.ClientConnInterface
}

// NewBasketClient returns a stub that sends JSON-encoded calls over cc.
func NewBasketClient(cc grpc.ClientConnInterface) BasketClient {
	return &basketClient{cc: cc}
}

func (c *basketClient) GetBasket(ctx context.Context, in *GetBasketRequest, opts ...grpc.CallOption) (*CustomerBasketResponse, error) {
	out := new(CustomerBasketResponse)
	if err := c.cc.Invoke(ctx, GetBasketMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *basketClient) UpdateBasket(ctx context.Context, in *UpdateBasketRequest, opts ...grpc.CallOption) (*CustomerBasketResponse, error) {
	out := new(CustomerBasketResponse)
	if err := c.cc.Invoke(ctx, UpdateBasketMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *basketClient) DeleteBasket(ctx context.Context, in *DeleteBasketRequest, opts ...grpc.CallOption) (*DeleteBasketResponse, error) {
	out := new(DeleteBasketResponse)
	if err := c.cc.Invoke(ctx, DeleteBasketMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

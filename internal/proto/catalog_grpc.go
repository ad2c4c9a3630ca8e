package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC name of the catalog service.
const ServiceName = "recipebook.v1.Catalog"

// CatalogServer is the read-only catalog API. Requests and responses are
// google.protobuf.Struct messages; list responses carry an "items" list.
type CatalogServer interface {
	ListTags(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListIngredients(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRecipes(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type catalogCall func(CatalogServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call catalogCall) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CatalogServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var Catalog_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListTags",
			Handler:    unaryHandler("ListTags", CatalogServer.ListTags),
		},
		{
			MethodName: "ListIngredients",
			Handler:    unaryHandler("ListIngredients", CatalogServer.ListIngredients),
		},
		{
			MethodName: "ListRecipes",
			Handler:    unaryHandler("ListRecipes", CatalogServer.ListRecipes),
		},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&Catalog_ServiceDesc, srv)
}

// CatalogClient calls a remote CatalogServer.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) ListTags(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListTags", in, opts...)
}

func (c *CatalogClient) ListIngredients(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListIngredients", in, opts...)
}

func (c *CatalogClient) ListRecipes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListRecipes", in, opts...)
}

func (c *CatalogClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

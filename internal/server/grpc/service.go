package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// StoreService is the unary surface of gophstore.v1.StoreService. Messages
// are structpb.Struct so no generated stubs are needed on either side.
type StoreService interface {
	CreateIntent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmIntent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOwnerships(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(context.Context, *structpb.Struct) (*structpb.Struct, error)

// Register attaches svc to server under common.StoreServiceName.
func Register(server grpc.ServiceRegistrar, svc StoreService) {
	methods := []struct {
		name string
		call unaryMethod
	}{
		{"CreateIntent", svc.CreateIntent},
		{"ConfirmIntent", svc.ConfirmIntent},
		{"IssueToken", svc.IssueToken},
		{"ResolveToken", svc.ResolveToken},
		{"ListOwnerships", svc.ListOwnerships},
		{"Ping", svc.Ping},
	}

	desc := &grpc.ServiceDesc{
		ServiceName: common.StoreServiceName,
		HandlerType: (*StoreService)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "gophstore/v1/store.proto",
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    unaryHandler(m.name, m.call),
		})
	}

	server.RegisterService(desc, svc)
}

func unaryHandler(name string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: common.StoreMethod(name),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

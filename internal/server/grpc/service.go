package grpc

import (
	"context"

	"github.com/dmitrijs2005/letterdesk/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TemplateServiceServer is the server side of wire.ServiceName.
type TemplateServiceServer interface {
	GetTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReplaceZones(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTemplateConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateZone(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteZone(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportLetter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Preview(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
}

type unaryCall func(srv TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TemplateServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: wire.FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(TemplateServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// TemplateServiceDesc describes wire.ServiceName for grpc.Server.RegisterService.
var TemplateServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*TemplateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(wire.MethodGetTemplate, func(s TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.GetTemplate(ctx, in)
		}),
		unaryMethod(wire.MethodReplaceZones, func(s TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.ReplaceZones(ctx, in)
		}),
		unaryMethod(wire.MethodUpdateTemplateConfig, func(s TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.UpdateTemplateConfig(ctx, in)
		}),
		unaryMethod(wire.MethodCreateZone, func(s TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.CreateZone(ctx, in)
		}),
		unaryMethod(wire.MethodDeleteZone, func(s TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.DeleteZone(ctx, in)
		}),
		unaryMethod(wire.MethodExportLetter, func(s TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.ExportLetter(ctx, in)
		}),
		unaryMethod(wire.MethodPreview, func(s TemplateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Preview(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "letterdesk/v1/template_service.proto",
}

package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/wire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// toStatus maps service errors onto gRPC codes.
func toStatus(err error) error {
	var pe *common.PersistenceError
	var ee *common.EncodingError

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrExportInProgress), errors.Is(err, common.ErrSaveInProgress):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrGeometryViolation), errors.Is(err, common.ErrInvalidField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.As(err, &pe):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.As(err, &ee), errors.Is(err, common.ErrEmptyDocument),
		errors.Is(err, common.ErrAssetLoad), errors.Is(err, common.ErrMissingBackground):
		return status.Error(codes.Internal, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	s.logger.Error(ctx, "request failed", "rpc", method, "error", err.Error())
	return toStatus(err)
}

func decode(in *structpb.Struct, v any) error {
	if err := wire.Decode(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := wire.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func empty() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}
}

func (s *GRPCServer) GetTemplate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.TemplateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	tpl, err := s.templates.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodGetTemplate, err)
	}
	return encode(tpl)
}

func (s *GRPCServer) ReplaceZones(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.ReplaceZonesRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	if err := s.templates.ReplaceZones(ctx, req.TemplateID, req.Zones); err != nil {
		return nil, s.fail(ctx, wire.MethodReplaceZones, err)
	}
	return empty(), nil
}

func (s *GRPCServer) UpdateTemplateConfig(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.UpdateConfigRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	if err := s.templates.UpdateTemplateConfig(ctx, req.TemplateID, req.Config); err != nil {
		return nil, s.fail(ctx, wire.MethodUpdateTemplateConfig, err)
	}
	return empty(), nil
}

func (s *GRPCServer) CreateZone(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.CreateZoneRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	z, err := s.templates.CreateZone(ctx, req.TemplateID, req.Zone)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodCreateZone, err)
	}
	return encode(z)
}

func (s *GRPCServer) DeleteZone(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.DeleteZoneRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	if err := s.templates.DeleteZone(ctx, req.ZoneID); err != nil {
		return nil, s.fail(ctx, wire.MethodDeleteZone, err)
	}
	return empty(), nil
}

func (s *GRPCServer) ExportLetter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.ExportRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.LetterID == "" {
		return nil, status.Error(codes.InvalidArgument, "letter_id is required")
	}

	res, err := s.exports.Export(ctx, req.LetterID, req.TemplateID)
	if err != nil {
		return nil, s.fail(ctx, wire.MethodExportLetter, err)
	}
	return encode(wire.ExportResponse{Document: res.Document, Location: res.Location, Warnings: res.Warnings})
}

func (s *GRPCServer) Preview(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	var req wire.PreviewRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	png, err := s.templates.Preview(ctx, req.TemplateID, layout.ElementID(req.Selected))
	if err != nil {
		return nil, s.fail(ctx, wire.MethodPreview, err)
	}
	return wrapperspb.Bytes(png), nil
}

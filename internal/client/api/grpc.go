package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/server/auth"
	"github.com/dmitrijs2005/letterdesk/internal/wire"
	"github.com/dmitrijs2005/letterdesk/internal/zonestore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// tokenTTL is the lifetime of the tokens the client mints for itself.
const tokenTTL = time.Hour

var _ zonestore.Persistence = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	editor      string
	secret      []byte
	dialOpts    []grpc.DialOption

	mu          sync.Mutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// token returns the current access token, minting a new one when refresh
// is set or none exists yet.
func (s *GRPCClient) token(refresh bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" || refresh {
		t, err := auth.GenerateToken(s.editor, s.secret, tokenTTL)
		if err != nil {
			return "", err
		}
		s.accessToken = t
	}
	return s.accessToken, nil
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	tok, err := s.token(false)
	if err != nil {
		return err
	}

	err = invoker(withAccessToken(ctx, tok), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	// token expired, minting a new one
	tok, err = s.token(true)
	if err != nil {
		return err
	}
	return invoker(withAccessToken(ctx, tok), method, req, reply, cc, opts...)
}

// NewGRPCClient prepares a client that authenticates as editor with tokens
// signed by secret. No connection is made until the first call.
func NewGRPCClient(endpointURL, secret, editor string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, secret: []byte(secret), editor: editor, dialOpts: opts}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(common.DefaultMaxMessageSize),
			grpc.MaxCallSendMsgSize(common.DefaultMaxMessageSize),
		),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrorNotFound)
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.FailedPrecondition:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrExportInProgress)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrGeometryViolation)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// call sends req to method and decodes the reply into out when non-nil.
func (s *GRPCClient) call(ctx context.Context, method string, req, out any) error {
	in, err := wire.Encode(req)
	if err != nil {
		return err
	}
	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, wire.FullMethod(method), in, resp); err != nil {
		return s.mapError(err)
	}
	if out == nil {
		return nil
	}
	return wire.Decode(resp, out)
}

func (s *GRPCClient) GetTemplate(ctx context.Context, id string) (*layout.Template, error) {
	var t layout.Template
	if err := s.call(ctx, wire.MethodGetTemplate, wire.TemplateRequest{TemplateID: id}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GRPCClient) ReplaceZones(ctx context.Context, templateID string, zones []layout.Zone) error {
	return s.call(ctx, wire.MethodReplaceZones, wire.ReplaceZonesRequest{TemplateID: templateID, Zones: zones}, nil)
}

func (s *GRPCClient) UpdateTemplateConfig(ctx context.Context, templateID string, cfg layout.Config) error {
	return s.call(ctx, wire.MethodUpdateTemplateConfig, wire.UpdateConfigRequest{TemplateID: templateID, Config: cfg}, nil)
}

func (s *GRPCClient) CreateZone(ctx context.Context, templateID string, zone layout.Zone) (layout.Zone, error) {
	var z layout.Zone
	err := s.call(ctx, wire.MethodCreateZone, wire.CreateZoneRequest{TemplateID: templateID, Zone: zone}, &z)
	return z, err
}

func (s *GRPCClient) DeleteZone(ctx context.Context, zoneID string) error {
	return s.call(ctx, wire.MethodDeleteZone, wire.DeleteZoneRequest{ZoneID: zoneID}, nil)
}

// ExportLetter asks the server to compose and deliver a letter.
func (s *GRPCClient) ExportLetter(ctx context.Context, letterID, templateID string) (*wire.ExportResponse, error) {
	var res wire.ExportResponse
	if err := s.call(ctx, wire.MethodExportLetter, wire.ExportRequest{LetterID: letterID, TemplateID: templateID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Preview returns the server-rendered overlay PNG of a saved template.
func (s *GRPCClient) Preview(ctx context.Context, templateID string, selected layout.ElementID) ([]byte, error) {
	in, err := wire.Encode(wire.PreviewRequest{TemplateID: templateID, Selected: string(selected)})
	if err != nil {
		return nil, err
	}
	out := &wrapperspb.BytesValue{}
	if err := s.conn.Invoke(ctx, wire.FullMethod(wire.MethodPreview), in, out); err != nil {
		return nil, s.mapError(err)
	}
	return out.Value, nil
}

package api

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/server/auth"
	sg "github.com/dmitrijs2005/letterdesk/internal/server/grpc"
	"github.com/dmitrijs2005/letterdesk/internal/wire"
	"github.com/dmitrijs2005/letterdesk/internal/zonestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// fakeServer serves templates from memory and checks the access token.
type fakeServer struct {
	mem        *zonestore.MemoryPersistence
	secret     []byte
	expireOnce bool
	tokens     []string
}

func (f *fakeServer) authorize(ctx context.Context) error {
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get(common.AccessTokenHeaderName)
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing token")
	}
	f.tokens = append(f.tokens, vals[0])
	if f.expireOnce {
		f.expireOnce = false
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	if _, err := auth.EditorFromToken(vals[0], f.secret); err != nil {
		return status.Error(codes.Unauthenticated, err.Error())
	}
	return nil
}

func toStatus(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func (f *fakeServer) GetTemplate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := f.authorize(ctx); err != nil {
		return nil, err
	}
	var req wire.TemplateRequest
	if err := wire.Decode(in, &req); err != nil {
		return nil, err
	}
	t, err := f.mem.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, toStatus(err)
	}
	return wire.Encode(t)
}

func (f *fakeServer) ReplaceZones(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := f.authorize(ctx); err != nil {
		return nil, err
	}
	var req wire.ReplaceZonesRequest
	if err := wire.Decode(in, &req); err != nil {
		return nil, err
	}
	if err := f.mem.ReplaceZones(ctx, req.TemplateID, req.Zones); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (f *fakeServer) UpdateTemplateConfig(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := f.authorize(ctx); err != nil {
		return nil, err
	}
	var req wire.UpdateConfigRequest
	if err := wire.Decode(in, &req); err != nil {
		return nil, err
	}
	if err := f.mem.UpdateTemplateConfig(ctx, req.TemplateID, req.Config); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (f *fakeServer) CreateZone(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := f.authorize(ctx); err != nil {
		return nil, err
	}
	var req wire.CreateZoneRequest
	if err := wire.Decode(in, &req); err != nil {
		return nil, err
	}
	z, err := f.mem.CreateZone(ctx, req.TemplateID, req.Zone)
	if err != nil {
		return nil, toStatus(err)
	}
	return wire.Encode(z)
}

func (f *fakeServer) DeleteZone(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := f.authorize(ctx); err != nil {
		return nil, err
	}
	var req wire.DeleteZoneRequest
	if err := wire.Decode(in, &req); err != nil {
		return nil, err
	}
	if err := f.mem.DeleteZone(ctx, req.ZoneID); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (f *fakeServer) ExportLetter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := f.authorize(ctx); err != nil {
		return nil, err
	}
	var req wire.ExportRequest
	if err := wire.Decode(in, &req); err != nil {
		return nil, err
	}
	if req.LetterID == "busy" {
		return nil, status.Error(codes.FailedPrecondition, "template t1: export already in progress")
	}
	if req.LetterID == "scanned" {
		return wire.Encode(wire.ExportResponse{Document: scannedPDF(), Location: "mem://scanned.pdf"})
	}
	return wire.Encode(wire.ExportResponse{Document: []byte("%PDF-1.4"), Location: "mem://" + req.LetterID + ".pdf"})
}

func (f *fakeServer) Preview(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	if err := f.authorize(ctx); err != nil {
		return nil, err
	}
	var req wire.PreviewRequest
	if err := wire.Decode(in, &req); err != nil {
		return nil, err
	}
	return wrapperspb.Bytes([]byte(req.TemplateID + "/" + req.Selected)), nil
}

// scannedPDF stands in for a letter on a scanned letterhead: a document
// well past the 4 MB gRPC default once base64-encoded.
func scannedPDF() []byte {
	doc := make([]byte, 6<<20)
	copy(doc, "%PDF-1.4")
	for i := 8; i < len(doc); i++ {
		doc[i] = byte(i * 7)
	}
	return doc
}

var _ sg.TemplateServiceServer = (*fakeServer)(nil)

func newClient(t *testing.T, secret string) (*GRPCClient, *fakeServer) {
	t.Helper()
	mem := zonestore.NewMemoryPersistence()
	cfg := layout.DefaultConfig()
	mem.Put(layout.Template{ID: "t1", Name: "Letterhead", Config: &cfg})
	fake := &fakeServer{mem: mem, secret: []byte("secret")}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&sg.TemplateServiceDesc, fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", secret, "designer",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, fake
}

func TestGRPCClient_Persistence(t *testing.T) {
	c, _ := newClient(t, "secret")
	ctx := context.Background()

	z, err := c.CreateZone(ctx, "t1", layout.NewZone(layout.A4))
	require.NoError(t, err)
	assert.NotEmpty(t, z.ID)

	z.Rect.X = 10
	require.NoError(t, c.ReplaceZones(ctx, "t1", []layout.Zone{z}))

	cfg := layout.DefaultConfig()
	cfg.Verification.Enabled = true
	require.NoError(t, c.UpdateTemplateConfig(ctx, "t1", cfg))

	tpl, err := c.GetTemplate(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, tpl.Zones, 1)
	assert.Equal(t, 10, tpl.Zones[0].Rect.X)
	assert.True(t, tpl.Config.Verification.Enabled)

	require.NoError(t, c.DeleteZone(ctx, z.ID))
	assert.ErrorIs(t, c.DeleteZone(ctx, z.ID), common.ErrorNotFound)

	_, err = c.GetTemplate(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGRPCClient_ExportAndPreview(t *testing.T) {
	c, _ := newClient(t, "secret")
	ctx := context.Background()

	res, err := c.ExportLetter(ctx, "l1", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), res.Document)
	assert.Equal(t, "mem://l1.pdf", res.Location)

	_, err = c.ExportLetter(ctx, "busy", "")
	assert.ErrorIs(t, err, common.ErrExportInProgress)

	png, err := c.Preview(ctx, "t1", "z9")
	require.NoError(t, err)
	assert.Equal(t, "t1/z9", string(png))
}

func TestGRPCClient_ExportLargeDocument(t *testing.T) {
	c, _ := newClient(t, "secret")

	res, err := c.ExportLetter(context.Background(), "scanned", "")
	require.NoError(t, err)
	assert.Equal(t, scannedPDF(), res.Document)
	assert.Equal(t, "mem://scanned.pdf", res.Location)
}

func TestGRPCClient_WrongSecret(t *testing.T) {
	c, _ := newClient(t, "other")
	_, err := c.GetTemplate(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGRPCClient_RetriesExpiredToken(t *testing.T) {
	c, fake := newClient(t, "secret")
	fake.expireOnce = true

	_, err := c.GetTemplate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, fake.tokens, 2)
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}
	assert.Nil(t, c.mapError(nil))
	assert.ErrorIs(t, c.mapError(status.Error(codes.Unavailable, "down")), ErrUnavailable)
	assert.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "zone z1")), common.ErrGeometryViolation)
	assert.ErrorContains(t, c.mapError(status.Error(codes.Internal, "boom")), "rpc error")
}

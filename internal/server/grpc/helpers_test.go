package grpc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/compose"
	"github.com/dmitrijs2005/letterdesk/internal/export"
	"github.com/dmitrijs2005/letterdesk/internal/fonts"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/preview"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
	"github.com/dmitrijs2005/letterdesk/internal/server/services"
	"github.com/dmitrijs2005/letterdesk/internal/zonestore"
	"github.com/stretchr/testify/require"
)

type memTemplates struct {
	*zonestore.MemoryPersistence
}

func (m memTemplates) CreateTemplate(_ context.Context, t layout.Template) error {
	m.Put(t)
	return nil
}

func (m memTemplates) ListDefaultZones(context.Context, time.Time) ([]models.ZoneRecord, error) {
	return nil, nil
}

type memAssets map[string][]byte

func (m memAssets) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, common.ErrorNotFound)
	}
	return b, nil
}

type memLetters map[string]*models.LetterContent

func (m memLetters) GetLetterContent(_ context.Context, id string) (*models.LetterContent, error) {
	l, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("letter %s: %w", id, common.ErrorNotFound)
	}
	return l, nil
}

type memDeliverer struct{}

func (memDeliverer) Deliver(_ context.Context, _ []byte, name string) (string, error) {
	return "mem://" + name, nil
}

func whitePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 42))
	for y := 0; y < 42; y++ {
		for x := 0; x < 30; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newTestServer wires real services over in-memory backends.
func newTestServer(t *testing.T, secret string) *GRPCServer {
	return newTestServerLimited(t, secret, 0)
}

func newTestServerLimited(t *testing.T, secret string, maxMsg int) *GRPCServer {
	t.Helper()
	repo := memTemplates{zonestore.NewMemoryPersistence()}
	cfg := layout.DefaultConfig()
	repo.Put(layout.Template{
		ID: "t1", Name: "Letterhead", BackgroundRef: "bg/t1.png", Config: &cfg,
		Zones: []layout.Zone{{
			ID: "z1", Name: "Recipient", Rect: layout.Rect{X: 40, Y: 200, Width: 200, Height: 40},
			FontFamily: "default", FontSize: 14, Alignment: layout.AlignLeft,
		}},
	})
	assets := memAssets{"bg/t1.png": whitePNG(t)}

	reg, err := fonts.NewRegistry("", nil)
	require.NoError(t, err)
	r, err := preview.New(layout.A4, 1)
	require.NoError(t, err)

	busy := &services.InFlight{}
	ts := services.NewTemplateService(repo, assets, r, layout.A4, busy, logging.NopLogger{})
	es := services.NewExportService(services.ExportDeps{
		Templates: repo,
		Letters: memLetters{"l1": {
			ID: "l1", TemplateID: "t1", SerialNumber: "A-17", IssueDate: "2024-05-01",
			Body: "<p>Hello</p>", Fields: map[string]string{"Recipient": "Ada"},
		}},
		Assets:    assets,
		Composer:  compose.New(reg, compose.Options{}, nil),
		Exporter:  export.New(export.Options{}, nil),
		Deliverer: memDeliverer{},
		Busy:      busy,
	}, logging.NopLogger{})

	s, err := NewGRPCServer("127.0.0.1:0", logging.NopLogger{}, ts, es, secret, maxMsg)
	require.NoError(t, err)
	return s
}

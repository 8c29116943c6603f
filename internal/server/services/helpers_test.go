package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
	"github.com/dmitrijs2005/letterdesk/internal/zonestore"
)

// memRepo is a templates.Repository over the in-memory store.
type memRepo struct {
	*zonestore.MemoryPersistence
	gets     atomic.Int32
	defaults []models.ZoneRecord
	listErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{MemoryPersistence: zonestore.NewMemoryPersistence()}
}

func (m *memRepo) GetTemplate(ctx context.Context, id string) (*layout.Template, error) {
	m.gets.Add(1)
	return m.MemoryPersistence.GetTemplate(ctx, id)
}

func (m *memRepo) CreateTemplate(_ context.Context, t layout.Template) error {
	m.Put(t)
	return nil
}

func (m *memRepo) ListDefaultZones(_ context.Context, before time.Time) ([]models.ZoneRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.ZoneRecord
	for _, r := range m.defaults {
		if r.CreatedAt.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAssets struct {
	mu    sync.Mutex
	files map[string][]byte
	// onGet runs after every fetch, before the caller sees the result
	onGet func(key string)
}

func (f *fakeAssets) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	b, ok := f.files[key]
	hook := f.onGet
	f.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, common.ErrorNotFound)
	}
	return b, nil
}

type fakeLetters map[string]*models.LetterContent

func (f fakeLetters) GetLetterContent(_ context.Context, id string) (*models.LetterContent, error) {
	l, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("letter %s: %w", id, common.ErrorNotFound)
	}
	c := *l
	return &c, nil
}

type fakeDeliverer struct {
	name string
	data []byte
	err  error
}

func (f *fakeDeliverer) Deliver(_ context.Context, data []byte, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name, f.data = name, data
	return "mem://" + name, nil
}

type fakeSymbols struct {
	payload string
	size    int
	png     []byte
	err     error
}

func (f *fakeSymbols) Symbol(_ context.Context, payload string, size int) ([]byte, error) {
	f.payload, f.size = payload, size
	return f.png, f.err
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func seedTemplate(t *testing.T, repo *memRepo) layout.Template {
	t.Helper()
	cfg := layout.DefaultConfig()
	tpl := layout.Template{
		ID: "t1", Name: "Letterhead", BackgroundRef: "bg/t1.png", Config: &cfg,
		Zones: []layout.Zone{{
			ID: "z1", Name: "Recipient", Rect: layout.Rect{X: 40, Y: 200, Width: 200, Height: 40},
			FontFamily: "default", FontSize: 14, Alignment: layout.AlignLeft,
		}},
	}
	repo.Put(tpl)
	return tpl
}

// Package fonts resolves font families to parsed OpenType fonts.
//
// Families are files in a font directory: "<family>.ttf" (or .otf) for the
// regular face and "<family>-bold", "-italic", "-bolditalic" for variants.
// The Go fonts are always available and stand in for anything that cannot
// be loaded. An embedded DejaVu Sans Condensed covers the Arabic script
// for faces that lack it.
package fonts

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/letterdesk/internal/logging"
	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily resolves to the built-in Go fonts without a warning.
const DefaultFamily = "default"

// ErrFamilyNotFound is returned when no file exists for a family.
var ErrFamilyNotFound = errors.New("font family not found")

//go:embed builtin/*.ttf
var builtinFS embed.FS

// Font is one parsed font file. OT measures and checks coverage, Shaping
// feeds the text shaper and provides glyph outlines. Both are safe for
// concurrent use.
type Font struct {
	Name    string
	OT      *opentype.Font
	Shaping *gtfont.Font
}

// Parse reads a TrueType or OpenType font.
func Parse(name string, b []byte) (*Font, error) {
	ot, err := opentype.Parse(b)
	if err != nil {
		return nil, err
	}
	face, err := gtfont.ParseTTF(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return &Font{Name: name, OT: ot, Shaping: face.Font}, nil
}

// Variant selects a face within a family.
type Variant struct {
	Bold   bool
	Italic bool
}

func (v Variant) suffix() string {
	switch {
	case v.Bold && v.Italic:
		return "-bolditalic"
	case v.Bold:
		return "-bold"
	case v.Italic:
		return "-italic"
	}
	return ""
}

type key struct {
	family  string
	variant Variant
}

// Registry caches parsed fonts by family and variant. Parsed fonts are safe
// for concurrent use; faces created from them are not and belong to the
// caller.
type Registry struct {
	dir    string
	logger logging.Logger

	mu    sync.RWMutex
	files map[string]string // lower-case base name -> path
	fonts map[key]*Font

	builtin  map[Variant]*Font
	fallback map[Variant]*Font
	readFn   func(string) ([]byte, error)
}

// NewRegistry indexes dir. An empty dir leaves only the built-in fonts.
func NewRegistry(dir string, logger logging.Logger) (*Registry, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	r := &Registry{
		dir:     dir,
		logger:  logger.With("module", "fonts"),
		fonts:    make(map[key]*Font),
		builtin:  make(map[Variant]*Font),
		fallback: make(map[Variant]*Font),
		readFn:   os.ReadFile,
	}
	for v, ttf := range map[Variant][]byte{
		{}:                         goregular.TTF,
		{Bold: true}:               gobold.TTF,
		{Italic: true}:             goitalic.TTF,
		{Bold: true, Italic: true}: gobolditalic.TTF,
	} {
		f, err := Parse(DefaultFamily, ttf)
		if err != nil {
			return nil, fmt.Errorf("parse built-in font: %w", err)
		}
		r.builtin[v] = f
	}
	for _, bold := range []bool{false, true} {
		name := "builtin/DejaVuSansCondensed.ttf"
		if bold {
			name = "builtin/DejaVuSansCondensed-Bold.ttf"
		}
		b, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read fallback font: %w", err)
		}
		f, err := Parse("dejavu", b)
		if err != nil {
			return nil, fmt.Errorf("parse fallback font: %w", err)
		}
		r.fallback[Variant{Bold: bold}] = f
		r.fallback[Variant{Bold: bold, Italic: true}] = f
	}
	if err := r.Rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the indexed directory.
func (r *Registry) Dir() string { return r.dir }

// Rescan rebuilds the file index and drops cached fonts.
func (r *Registry) Rescan() error {
	files := make(map[string]string)
	if r.dir != "" {
		entries, err := os.ReadDir(r.dir)
		if err != nil {
			return fmt.Errorf("read font dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !isFontFile(e.Name()) {
				continue
			}
			base := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
			files[base] = filepath.Join(r.dir, e.Name())
		}
	}
	r.mu.Lock()
	r.files = files
	r.fonts = make(map[key]*Font)
	r.mu.Unlock()
	return nil
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf":
		return true
	}
	return false
}

// Families lists the families found in the font directory.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for base := range r.files {
		if !strings.ContainsRune(base, '-') {
			out = append(out, base)
		}
	}
	return out
}

// Builtin returns the Go font for a variant.
func (r *Registry) Builtin(v Variant) *Font { return r.builtin[v] }

// Fallback returns the font used for runes the requested and the Go fonts
// both lack. Italic variants share the upright face.
func (r *Registry) Fallback(v Variant) *Font { return r.fallback[v] }

// Load returns the font of a family. Missing variants fall back to the
// regular face of the same family. Loading gives up when ctx is done.
func (r *Registry) Load(ctx context.Context, family string, v Variant) (*Font, error) {
	family = strings.ToLower(strings.TrimSpace(family))
	if family == "" || family == DefaultFamily {
		return r.builtin[v], nil
	}
	k := key{family: family, variant: v}

	r.mu.RLock()
	if f, ok := r.fonts[k]; ok {
		r.mu.RUnlock()
		return f, nil
	}
	path, ok := r.files[family+v.suffix()]
	if !ok {
		path, ok = r.files[family]
	}
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFamilyNotFound, family)
	}

	type result struct {
		f   *Font
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := r.readFn(path)
		if err != nil {
			done <- result{err: err}
			return
		}
		f, err := Parse(family, b)
		done <- result{f: f, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load font %s: %w", family, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("load font %s: %w", family, res.err)
		}
		r.mu.Lock()
		r.fonts[k] = res.f
		r.mu.Unlock()
		r.logger.Debug(ctx, "font loaded", "family", family, "path", path)
		return res.f, nil
	}
}

// NewFace creates a measuring face of f at size points for the given dpi.
func NewFace(f *Font, size, dpi float64) (font.Face, error) {
	return opentype.NewFace(f.OT, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	})
}

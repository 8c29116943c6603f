package fonts

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

func writeFont(t *testing.T, dir, name string, b []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o644))
}

func TestRegistry_DefaultFamilyIsBuiltin(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)

	f, err := r.Load(context.Background(), "default", Variant{Bold: true})
	require.NoError(t, err)
	assert.Same(t, r.Builtin(Variant{Bold: true}), f)

	f, err = r.Load(context.Background(), "", Variant{})
	require.NoError(t, err)
	assert.Same(t, r.Builtin(Variant{}), f)
}

func TestRegistry_LoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "Mono.ttf", gomono.TTF)
	writeFont(t, dir, "mono-Bold.TTF", gobold.TTF)
	writeFont(t, dir, "notes.txt", []byte("not a font"))

	r, err := NewRegistry(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mono"}, r.Families())

	regular, err := r.Load(context.Background(), "Mono", Variant{})
	require.NoError(t, err)
	bold, err := r.Load(context.Background(), "mono", Variant{Bold: true})
	require.NoError(t, err)
	assert.NotSame(t, regular, bold)

	// italic is missing and falls back to the regular file
	italic, err := r.Load(context.Background(), "mono", Variant{Italic: true})
	require.NoError(t, err)
	assert.NotNil(t, italic)

	// cached
	again, err := r.Load(context.Background(), "mono", Variant{})
	require.NoError(t, err)
	assert.Same(t, regular, again)

	face, err := NewFace(regular, 14, 216)
	require.NoError(t, err)
	assert.Positive(t, face.Metrics().Height.Ceil())
}

func TestRegistry_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "broken.ttf", []byte("garbage"))
	writeFont(t, dir, "slow.ttf", gomono.TTF)

	r, err := NewRegistry(dir, nil)
	require.NoError(t, err)

	_, err = r.Load(context.Background(), "missing", Variant{})
	assert.ErrorIs(t, err, ErrFamilyNotFound)

	_, err = r.Load(context.Background(), "broken", Variant{})
	assert.Error(t, err)

	block := make(chan struct{})
	defer close(block)
	r.readFn = func(string) ([]byte, error) {
		<-block
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Load(ctx, "slow", Variant{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = NewRegistry(filepath.Join(dir, "nope"), nil)
	assert.Error(t, err)
}

func TestRegistry_RescanPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Families())

	writeFont(t, dir, "b.ttf", gomono.TTF)
	writeFont(t, dir, "a.otf", gomono.TTF)
	require.NoError(t, r.Rescan())
	fams := r.Families()
	sort.Strings(fams)
	assert.Equal(t, []string{"a", "b"}, fams)
}

func TestRegistry_Watch(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	writeFont(t, dir, "late.ttf", gomono.TTF)

	assert.Eventually(t, func() bool {
		return len(r.Families()) == 1
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRegistry_FallbackCoversArabic(t *testing.T) {
	r, err := NewRegistry("", nil)
	require.NoError(t, err)

	goFace, err := NewFace(r.Builtin(Variant{}), 12, 72)
	require.NoError(t, err)
	_, ok := goFace.GlyphAdvance('ب')
	assert.False(t, ok, "Go fonts have no Arabic")

	for _, v := range []Variant{{}, {Bold: true}, {Italic: true}, {Bold: true, Italic: true}} {
		f := r.Fallback(v)
		require.NotNil(t, f, "variant %+v", v)
		require.NotNil(t, f.Shaping)
		face, err := NewFace(f, 12, 72)
		require.NoError(t, err)
		for _, c := range "کتابسلامیگ" {
			_, ok := face.GlyphAdvance(c)
			assert.True(t, ok, "rune %q variant %+v", c, v)
		}
	}
	assert.NotSame(t, r.Fallback(Variant{}), r.Fallback(Variant{Bold: true}))
}

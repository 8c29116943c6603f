package layout

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomRect(rng *rand.Rand) Rect {
	return Rect{
		X:      rng.Intn(2000) - 1000,
		Y:      rng.Intn(2000) - 1000,
		Width:  rng.Intn(2000) - 500,
		Height: rng.Intn(2000) - 500,
	}
}

func TestClampToPage_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		r := randomRect(rng)
		once := ClampToPage(r, A4)
		require.Equal(t, once, ClampToPage(once, A4), "input %+v", r)
		require.True(t, once.Inside(A4), "input %+v -> %+v", r, once)
	}
}

func TestClampToPage_Cases(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside untouched", Rect{10, 20, 100, 50}, Rect{10, 20, 100, 50}},
		{"negative origin shifted", Rect{-30, -5, 100, 50}, Rect{0, 0, 100, 50}},
		{"overflowing right shifted", Rect{560, 10, 100, 50}, Rect{495, 10, 100, 50}},
		{"overflowing bottom shifted", Rect{10, 820, 100, 50}, Rect{10, 792, 100, 50}},
		{"too wide shrunk", Rect{10, 10, 900, 50}, Rect{0, 10, 595, 50}},
		{"negative extents zeroed", Rect{10, 10, -4, -9}, Rect{10, 10, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampToPage(tt.in, A4))
		})
	}
}

func TestSnap_StableAndMultiple(t *testing.T) {
	for _, c := range []int{1, 3, 5, 10, 20, 25, 50} {
		for v := -500; v <= 1000; v++ {
			s := Snap(v, c)
			require.Equal(t, 0, s%c, "Snap(%d,%d)=%d", v, c, s)
			require.Equal(t, s, Snap(s, c))
			d := s - v
			if d < 0 {
				d = -d
			}
			require.LessOrEqual(t, 2*d, c, "Snap(%d,%d)=%d is not nearest", v, c, s)
		}
	}
}

func TestSnap_Examples(t *testing.T) {
	assert.Equal(t, 60, Snap(57, 10))
	assert.Equal(t, 80, Snap(83, 10))
	assert.Equal(t, 60, Snap(55, 10))
	assert.Equal(t, -10, Snap(-6, 10))
	assert.Equal(t, 57, Snap(57, 0))
}

func TestGridConfig_Apply(t *testing.T) {
	g := DefaultGrid()
	assert.Equal(t, 57, g.Apply(57), "disabled grid is identity")
	g.Enabled = true
	assert.Equal(t, Rect{60, 80, 200, 50}, g.ApplyPoint(Rect{57, 83, 200, 50}))

	g.CellSize = 25
	got := g.ApplyRect(Rect{X: 12, Y: 13, Width: 54, Height: 34}, ZoneLimits)
	assert.Equal(t, Rect{X: 0, Y: 25, Width: 50, Height: 50}, got, "height 34 snaps to 25 < 30 and is raised to 50")
}

func TestApplyResize_MinimumInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		r := ClampToPage(randomRect(rng), A4)
		dx, dy := rng.Intn(1600)-800, rng.Intn(1600)-800
		for _, h := range Handles {
			got := ApplyResize(r, h, dx, dy, ZoneLimits, A4)
			require.GreaterOrEqual(t, got.Width, 50, "%v %+v d=(%d,%d) -> %+v", h, r, dx, dy, got)
			require.GreaterOrEqual(t, got.Height, 30, "%v %+v d=(%d,%d) -> %+v", h, r, dx, dy, got)
			require.True(t, got.Inside(A4))
		}
	}
}

func TestApplyResize_LeadingEdgesKeepOppositeEdge(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: 200, Height: 100}

	got := ApplyResize(r, HandleNW, 30, 20, ZoneLimits, A4)
	assert.Equal(t, Rect{X: 130, Y: 120, Width: 170, Height: 80}, got)
	assert.Equal(t, r.Right(), got.Right())
	assert.Equal(t, r.Bottom(), got.Bottom())

	got = ApplyResize(r, HandleW, 190, 0, ZoneLimits, A4)
	assert.Equal(t, Rect{X: 250, Y: 100, Width: 50, Height: 100}, got, "stops at minimum width")

	got = ApplyResize(r, HandleN, 0, -500, ZoneLimits, A4)
	assert.Equal(t, Rect{X: 100, Y: 0, Width: 200, Height: 200}, got, "stops at page origin")
}

func TestApplyResize_TrailingEdgesOnlyChangeExtent(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: 200, Height: 100}

	assert.Equal(t, Rect{100, 100, 240, 130}, ApplyResize(r, HandleSE, 40, 30, ZoneLimits, A4))
	assert.Equal(t, Rect{100, 100, 495, 100}, ApplyResize(r, HandleE, 1000, 0, ZoneLimits, A4))
	assert.Equal(t, Rect{100, 100, 200, 30}, ApplyResize(r, HandleS, 0, -1000, ZoneLimits, A4))
}

func TestApplyResize_FixedHeightAndSquare(t *testing.T) {
	serial := Rect{X: 400, Y: 60, Width: 150, Height: LineHeight}
	got := ApplyResize(serial, HandleSE, -20, 80, SerialNumber.Limits(), A4)
	assert.Equal(t, Rect{400, 60, 130, LineHeight}, got)

	sym := Rect{X: 40, Y: 40, Width: 90, Height: 90}
	got = ApplyResize(sym, HandleSE, 30, 5, VerificationLimits, A4)
	assert.Equal(t, Rect{40, 40, 120, 120}, got)
	got = ApplyResize(sym, HandleNW, 70, 70, VerificationLimits, A4)
	assert.Equal(t, Rect{90, 90, 40, 40}, got)
}

func TestParseHandle(t *testing.T) {
	for _, h := range Handles {
		got, ok := ParseHandle(h.String())
		require.True(t, ok)
		assert.Equal(t, h, got)
	}
	_, ok := ParseHandle("up")
	assert.False(t, ok)
}

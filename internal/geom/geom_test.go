package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapperRoundTrip(t *testing.T) {
	m := Mapper{
		Page:      Rect{Left: 140, Top: 90, Width: 1000, Height: 1294},
		Container: Rect{Left: 40, Top: 10, Width: 1200, Height: 800},
	}

	require.Equal(t, 100.0, m.OffsetX())
	require.Equal(t, 80.0, m.OffsetY())

	dx, dy := m.ToDisplay(150, 300)
	require.Equal(t, 250.0, dx)
	require.Equal(t, 380.0, dy)

	sx, sy := m.ToStored(dx, dy)
	require.Equal(t, 150.0, sx)
	require.Equal(t, 300.0, sy)
}

func TestMapperStoredCoordsSurviveScroll(t *testing.T) {
	stored := [2]float64{220, 415}

	before := Mapper{
		Page:      Rect{Left: 140, Top: 90},
		Container: Rect{Left: 40, Top: 10},
	}
	// scrolling moves both rects together in the viewport
	after := Mapper{
		Page:      Rect{Left: 140, Top: -310},
		Container: Rect{Left: 40, Top: 10},
	}

	x1, y1 := before.ToDisplay(stored[0], stored[1])
	x2, y2 := after.ToDisplay(stored[0], stored[1])
	require.Equal(t, x1, x2)
	require.NotEqual(t, y1, y2)

	// inverting either display position recovers the same stored coords
	sx, sy := after.ToStored(x2, y2)
	require.Equal(t, stored[0], sx)
	require.Equal(t, stored[1], sy)
}

func TestClampSize(t *testing.T) {
	tests := []struct {
		name string
		in   Size
		want Size
	}{
		{"within bounds", Size{200, 80}, Size{200, 80}},
		{"too small", Size{10, 5}, Size{MinSignatureWidth, MinSignatureHeight}},
		{"too large", Size{900, 500}, Size{MaxSignatureWidth, MaxSignatureHeight}},
		{"width only", Size{50, 100}, Size{MinSignatureWidth, 100}},
		{"at min", Size{MinSignatureWidth, MinSignatureHeight}, Size{MinSignatureWidth, MinSignatureHeight}},
		{"at max", Size{MaxSignatureWidth, MaxSignatureHeight}, Size{MaxSignatureWidth, MaxSignatureHeight}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClampSize(tt.in))
		})
	}
}

func TestClampIntoRect(t *testing.T) {
	bounds := Rect{Left: 0, Top: 0, Width: 1000, Height: 1294}

	inside := Rect{Left: 100, Top: 200, Width: 160, Height: 64}
	require.Equal(t, inside, ClampIntoRect(inside, bounds))

	overRight := Rect{Left: 950, Top: 200, Width: 160, Height: 64}
	got := ClampIntoRect(overRight, bounds)
	require.Equal(t, 840.0, got.Left)
	require.Equal(t, 200.0, got.Top)

	overBottom := Rect{Left: 100, Top: 1280, Width: 160, Height: 64}
	got = ClampIntoRect(overBottom, bounds)
	require.Equal(t, 1230.0, got.Top)

	negative := Rect{Left: -40, Top: -10, Width: 160, Height: 64}
	got = ClampIntoRect(negative, bounds)
	require.Equal(t, 0.0, got.Left)
	require.Equal(t, 0.0, got.Top)
}

func TestClampIntoRectOffsetBounds(t *testing.T) {
	bounds := Rect{Left: 140, Top: 90, Width: 500, Height: 600}

	r := Rect{Left: 100, Top: 700, Width: 160, Height: 64}
	got := ClampIntoRect(r, bounds)
	require.Equal(t, 140.0, got.Left)
	require.Equal(t, 626.0, got.Top)
}

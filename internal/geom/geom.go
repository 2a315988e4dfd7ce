// Package geom translates between stored page-local signature coordinates
// and live viewport coordinates, and enforces the interactive size bounds.
package geom

// Interactive resize bounds for a signature overlay, in page-local units.
const (
	MinSignatureWidth  = 120.0
	MaxSignatureWidth  = 600.0
	MinSignatureHeight = 40.0
	MaxSignatureHeight = 300.0
)

// Rect is an axis-aligned rectangle in layout coordinates (origin top-left,
// y downward).
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64 {
	return r.Left + r.Width
}

func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Size is a signature footprint.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Mapper converts between page-local coordinates and on-screen display
// coordinates. The rendered page surface does not share its top-left with
// the scrollable container it sits in, so every conversion goes through the
// live offset between the two. The offsets are derived, never stored; a
// Mapper is rebuilt on every render pass.
type Mapper struct {
	Page      Rect
	Container Rect
}

func (m Mapper) OffsetX() float64 {
	return m.Page.Left - m.Container.Left
}

func (m Mapper) OffsetY() float64 {
	return m.Page.Top - m.Container.Top
}

// ToDisplay converts stored page-local coordinates to display coordinates.
func (m Mapper) ToDisplay(x, y float64) (float64, float64) {
	return x + m.OffsetX(), y + m.OffsetY()
}

// ToStored inverts ToDisplay. Stored coordinates survive container scroll
// and layout shifts because the offset is re-derived, not baked in.
func (m Mapper) ToStored(x, y float64) (float64, float64) {
	return x - m.OffsetX(), y - m.OffsetY()
}

// ClampSize forces a requested footprint into the interactive resize bounds.
func ClampSize(s Size) Size {
	if s.Width < MinSignatureWidth {
		s.Width = MinSignatureWidth
	}
	if s.Width > MaxSignatureWidth {
		s.Width = MaxSignatureWidth
	}
	if s.Height < MinSignatureHeight {
		s.Height = MinSignatureHeight
	}
	if s.Height > MaxSignatureHeight {
		s.Height = MaxSignatureHeight
	}
	return s
}

// ClampIntoRect translates r the minimal distance needed to keep it inside
// bounds. If r is larger than bounds on an axis it pins to the leading edge.
func ClampIntoRect(r, bounds Rect) Rect {
	if r.Right() > bounds.Right() {
		r.Left = bounds.Right() - r.Width
	}
	if r.Left < bounds.Left {
		r.Left = bounds.Left
	}
	if r.Bottom() > bounds.Bottom() {
		r.Top = bounds.Bottom() - r.Height
	}
	if r.Top < bounds.Top {
		r.Top = bounds.Top
	}
	return r
}

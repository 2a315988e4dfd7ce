// Package overlay implements the drag/resize behavior of one signature
// element bounded to the rendered page surface.
package overlay

import (
	"signhub/internal/geom"
)

// Sink receives page-local position/size updates from a controller. The
// controller applies the coordinate mapper inverse before emitting, so the
// values it hands over are viewport-independent.
type Sink interface {
	UpdatePosition(id string, x, y float64, size *geom.Size)
}

// Controller drives one draggable, resizable signature overlay. The rect it
// tracks lives in display coordinates; emitted updates are page-local.
//
// Drag moves are unconstrained frame to frame and only clamped into the page
// surface at drag end, which keeps dragging responsive. Resize bounds are
// enforced on every frame.
type Controller struct {
	id     string
	rect   geom.Rect
	page   geom.Rect
	mapper geom.Mapper
	locked bool
	sink   Sink
}

func NewController(id string, rect, page geom.Rect, mapper geom.Mapper, sink Sink) *Controller {
	return &Controller{
		id:     id,
		rect:   rect,
		page:   page,
		mapper: mapper,
		sink:   sink,
	}
}

// Rect returns the current display-space rect.
func (c *Controller) Rect() geom.Rect {
	return c.rect
}

// Locked reports whether interaction handlers are detached.
func (c *Controller) Locked() bool {
	return c.locked
}

// SetLocked attaches or detaches the drag/resize handlers. While locked the
// controller drops pointer events entirely rather than rejecting them.
func (c *Controller) SetLocked(locked bool) {
	c.locked = locked
}

// Refresh rebinds the controller to a freshly computed mapper and page
// surface after a render pass (page switch, resize, sidebar toggle).
func (c *Controller) Refresh(page geom.Rect, mapper geom.Mapper) {
	c.page = page
	c.mapper = mapper
}

// DragEnd applies the accumulated drag delta, clamps the element into the
// page surface, and emits the new page-local position.
func (c *Controller) DragEnd(dx, dy float64) {
	if c.locked {
		return
	}

	c.rect.Left += dx
	c.rect.Top += dy
	c.rect = geom.ClampIntoRect(c.rect, c.page)

	x, y := c.mapper.ToStored(c.rect.Left, c.rect.Top)
	c.sink.UpdatePosition(c.id, x, y, nil)
}

// ResizeFrame applies one resize frame. Size bounds hold at every
// intermediate frame, not just on release.
func (c *Controller) ResizeFrame(r geom.Rect) {
	if c.locked {
		return
	}

	size := geom.ClampSize(geom.Size{Width: r.Width, Height: r.Height})
	c.rect = geom.Rect{Left: r.Left, Top: r.Top, Width: size.Width, Height: size.Height}

	x, y := c.mapper.ToStored(c.rect.Left, c.rect.Top)
	c.sink.UpdatePosition(c.id, x, y, &size)
}

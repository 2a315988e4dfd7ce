package overlay

import (
	"context"

	"signhub/internal/geom"
	"signhub/internal/placement"
)

// Session wires the placement store to one controller per visible placement
// on the active page. It persists controller output through the store's
// fire-and-forget update path.
type Session struct {
	store  *placement.Store
	page   int
	bounds geom.Rect
	mapper geom.Mapper

	controllers map[string]*Controller
}

func NewSession(store *placement.Store) *Session {
	return &Session{
		store:       store,
		controllers: make(map[string]*Controller),
	}
}

// SetPage rebuilds the controller set for a page after a render pass. The
// page surface bounds and container bounds come from the live render, so
// the mapper offsets are always current.
func (s *Session) SetPage(pageNumber int, pageSurface, container geom.Rect) {
	s.page = pageNumber
	s.bounds = pageSurface
	s.mapper = geom.Mapper{Page: pageSurface, Container: container}

	prev := s.controllers
	s.controllers = make(map[string]*Controller)

	for _, sig := range s.store.ByPage(pageNumber) {
		x, y := s.mapper.ToDisplay(sig.X, sig.Y)
		rect := geom.Rect{Left: x, Top: y, Width: sig.Width, Height: sig.Height}

		c := NewController(sig.ID, rect, pageSurface, s.mapper, s)
		if old, ok := prev[sig.ID]; ok {
			c.SetLocked(old.Locked())
		} else {
			c.SetLocked(sig.Locked)
		}
		s.controllers[sig.ID] = c
	}
}

// Controller returns the controller for a placement on the active page.
func (s *Session) Controller(id string) (*Controller, bool) {
	c, ok := s.controllers[id]
	return c, ok
}

// UpdatePosition implements Sink by forwarding page-local updates to the
// placement store.
func (s *Session) UpdatePosition(id string, x, y float64, size *geom.Size) {
	upd := placement.RectUpdate{X: x, Y: y}
	if size != nil {
		w, h := size.Width, size.Height
		upd.Width = &w
		upd.Height = &h
	}
	s.store.UpdateRect(context.Background(), id, upd)
}

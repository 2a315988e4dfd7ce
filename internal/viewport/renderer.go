// Package viewport prepares single pages of a source PDF for on-screen
// display: a per-page extract plus the render geometry at a fixed logical
// width, with stale in-flight renders explicitly discarded.
package viewport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"signhub/internal/geom"
)

// FixedWidth is the logical width every rendered page is scaled to; height
// follows proportionally to preserve the page's aspect ratio.
const FixedWidth = 1000.0

// ThumbnailScale is the reduced scale of the page-navigation pass.
const ThumbnailScale = 0.2

// ErrStaleRender marks a render that finished after a newer request for the
// same surface started; its result was discarded, not committed.
var ErrStaleRender = errors.New("render superseded by a newer request")

// Rendered is one displayable page: the extracted single-page PDF and the
// surface geometry the overlay mapper needs.
type Rendered struct {
	PageNumber int       `json:"page_number"`
	PageCount  int       `json:"page_count"`
	Scale      float64   `json:"scale"`
	Bounds     geom.Rect `json:"bounds"`
	PDF        []byte    `json:"-"`
}

// Thumbnail is a low-scale geometry entry for page navigation.
type Thumbnail struct {
	PageNumber int     `json:"page_number"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PDF        []byte  `json:"-"`
}

// Renderer rasterizes one page per surface at a time. A new request for a
// surface cancels the in-flight one; a slow stale render that completes
// anyway fails the generation check and never overwrites current content.
type Renderer struct {
	fixedWidth float64
	conf       *model.Configuration

	mu      sync.Mutex
	gens    map[string]uint64
	cancels map[string]context.CancelFunc
	current map[string]*Rendered

	// test seam, runs after rendering but before the commit check
	beforeCommit func(pageNumber int)
}

func NewRenderer() *Renderer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &Renderer{
		fixedWidth: FixedWidth,
		conf:       conf,
		gens:       make(map[string]uint64),
		cancels:    make(map[string]context.CancelFunc),
		current:    make(map[string]*Rendered),
	}
}

// RenderPage renders pageNumber of src for the given surface. Returns
// ErrStaleRender when a newer request superseded this one; callers treat
// that as a silent discard, not a failure.
func (r *Renderer) RenderPage(ctx context.Context, surface string, src []byte, pageNumber int) (*Rendered, error) {
	r.mu.Lock()
	if cancel := r.cancels[surface]; cancel != nil {
		cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.gens[surface]++
	gen := r.gens[surface]
	r.cancels[surface] = cancel
	r.mu.Unlock()
	defer cancel()

	rendered, err := r.render(ctx, src, pageNumber)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrStaleRender
		}
		return nil, err
	}

	if r.beforeCommit != nil {
		r.beforeCommit(pageNumber)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[surface] != gen {
		return nil, ErrStaleRender
	}
	r.current[surface] = rendered
	return rendered, nil
}

// Current returns the last committed render for a surface.
func (r *Renderer) Current(surface string) (*Rendered, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.current[surface]
	return c, ok
}

func (r *Renderer) render(ctx context.Context, src []byte, pageNumber int) (*Rendered, error) {
	dims, err := api.PageDims(bytes.NewReader(src), r.conf)
	if err != nil {
		return nil, fmt.Errorf("reading page dimensions: %w", err)
	}
	if pageNumber < 1 || pageNumber > len(dims) {
		return nil, fmt.Errorf("page %d out of range (document has %d)", pageNumber, len(dims))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(src), &buf, []string{strconv.Itoa(pageNumber)}, r.conf); err != nil {
		return nil, fmt.Errorf("extracting page %d: %w", pageNumber, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := dims[pageNumber-1]
	scale := r.fixedWidth / dim.Width

	return &Rendered{
		PageNumber: pageNumber,
		PageCount:  len(dims),
		Scale:      scale,
		Bounds:     geom.Rect{Width: dim.Width * scale, Height: dim.Height * scale},
		PDF:        buf.Bytes(),
	}, nil
}

// Thumbnails runs the independent low-resolution pass over every page. A
// page that fails to extract is logged and skipped; thumbnail failures never
// block the main render path.
func (r *Renderer) Thumbnails(ctx context.Context, src []byte) ([]Thumbnail, error) {
	dims, err := api.PageDims(bytes.NewReader(src), r.conf)
	if err != nil {
		return nil, fmt.Errorf("reading page dimensions: %w", err)
	}

	thumbs := make([]Thumbnail, 0, len(dims))
	for i, dim := range dims {
		if err := ctx.Err(); err != nil {
			return thumbs, err
		}

		var buf bytes.Buffer
		if err := api.Trim(bytes.NewReader(src), &buf, []string{strconv.Itoa(i + 1)}, r.conf); err != nil {
			log.Printf("thumbnail for page %d failed: %v", i+1, err)
			continue
		}

		thumbs = append(thumbs, Thumbnail{
			PageNumber: i + 1,
			Width:      dim.Width * ThumbnailScale,
			Height:     dim.Height * ThumbnailScale,
			PDF:        buf.Bytes(),
		})
	}
	return thumbs, nil
}

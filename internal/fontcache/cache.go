// Package fontcache resolves signature font families to loadable TrueType
// data, memoized per family for the process lifetime, and registers them
// with the PDF engine so typed signatures can be drawn with them.
package fontcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/singleflight"
)

// FallbackFontName is the universally embedded standard font substituted
// when a custom family cannot be loaded. It never requires resolution.
const FallbackFontName = "Helvetica"

// Anything shorter than this cannot be a real TrueType file.
const minFontBytes = 100

// FontLoadError reports a family that could not be fetched or validated.
// Callers substitute the fallback font instead of aborting a compositing run.
type FontLoadError struct {
	Family string
	Err    error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("could not load font %q: %v", e.Family, e.Err)
}

func (e *FontLoadError) Unwrap() error {
	return e.Err
}

// Resolved is a font family with its binary data and the name under which
// the PDF engine knows it.
type Resolved struct {
	Family  string
	PDFName string
	Data    []byte

	metrics *sfnt.Font
}

// StringWidth measures text at the given point size using the parsed glyph
// metrics, falling back to a rough estimate when a glyph is missing.
func (r *Resolved) StringWidth(text string, points float64) float64 {
	if r == nil || r.metrics == nil {
		return float64(len(text)) * points * 0.5
	}

	var buf sfnt.Buffer
	upm := int(r.metrics.UnitsPerEm())
	ppem := fixed.Int26_6(upm << 6)

	total := 0
	for _, ch := range text {
		gi, err := r.metrics.GlyphIndex(&buf, ch)
		if err != nil || gi == 0 {
			total += upm / 2
			continue
		}
		adv, err := r.metrics.GlyphAdvance(&buf, gi, ppem, font.HintingNone)
		if err != nil {
			total += upm / 2
			continue
		}
		total += adv.Round()
	}

	return float64(total) * points / float64(upm)
}

// Cache memoizes font resolution per family. Concurrent first-time requests
// for the same family share a single fetch; later requesters get the cached
// bytes.
type Cache struct {
	baseURL string
	dir     string
	client  *http.Client

	group singleflight.Group

	mu    sync.RWMutex
	fonts map[string]*Resolved

	// Seams for tests; default to the real TTF parse and engine install.
	validate func(data []byte) (*sfnt.Font, string, error)
	install  func(path string) error
}

// New creates a cache fetching TTFs from baseURL/fonts/<Family>.ttf and
// installing them from dir. A nil client uses http.DefaultClient.
func New(baseURL, dir string, client *http.Client) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	return &Cache{
		baseURL:  strings.TrimRight(baseURL, "/"),
		dir:      dir,
		client:   client,
		fonts:    make(map[string]*Resolved),
		validate: validateTTF,
		install:  installFont,
	}
}

// FontFileName maps a family to its asset file name: spaces stripped, .ttf
// appended ("Great Vibes" -> "GreatVibes.ttf").
func FontFileName(family string) string {
	return strings.ReplaceAll(family, " ", "") + ".ttf"
}

// Resolve returns the cached font for family, fetching and registering it on
// first use. Returns a FontLoadError when the asset is missing or corrupted.
func (c *Cache) Resolve(ctx context.Context, family string) (*Resolved, error) {
	c.mu.RLock()
	if r, ok := c.fonts[family]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(family, func() (interface{}, error) {
		// Another requester may have finished while we queued.
		c.mu.RLock()
		if r, ok := c.fonts[family]; ok {
			c.mu.RUnlock()
			return r, nil
		}
		c.mu.RUnlock()

		r, err := c.load(ctx, family)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.fonts[family] = r
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolved), nil
}

func (c *Cache) load(ctx context.Context, family string) (*Resolved, error) {
	fontURL := c.baseURL + "/fonts/" + FontFileName(family)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fontURL, nil)
	if err != nil {
		return nil, &FontLoadError{Family: family, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FontLoadError{Family: family, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &FontLoadError{Family: family, Err: fmt.Errorf("fetching %s: status %d", fontURL, resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FontLoadError{Family: family, Err: err}
	}
	if len(data) < minFontBytes {
		return nil, &FontLoadError{Family: family, Err: fmt.Errorf("file is %d bytes, looks corrupted or incomplete", len(data))}
	}

	metrics, psName, err := c.validate(data)
	if err != nil {
		return nil, &FontLoadError{Family: family, Err: err}
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, &FontLoadError{Family: family, Err: err}
	}
	path := filepath.Join(c.dir, FontFileName(family))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, &FontLoadError{Family: family, Err: err}
	}

	if err := c.install(path); err != nil {
		return nil, &FontLoadError{Family: family, Err: fmt.Errorf("installing font: %w", err)}
	}

	return &Resolved{
		Family:  family,
		PDFName: engineFontName(family, psName),
		Data:    data,
		metrics: metrics,
	}, nil
}

// Invalidate drops a cached family so the next Resolve re-fetches it.
func (c *Cache) Invalidate(family string) {
	c.mu.Lock()
	delete(c.fonts, family)
	c.mu.Unlock()
}

func validateTTF(data []byte) (*sfnt.Font, string, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("parsing TTF: %w", err)
	}
	psName, err := f.Name(nil, sfnt.NameIDPostScript)
	if err != nil || psName == "" {
		psName, err = f.Name(nil, sfnt.NameIDFamily)
		if err != nil {
			return nil, "", fmt.Errorf("TTF has no usable name record: %w", err)
		}
	}
	return f, psName, nil
}

func installFont(path string) error {
	return api.InstallFonts([]string{path})
}

// engineFontName picks the name the PDF engine registered the installed font
// under. The engine derives it from the font's internal records, which does
// not always match the catalog family spelling exactly.
func engineFontName(family, psName string) string {
	want := normalizeFontName(family)
	for _, name := range pdffont.UserFontNames() {
		if strings.HasPrefix(normalizeFontName(name), want) {
			return name
		}
	}
	return psName
}

func normalizeFontName(name string) string {
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "-", "")
	return strings.ToLower(name)
}

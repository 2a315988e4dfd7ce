// Package composer embeds signature placements into the pages of a source
// PDF, producing the finalized document bytes.
package composer

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfcolor "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"signhub/internal/fontcache"
	"signhub/internal/models"
)

// Typed signatures draw at this size, shrinking to fit the placement width.
const (
	typedFontSize    = 18.0
	minTypedFontSize = 4.0
)

// Family assumed for typed placements that were saved without a font.
const defaultTypedFamily = "Pacifico"

// Stamps are absolute-positioned, unrotated, fully opaque, anchored at the
// page's bottom-left with Dx/Dy offsets.
const stampDesc = "scale:1 abs, pos:bl, rot:0, op:1"

// FetchError reports a network failure or non-success response while
// retrieving a remote resource.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports malformed PDF or image bytes.
type DecodeError struct {
	Resource string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Resource, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Composer stamps signature placements onto PDF pages. Typed placements
// become text drawn with the resolved font; image placements are fetched,
// resampled to their footprint and stamped as page content.
type Composer struct {
	fonts   *fontcache.Cache
	client  *http.Client
	workDir string
	conf    *model.Configuration
}

func New(fonts *fontcache.Cache, client *http.Client, workDir string) *Composer {
	if client == nil {
		client = http.DefaultClient
	}

	conf := model.NewDefaultConfiguration()
	// Documents with restriction-only encryption still accept content stamps.
	conf.ValidationMode = model.ValidationRelaxed

	return &Composer{
		fonts:   fonts,
		client:  client,
		workDir: workDir,
		conf:    conf,
	}
}

// PDFSpaceY converts a stored top-left-origin, downward-y coordinate to the
// PDF's bottom-left-origin, upward-y space.
func PDFSpaceY(pageHeight, y, height float64) float64 {
	return pageHeight - y - height
}

// Compose returns finalized PDF bytes with every placement embedded at its
// stored position. A malformed source PDF aborts; a single placement that
// fails to embed is logged and skipped, so the output is always a valid PDF
// holding the original content plus the placements that succeeded.
func (c *Composer) Compose(ctx context.Context, original []byte, sigs []models.Signature) ([]byte, error) {
	dims, err := api.PageDims(bytes.NewReader(original), c.conf)
	if err != nil {
		return nil, &DecodeError{Resource: "source PDF", Err: err}
	}

	fontMap := c.resolveFonts(ctx, sigs)

	cur := original
	for _, sig := range sigs {
		out, err := c.stampOne(ctx, cur, sig, dims, fontMap)
		if err != nil {
			log.Printf("skipping signature %s: %v", sig.ID, err)
			continue
		}
		cur = out
	}

	return cur, nil
}

type resolvedFont struct {
	name string
	res  *fontcache.Resolved
}

// resolveFonts collects the distinct families used by typed placements and
// resolves each before any drawing starts. A family that fails resolution
// maps to the fallback font; a missing custom font never aborts finalization.
func (c *Composer) resolveFonts(ctx context.Context, sigs []models.Signature) map[string]resolvedFont {
	fontMap := make(map[string]resolvedFont)
	for _, sig := range sigs {
		if sig.Type != models.SignatureTyped {
			continue
		}
		family := sig.Font
		if family == "" {
			family = defaultTypedFamily
		}
		if _, ok := fontMap[family]; ok {
			continue
		}

		r, err := c.fonts.Resolve(ctx, family)
		if err != nil {
			log.Printf("font %q unavailable, falling back to %s: %v", family, fontcache.FallbackFontName, err)
			fontMap[family] = resolvedFont{name: fontcache.FallbackFontName}
			continue
		}
		fontMap[family] = resolvedFont{name: r.PDFName, res: r}
	}
	return fontMap
}

func (c *Composer) stampOne(ctx context.Context, cur []byte, sig models.Signature, dims []types.Dim, fontMap map[string]resolvedFont) ([]byte, error) {
	page := sig.PageNumber
	if page < 1 {
		page = 1
	}
	if page > len(dims) {
		return nil, fmt.Errorf("page %d out of range (document has %d)", page, len(dims))
	}

	width := sig.Width
	if width <= 0 {
		width = models.DefaultSignatureWidth
	}
	height := sig.Height
	if height <= 0 {
		height = models.DefaultSignatureHeight
	}

	pdfY := PDFSpaceY(dims[page-1].Height, sig.Y, height)

	switch {
	case sig.Type == models.SignatureTyped && strings.TrimSpace(sig.Name) != "":
		return c.stampText(cur, sig, page, pdfY, width, fontMap)
	case sig.SignatureURL != "":
		return c.stampImage(ctx, cur, sig, page, pdfY, width, height)
	default:
		// Placement carries nothing renderable; leave the document as is.
		return cur, nil
	}
}

// textStamp builds the engine stamp for a typed placement: resolved (or
// fallback) font, size shrunk to the placement width, palette color, and the
// page-local position converted to bottom-left-origin offsets.
func (c *Composer) textStamp(sig models.Signature, pdfY, maxWidth float64, fontMap map[string]resolvedFont) (*model.Watermark, error) {
	family := sig.Font
	if family == "" {
		family = defaultTypedFamily
	}
	entry := fontMap[family]

	wm, err := pdfcpu.ParseTextWatermarkDetails(sig.Name, stampDesc, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("building text stamp: %w", err)
	}
	wm.FontName = entry.name
	wm.FontSize = fitFontSize(sig.Name, entry.res, maxWidth)
	wm.FillColor = parseHexColor(sig.Color)
	wm.Dx = sig.X
	wm.Dy = pdfY
	return wm, nil
}

func (c *Composer) stampText(cur []byte, sig models.Signature, page int, pdfY, maxWidth float64, fontMap map[string]resolvedFont) ([]byte, error) {
	wm, err := c.textStamp(sig, pdfY, maxWidth, fontMap)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(cur), &buf, []string{strconv.Itoa(page)}, wm, c.conf); err != nil {
		return nil, fmt.Errorf("stamping text: %w", err)
	}
	return buf.Bytes(), nil
}

// fitFontSize shrinks the draw size until the text fits the placement width.
func fitFontSize(text string, res *fontcache.Resolved, maxWidth float64) int {
	size := typedFontSize
	for size > minTypedFontSize {
		if res.StringWidth(text, size) <= maxWidth {
			break
		}
		size--
	}
	return int(size)
}

// parseHexColor converts "#RRGGBB" to the engine's normalized color; any
// unparsable value draws black.
func parseHexColor(hex string) pdfcolor.SimpleColor {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return pdfcolor.SimpleColor{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return pdfcolor.SimpleColor{}
	}
	return pdfcolor.SimpleColor{
		R: float32((v>>16)&0xFF) / 255,
		G: float32((v>>8)&0xFF) / 255,
		B: float32(v&0xFF) / 255,
	}
}

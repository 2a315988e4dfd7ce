package composer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signhub/internal/fontcache"
	"signhub/internal/models"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a syntactically valid PDF with the given page count,
// each page 612x792 points, computing the xref offsets as it goes.
func minimalPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n", 3+i))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	return buf.Bytes()
}

func testComposer(t *testing.T) *Composer {
	t.Helper()
	// unroutable font host; typed placements fall back to the standard font
	fonts := fontcache.New("http://127.0.0.1:1", t.TempDir(), &http.Client{Timeout: 250 * time.Millisecond})
	return New(fonts, &http.Client{Timeout: time.Second}, t.TempDir())
}

func TestPDFSpaceY(t *testing.T) {
	// stored y 300 with a 64pt-tall element on a 792pt page lands at 428
	require.Equal(t, 428.0, PDFSpaceY(792, 300, 64))
	require.Equal(t, 0.0, PDFSpaceY(100, 0, 100))
	require.Equal(t, 728.0, PDFSpaceY(792, 0, 64))
}

func TestParseHexColor(t *testing.T) {
	c := parseHexColor("#1D4ED8")
	require.InDelta(t, 0x1D/255.0, c.R, 1e-6)
	require.InDelta(t, 0x4E/255.0, c.G, 1e-6)
	require.InDelta(t, 0xD8/255.0, c.B, 1e-6)

	black := parseHexColor("")
	require.Zero(t, black.R)
	require.Zero(t, black.G)
	require.Zero(t, black.B)

	require.Zero(t, parseHexColor("#GGGGGG").R)
	require.Zero(t, parseHexColor("red").R)
}

func TestFitFontSize(t *testing.T) {
	// no metrics available: estimated width is len * size * 0.5
	require.Equal(t, 18, fitFontSize("Al", nil, 160))
	require.Equal(t, 13, fitFontSize("Alexander Hamilton", nil, 120))

	long := "A name so long it can never fit inside a placement at any legible size"
	require.Equal(t, 4, fitFontSize(long, nil, 120))
}

func TestTypedStampLandsAtStoredPosition(t *testing.T) {
	c := testComposer(t)

	// stored top-left (200,300) with a 64pt-tall footprint on a 612x792 page
	sig := models.Signature{
		Type:       models.SignatureTyped,
		Name:       "Jane Doe",
		Font:       "Pacifico",
		Color:      "#000000",
		PageNumber: 1,
		X:          200,
		Y:          300,
		Width:      160,
		Height:     64,
	}
	fontMap := map[string]resolvedFont{"Pacifico": {name: fontcache.FallbackFontName}}

	pdfY := PDFSpaceY(792, sig.Y, sig.Height)
	wm, err := c.textStamp(sig, pdfY, sig.Width, fontMap)
	require.NoError(t, err)

	// bottom-left-origin offsets carried into the engine stamp
	require.Equal(t, 200.0, wm.Dx)
	require.Equal(t, 428.0, wm.Dy)
	require.Equal(t, 18, wm.FontSize)
	require.Equal(t, "Helvetica", wm.FontName)
	require.Zero(t, wm.FillColor.R)
	require.Zero(t, wm.FillColor.G)
	require.Zero(t, wm.FillColor.B)
}

func TestComposeRejectsMalformedSource(t *testing.T) {
	c := testComposer(t)

	_, err := c.Compose(context.Background(), []byte("this is not a pdf"), nil)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "source PDF", de.Resource)
}

func TestComposeNoPlacements(t *testing.T) {
	c := testComposer(t)
	src := minimalPDF(t, 1)

	out, err := c.Compose(context.Background(), src, nil)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestComposeSkipsUnrenderablePlacement(t *testing.T) {
	c := testComposer(t)
	src := minimalPDF(t, 1)

	sigs := []models.Signature{
		// typed with a blank name carries nothing renderable
		{ID: "s1", Type: models.SignatureTyped, Name: "   ", PageNumber: 1, X: 100, Y: 200, Width: 160, Height: 64},
	}

	out, err := c.Compose(context.Background(), src, sigs)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestComposeSkipsPageOutOfRange(t *testing.T) {
	c := testComposer(t)
	src := minimalPDF(t, 2)

	sigs := []models.Signature{
		{ID: "s1", Type: models.SignatureTyped, Name: "Ada", PageNumber: 9, X: 10, Y: 10, Width: 160, Height: 64},
	}

	out, err := c.Compose(context.Background(), src, sigs)
	require.NoError(t, err)
	require.NotEmpty(t, out, "an out-of-range placement must not abort finalization")
}

func TestComposeSkipsFailedImageFetch(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := testComposer(t)
	src := minimalPDF(t, 1)

	sigs := []models.Signature{
		{ID: "s1", Type: models.SignatureUpload, SignatureURL: srv.URL + "/sig.png", PageNumber: 1, X: 100, Y: 200, Width: 160, Height: 64},
	}

	out, err := c.Compose(context.Background(), src, sigs)
	require.NoError(t, err)
	require.Equal(t, src, out, "a failed placement is skipped, never fatal")
}

func TestComposeMixedFailuresKeepSuccesses(t *testing.T) {
	good := pngBytes(t, 40, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good.png" {
			w.Write(good)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testComposer(t)
	src := minimalPDF(t, 3)

	sigs := []models.Signature{
		{ID: "bad", Type: models.SignatureUpload, SignatureURL: srv.URL + "/gone.png", PageNumber: 1, X: 50, Y: 50, Width: 160, Height: 64},
		{ID: "drawn", Type: models.SignatureDrawn, SignatureURL: srv.URL + "/good.png", PageNumber: 2, X: 80, Y: 120, Width: 160, Height: 64},
		{ID: "typed", Type: models.SignatureTyped, Name: "Ada Lovelace", Font: "Great Vibes", Color: "#1D4ED8", PageNumber: 3, X: 100, Y: 300, Width: 200, Height: 64},
	}

	out, err := c.Compose(context.Background(), src, sigs)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// the output is still a readable 3-page PDF
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	dims, err := api.PageDims(bytes.NewReader(out), conf)
	require.NoError(t, err)
	require.Len(t, dims, 3)
}

func TestDefaultFootprintApplied(t *testing.T) {
	c := testComposer(t)
	src := minimalPDF(t, 1)

	// zero width/height placements get the default footprint instead of erroring
	sigs := []models.Signature{
		{ID: "s1", Type: models.SignatureTyped, Name: "Ada", PageNumber: 1, X: 100, Y: 200},
	}

	out, err := c.Compose(context.Background(), src, sigs)
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

package composer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	xdraw "golang.org/x/image/draw"

	"signhub/internal/models"
)

// stampImage fetches the signature raster, resamples it to the placement
// footprint and stamps it onto the page as an image XObject.
func (c *Composer) stampImage(ctx context.Context, cur []byte, sig models.Signature, page int, pdfY, width, height float64) ([]byte, error) {
	data, err := c.fetchImage(ctx, sig.SignatureURL)
	if err != nil {
		return nil, err
	}

	img, err := decodeByExtension(sig.SignatureURL, data)
	if err != nil {
		return nil, err
	}

	// Resample so one stamped pixel maps to one point: the image then lands
	// at exactly the stored footprint, matching what the overlay showed.
	resized := resample(img, int(width), int(height))

	tmp, err := c.writeTempPNG(resized)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	wm, err := pdfcpu.ParseImageWatermarkDetails(tmp, stampDesc, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("building image stamp: %w", err)
	}
	wm.Dx = sig.X
	wm.Dy = pdfY

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(cur), &buf, []string{strconv.Itoa(page)}, wm, c.conf); err != nil {
		return nil, fmt.Errorf("stamping image: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Composer) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: imageURL, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &FetchError{URL: imageURL, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: imageURL, Err: err}
	}
	return data, nil
}

// decodeByExtension picks the image codec from the URL's file extension,
// mirroring how the asset was stored.
func decodeByExtension(imageURL string, data []byte) (image.Image, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(stripQuery(imageURL)), "."))

	var img image.Image
	var err error
	switch ext {
	case "jpg", "jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		img, err = png.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, &DecodeError{Resource: imageURL, Err: err}
	}
	return img, nil
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

func resample(src image.Image, w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func (c *Composer) writeTempPNG(img image.Image) (string, error) {
	if err := os.MkdirAll(c.workDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(c.workDir, "stamp-"+uuid.New().String()+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

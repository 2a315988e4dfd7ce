package composer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 40, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeByExtension(t *testing.T) {
	data := pngBytes(t, 4, 4)

	img, err := decodeByExtension("https://cdn.example.com/sig.png", data)
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())

	// query strings do not confuse extension detection
	img, err = decodeByExtension("https://cdn.example.com/sig.png?token=abc", data)
	require.NoError(t, err)
	require.NotNil(t, img)

	// jpeg bytes behind a .jpg extension
	_, err = decodeByExtension("https://cdn.example.com/sig.jpg", data)
	var de *DecodeError
	require.ErrorAs(t, err, &de, "png bytes cannot decode as jpeg")

	// unknown extensions default to png
	img, err = decodeByExtension("https://cdn.example.com/sig", data)
	require.NoError(t, err)
	require.NotNil(t, img)
}

func TestStripQuery(t *testing.T) {
	require.Equal(t, "https://x/y.png", stripQuery("https://x/y.png?a=1&b=2"))
	require.Equal(t, "https://x/y.png", stripQuery("https://x/y.png"))
}

func TestResample(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))

	out := resample(src, 160, 64)
	require.Equal(t, 160, out.Bounds().Dx())
	require.Equal(t, 64, out.Bounds().Dy())

	// already at target size: no copy
	same := resample(src, 40, 20)
	require.Equal(t, src.Bounds(), same.Bounds())

	// degenerate footprints clamp to a single pixel
	tiny := resample(src, 0, -3)
	require.Equal(t, 1, tiny.Bounds().Dx())
	require.Equal(t, 1, tiny.Bounds().Dy())
}

func TestWriteTempPNG(t *testing.T) {
	c := testComposer(t)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	path, err := c.writeTempPNG(img)
	require.NoError(t, err)
	require.FileExists(t, path)
}

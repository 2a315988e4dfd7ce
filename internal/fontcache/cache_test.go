package fontcache

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/sfnt"
)

// fakeTTF is large enough to pass the size check; the validate seam is
// overridden so it never reaches a real TTF parser.
var fakeTTF = bytes.Repeat([]byte{0x42}, 512)

func newTestCache(t *testing.T, handler http.Handler) (*Cache, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL, t.TempDir(), srv.Client())
	c.validate = func(data []byte) (*sfnt.Font, string, error) { return nil, "FakeFont", nil }
	c.install = func(path string) error { return nil }
	return c, srv
}

func TestFontFileName(t *testing.T) {
	require.Equal(t, "GreatVibes.ttf", FontFileName("Great Vibes"))
	require.Equal(t, "Pacifico.ttf", FontFileName("Pacifico"))
	require.Equal(t, "KaushanScript.ttf", FontFileName("Kaushan Script"))
}

func TestResolveFetchesOncePerFamily(t *testing.T) {
	var hits int64
	c, _ := newTestCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		require.Equal(t, "/fonts/GreatVibes.ttf", r.URL.Path)
		w.Write(fakeTTF)
	}))

	ctx := context.Background()
	first, err := c.Resolve(ctx, "Great Vibes")
	require.NoError(t, err)
	require.Equal(t, "Great Vibes", first.Family)
	require.Equal(t, fakeTTF, first.Data)

	second, err := c.Resolve(ctx, "Great Vibes")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.EqualValues(t, 1, atomic.LoadInt64(&hits))
}

func TestResolveConcurrentSharesOneFetch(t *testing.T) {
	var hits int64
	release := make(chan struct{})
	c, _ := newTestCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		<-release
		w.Write(fakeTTF)
	}))

	const n = 8
	var wg sync.WaitGroup
	results := make([]*Resolved, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.Resolve(context.Background(), "Pacifico")
			require.NoError(t, err)
			results[i] = r
		}(i)
	}
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt64(&hits), "concurrent requests must share one fetch")
	for i := 1; i < n; i++ {
		require.Same(t, results[0], results[i])
	}
}

func TestResolveMissingFont(t *testing.T) {
	c, _ := newTestCache(t, http.NotFoundHandler())

	_, err := c.Resolve(context.Background(), "Nope")
	var fle *FontLoadError
	require.ErrorAs(t, err, &fle)
	require.Equal(t, "Nope", fle.Family)
	require.ErrorContains(t, err, "status 404")
}

func TestResolveRejectsTruncatedFile(t *testing.T) {
	c, _ := newTestCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("GIF89a")) // tiny junk, nowhere near a font
	}))

	_, err := c.Resolve(context.Background(), "Allura")
	var fle *FontLoadError
	require.ErrorAs(t, err, &fle)
	require.ErrorContains(t, err, "corrupted or incomplete")
}

func TestResolveRejectsInvalidTTF(t *testing.T) {
	c, _ := newTestCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeTTF)
	}))
	c.validate = func(data []byte) (*sfnt.Font, string, error) {
		return nil, "", errors.New("parsing TTF: not a font")
	}

	_, err := c.Resolve(context.Background(), "Sacramento")
	var fle *FontLoadError
	require.ErrorAs(t, err, &fle)
	require.ErrorContains(t, err, "not a font")
}

func TestResolveFailureIsNotCached(t *testing.T) {
	var hits int64
	c, _ := newTestCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write(fakeTTF)
	}))

	_, err := c.Resolve(context.Background(), "Satisfy")
	require.Error(t, err)

	r, err := c.Resolve(context.Background(), "Satisfy")
	require.NoError(t, err, "transient failure must not poison the cache")
	require.Equal(t, "Satisfy", r.Family)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var hits int64
	c, _ := newTestCache(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write(fakeTTF)
	}))

	_, err := c.Resolve(context.Background(), "Courgette")
	require.NoError(t, err)
	c.Invalidate("Courgette")
	_, err = c.Resolve(context.Background(), "Courgette")
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt64(&hits))
}

func TestEngineFontName(t *testing.T) {
	// no user fonts registered with the engine in this process: the lookup
	// falls through to the font's own PostScript name
	require.Equal(t, "GreatVibes-Regular", engineFontName("Great Vibes", "GreatVibes-Regular"))
}

func TestNormalizeFontName(t *testing.T) {
	require.Equal(t, "greatvibes", normalizeFontName("Great Vibes"))
	require.Equal(t, "herrvonmuellerhoff", normalizeFontName("Herr-Von Muellerhoff"))
	require.Equal(t, "pacifico", normalizeFontName("Pacifico"))
}

func TestStringWidthFallbackEstimate(t *testing.T) {
	var r *Resolved
	require.Equal(t, 45.0, r.StringWidth("Lucas", 18))

	noMetrics := &Resolved{Family: "Helvetica"}
	require.Equal(t, 45.0, noMetrics.StringWidth("Lucas", 18))
}

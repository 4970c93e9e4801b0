package api

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evomics/docs/internal/export"
	"github.com/evomics/docs/internal/index"
	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/og"
	"github.com/evomics/docs/internal/render"
	"github.com/evomics/docs/internal/source"
	"github.com/evomics/docs/internal/testutil"
)

type fixedSnapshots struct{ snap *source.Snapshot }

func (f fixedSnapshots) Current() *source.Snapshot { return f.snap }

// recordingMetrics captures request routes for assertions.
type recordingMetrics struct {
	mu      sync.Mutex
	routes  []string
	renders []string
}

func (m *recordingMetrics) ObserveRequest(route, _ string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route)
}

func (m *recordingMetrics) ObserveRender(kind string, _ time.Duration, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders = append(m.renders, kind)
}

func (m *recordingMetrics) SetPages(string, int) {}
func (m *recordingMetrics) IncReload(bool)       {}

// testEnv builds a router over the sample content with a synced search index.
func testEnv(t *testing.T, mutate func(*Options)) http.Handler {
	t.Helper()

	snap := testutil.TestSnapshot(t)
	renderer := render.New(2, 3)

	db := testutil.TestDB(t)
	require.NoError(t, index.Sync(context.Background(), db, snap, renderer, nil, testutil.Logger))
	gen, err := og.NewGenerator()
	require.NoError(t, err)

	opts := Options{
		Snapshots:   fixedSnapshots{snap},
		Collections: testutil.SampleCollections,
		Renderer:    renderer,
		Images:      gen,
		Exports:     export.NewCache(renderer),
		Search:      db,
		Site:        Site{Name: "Evomics Documentation", Description: "Biology education guides."},
		Guides: []Guide{
			{Title: "UNIX for Biologists", Href: "/unix", Available: true, Topics: []string{"grep"}},
			{Title: "R for Biologists", Href: "/r"},
		},
		Logger: testutil.Logger,
	}
	if mutate != nil {
		mutate(&opts)
	}
	router, err := NewRouter(opts)
	require.NoError(t, err)
	return router
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodGet, target, header...)
}

func do(t *testing.T, h http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHome(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<a href="/unix">UNIX for Biologists</a>`)
	assert.Contains(t, body, "Coming soon")
}

func TestPage(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/unix/setup/install")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	body := w.Body.String()
	for _, want := range []string{
		"<title>Installing the tools | Evomics Documentation</title>",
		`<meta property="og:image" content="/og/unix/setup/install/image.png">`,
		`href="/unix/basics/grep#flags"`,
		`href="#package-managers"`,
		`href="#checking-the-install"`,
		`<aside class="toc">`,
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, `href="#troubleshooting-details"`, "TOC deeper than max depth")
}

func TestPageIndexAndTrailingSlash(t *testing.T) {
	router := testEnv(t, nil)

	for _, target := range []string{"/unix", "/unix/", "/r"} {
		assert.Equal(t, http.StatusOK, get(t, router, target).Code, target)
	}
}

func TestPageFullHidesTOC(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/unix/basics/grep")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `<aside class="toc">`)
}

func TestPageAbsoluteImageURL(t *testing.T) {
	router := testEnv(t, func(o *Options) { o.Site.URL = "https://docs.evomics.org/" })

	w := get(t, router, "/unix/setup/terminal")
	assert.Contains(t, w.Body.String(),
		`<meta property="og:image" content="https://docs.evomics.org/og/unix/setup/terminal/image.png">`)
}

func TestPageNotFound(t *testing.T) {
	router := testEnv(t, nil)

	for _, target := range []string{"/unix/nope", "/unix/setup/install/extra", "/unix/%2e%2e/r", "/elsewhere"} {
		w := get(t, router, target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Contains(t, w.Body.String(), "Page not found", target)
	}
}

func TestImage(t *testing.T) {
	router := testEnv(t, nil)

	for _, target := range []string{"/og/unix/setup/install/image.png", "/og/unix/image.png", "/og/r/image.png"} {
		w := get(t, router, target)
		require.Equal(t, http.StatusOK, w.Code, target)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		img, err := png.Decode(w.Body)
		require.NoError(t, err, target)
		assert.Equal(t, og.Width, img.Bounds().Dx(), target)
		assert.Equal(t, og.Height, img.Bounds().Dy(), target)
	}
}

func TestImageNotFound(t *testing.T) {
	router := testEnv(t, nil)

	for _, target := range []string{
		"/og/unix/setup/install",
		"/og/unix/setup/install/cover.png",
		"/og/unix/missing/image.png",
		"/og/python/image.png",
	} {
		assert.Equal(t, http.StatusNotFound, get(t, router, target).Code, target)
	}
}

func TestSearch(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/api/search?query=conda")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var results []SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.NotEmpty(t, results)
	got := results[0]
	assert.Equal(t, "/unix/setup/install", got.URL)
	assert.Equal(t, got.URL, got.ID)
	assert.Equal(t, SearchResultType, got.Type)
	assert.Equal(t, "unix", got.Collection)
}

func TestSearchCollectionFilter(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/api/search?query=biologists&tag=r")
	require.Equal(t, http.StatusOK, w.Code)
	var results []SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	for _, r := range results {
		assert.Equal(t, "r", r.Collection)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/api/search?query=%20")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestSearchBadParams(t *testing.T) {
	router := testEnv(t, nil)

	for _, target := range []string{"/api/search?query=grep&tag=python", "/api/search?query=grep&limit=0", "/api/search?query=grep&limit=x"} {
		w := get(t, router, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		var e errResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), target)
		assert.NotEmpty(t, e.Error, target)
	}
}

func TestTree(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/api/tree/unix")
	require.Equal(t, http.StatusOK, w.Code)
	var tree models.Tree
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	assert.Equal(t, "UNIX for Biologists", tree.Name)
	assert.NotEmpty(t, tree.Children)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/tree/python").Code)

	w = get(t, router, "/api/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestLLMsFull(t *testing.T) {
	router := testEnv(t, nil)

	w := get(t, router, "/llms-full.txt")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "# UNIX for Biologists (/unix)\n\n"))
	assert.Contains(t, body, "# Installing the tools (/unix/setup/install)")
	assert.NotContains(t, body, "import { Callout }")

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, body, get(t, router, "/llms-full.txt").Body.String(), "export not byte-identical")

	cond := get(t, router, "/llms-full.txt", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, cond.Code)
	assert.Zero(t, cond.Body.Len())
}

func TestHeadRequests(t *testing.T) {
	router := testEnv(t, nil)

	for _, target := range []string{"/llms-full.txt", "/og/unix/setup/install/image.png"} {
		full := get(t, router, target)
		require.Equal(t, http.StatusOK, full.Code, target)

		head := do(t, router, http.MethodHead, target)
		require.Equal(t, http.StatusOK, head.Code, target)
		assert.Zero(t, head.Body.Len(), target)
		assert.Equal(t, full.Header().Get("ETag"), head.Header().Get("ETag"), target)
		assert.Equal(t, full.Header().Get("Content-Type"), head.Header().Get("Content-Type"), target)
	}
}

func TestHealth(t *testing.T) {
	router := testEnv(t, nil)

	assert.Equal(t, http.StatusOK, get(t, router, "/health/live").Code)
	w := get(t, router, "/health/ready")
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, testutil.SamplePageCount, resp.Pages)
}

func TestMetricsRoutes(t *testing.T) {
	rec := &recordingMetrics{}
	called := false
	router := testEnv(t, func(o *Options) {
		o.Metrics = rec
		o.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})
	})

	get(t, router, "/unix/setup/install")
	get(t, router, "/og/unix/image.png")
	get(t, router, "/metrics")

	assert.True(t, called, "metrics handler not mounted")
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"/unix/*", "/og/unix/*", "/metrics"}, rec.routes)
	assert.Equal(t, []string{"page", "image"}, rec.renders)
}

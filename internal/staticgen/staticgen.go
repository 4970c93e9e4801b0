// Package staticgen pre-renders the site through its HTTP handler into a
// directory servable by any static file host.
package staticgen

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/evomics/docs/internal/og"
	"github.com/evomics/docs/internal/source"
)

// NotFoundPath is requested to produce 404.html. No collection serves it.
const NotFoundPath = "/404"

// Route is one request made against the handler and the file it produces.
type Route struct {
	Path   string // request path
	File   string // slash-separated output path
	Status int    // expected response status
}

// Routes lists every static route of snap: the home page, every page, every
// Open Graph image, the export and the 404 page. Search stays dynamic.
func Routes(snap *source.Snapshot) []Route {
	routes := []Route{{Path: "/", File: "index.html", Status: http.StatusOK}}
	for _, src := range snap.Sources() {
		for _, p := range src.Pages() {
			routes = append(routes,
				Route{Path: p.URL, File: htmlFile(p.URL), Status: http.StatusOK},
				Route{Path: og.URL(src.BaseURL(), p), File: strings.TrimPrefix(og.URL(src.BaseURL(), p), "/"), Status: http.StatusOK},
			)
		}
	}
	return append(routes,
		Route{Path: "/llms-full.txt", File: "llms-full.txt", Status: http.StatusOK},
		Route{Path: NotFoundPath, File: "404.html", Status: http.StatusNotFound},
	)
}

// htmlFile maps an HTML route to <path>/index.html.
func htmlFile(urlPath string) string {
	return path.Join(strings.Trim(urlPath, "/"), "index.html")
}

// Generate requests every route from h and writes the bodies below outDir.
// It stops at the first failed route.
func Generate(ctx context.Context, h http.Handler, routes []Route, outDir string, logger *slog.Logger) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("staticgen: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, route := range routes {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return generate(gCtx, h, route, outDir)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("staticgen: site generated",
		slog.String("out", outDir),
		slog.Int("files", len(routes)))
	return nil
}

func generate(ctx context.Context, h http.Handler, route Route, outDir string) error {
	// Page paths come from file names and may hold spaces, '?' or '#'.
	target := (&url.URL{Path: route.Path}).EscapedPath()
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != route.Status {
		return fmt.Errorf("staticgen: GET %s: status %d, want %d", route.Path, w.Code, route.Status)
	}

	out := filepath.Join(outDir, filepath.FromSlash(route.File))
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("staticgen: %w", err)
	}
	// #nosec G306 -- generated files are public documentation
	if err := os.WriteFile(out, w.Body.Bytes(), 0o644); err != nil {
		return fmt.Errorf("staticgen: write %s: %w", route.File, err)
	}
	return nil
}

// Package api implements the documentation site's HTTP surface using chi.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/evomics/docs/internal/checksum"
	"github.com/evomics/docs/internal/metrics"
)

// MetricsMiddleware records every request under its route pattern, which
// keeps label cardinality bounded by the number of routes.
func MetricsMiddleware(rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.ObserveRequest(route, r.Method, status, time.Since(start))
		})
	}
}

// cacheControl for generated artefacts. They change only when content is
// reloaded, which the ETag captures.
const cacheControl = "public, max-age=3600"

// writeCached writes body with a strong ETag and answers conditional
// requests with 304.
func writeCached(w http.ResponseWriter, r *http.Request, contentType string, body []byte, etag string) {
	if etag == "" {
		etag = checksum.ETag(body)
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

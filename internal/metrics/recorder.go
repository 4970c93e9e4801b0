// Package metrics defines the observability hooks of the server.
package metrics

import "time"

// Render kinds.
const (
	KindPage   = "page"
	KindImage  = "image"
	KindExport = "export"
)

// Recorder defines observability hooks for HTTP traffic, rendering and
// content reloads. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveRequest(route, method string, status int, d time.Duration)
	ObserveRender(kind string, d time.Duration, success bool)
	SetPages(collection string, n int)
	IncReload(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (NoopRecorder) ObserveRender(string, time.Duration, bool)         {}
func (NoopRecorder) SetPages(string, int)                              {}
func (NoopRecorder) IncReload(bool)                                    {}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "evomics"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requests        *prom.CounterVec
	requestDuration *prom.HistogramVec
	renderDuration  *prom.HistogramVec
	pages           *prom.GaugeVec
	reloads         *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them, together
// with the Go runtime and process collectors, on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	pr := &PrometheusRecorder{
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Rendering duration by kind (page, image, export)",
			Buckets:   prom.DefBuckets,
		}, []string{"kind", "result"}),
		pages: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pages",
			Help:      "Pages in the current snapshot by collection",
		}, []string{"collection"}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_reloads_total",
			Help:      "Content reloads by result",
		}, []string{"result"}),
	}
	reg.MustRegister(
		pr.requests, pr.requestDuration, pr.renderDuration, pr.pages, pr.reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return pr
}

func (p *PrometheusRecorder) ObserveRequest(route, method string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRender(kind string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.renderDuration.WithLabelValues(kind, result(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetPages(collection string, n int) {
	if p == nil {
		return
	}
	p.pages.WithLabelValues(collection).Set(float64(n))
}

func (p *PrometheusRecorder) IncReload(success bool) {
	if p == nil {
		return
	}
	p.reloads.WithLabelValues(result(success)).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

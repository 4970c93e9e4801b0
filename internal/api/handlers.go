package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evomics/docs/internal/apperr"
	"github.com/evomics/docs/internal/index"
	"github.com/evomics/docs/internal/metrics"
	"github.com/evomics/docs/internal/og"
	"github.com/evomics/docs/internal/source"
)

const maxSearchLimit = 50

// slugsParam extracts the slug segments matched by the route wildcard.
// Escaped segments are decoded individually, so an encoded slash stays
// inside its segment and is rejected by the lookup.
func slugsParam(r *http.Request) []string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "/")
	for i, p := range parts {
		if decoded, err := url.PathUnescape(p); err == nil {
			parts[i] = decoded
		}
	}
	return parts
}

// source returns the named collection of the snapshot in effect.
func (h *Handler) source(collection string) (*source.Source, error) {
	return h.opts.Snapshots.Current().Source(collection)
}

// Page returns the handler for GET <base_url> and GET <base_url>/*.
func (h *Handler) Page(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, err := h.source(collection)
		if err != nil {
			h.NotFound(w, r)
			return
		}
		page, err := src.GetPage(slugsParam(r))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				h.NotFound(w, r)
				return
			}
			h.serverError(w, "get page", err)
			return
		}

		start := time.Now()
		rendered, err := h.opts.Renderer.Render(src, page)
		h.opts.Metrics.ObserveRender(metrics.KindPage, time.Since(start), err == nil)
		if err != nil {
			h.serverError(w, "render page", err)
			return
		}

		view := h.baseView(rendered.Title, rendered.Description)
		view.ImageURL = h.absolute(rendered.ImageURL)
		view.CanonicalURL = h.absolute(rendered.URL)
		view.Collection = src.Title()
		view.CollectionURL = src.BaseURL()
		view.Page = rendered
		h.renderHTML(w, http.StatusOK, "page.gohtml", view)
	}
}

// Image returns the handler for GET /og<base_url>/*: a 1200×630 PNG card
// for the page whose slugs precede the trailing image.png segment.
func (h *Handler) Image(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slugs, err := og.StripImageSegment(slugsParam(r))
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		src, err := h.source(collection)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		page, err := src.GetPage(slugs)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}

		start := time.Now()
		var buf bytes.Buffer
		err = h.opts.Images.Render(&buf, og.Card{
			Title:       page.Title,
			Description: page.Description,
			Site:        h.opts.Site.Name,
		})
		h.opts.Metrics.ObserveRender(metrics.KindImage, time.Since(start), err == nil)
		if err != nil {
			h.serverError(w, "render image", err)
			return
		}
		writeCached(w, r, "image/png", buf.Bytes(), "")
	}
}

// LLMsFull handles GET /llms-full.txt.
func (h *Handler) LLMsFull(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	doc, err := h.opts.Exports.Get(r.Context(), h.opts.Snapshots.Current())
	h.opts.Metrics.ObserveRender(metrics.KindExport, time.Since(start), err == nil)
	if err != nil {
		h.opts.Logger.Error("export failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeCached(w, r, "text/plain; charset=utf-8", doc.Body, doc.ETag)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across collections
//	@Tags			search
//	@Produce		json
//	@Param			query	query		string	true	"Search query"
//	@Param			tag		query		string	false	"Restrict to one collection"
//	@Param			limit	query		int		false	"Maximum results (default 20, max 50)"
//	@Success		200		{array}		SearchResult
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	tag := q.Get("tag")
	if tag != "" && !h.knownCollection(tag) {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown collection: "+tag))
		return
	}
	if query == "" {
		writeJSON(w, http.StatusOK, []SearchResult{})
		return
	}

	limit := index.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = min(n, maxSearchLimit)
	}

	hits, err := h.opts.Search.Search(query, tag, limit)
	if err != nil {
		h.opts.Logger.Error("search failed", slog.String("query", query), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]SearchResult, len(hits))
	for i, hit := range hits {
		out[i] = SearchResult{
			ID:         hit.URL,
			Type:       SearchResultType,
			URL:        hit.URL,
			Title:      hit.Title,
			Excerpt:    hit.Excerpt,
			Collection: hit.Collection,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Tree handles GET /api/tree/{collection}.
//
//	@Summary		Navigation tree of a collection
//	@Tags			tree
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"
//	@Success		200			{object}	models.Tree
//	@Failure		404			{object}	errResponse
//	@Router			/tree/{collection} [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	src, err := h.source(chi.URLParam(r, "collection"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("collection not found"))
		return
	}
	writeJSON(w, http.StatusOK, src.PageTree())
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready: ready once a snapshot is loaded.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	snap := h.opts.Snapshots.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Pages: snap.PageCount()})
}

func (h *Handler) knownCollection(name string) bool {
	for _, c := range h.opts.Collections {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.opts.Logger.Error(op+" failed", slog.String("error", err.Error()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

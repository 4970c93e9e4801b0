package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/render"
)

// templateFS contains the HTML templates bundled with the binary.
//
//go:embed templates/*.gohtml
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.New("base").Funcs(template.FuncMap{
		"isPage":      func(n *models.TreeNode) bool { return n.Type == models.NodePage },
		"isFolder":    func(n *models.TreeNode) bool { return n.Type == models.NodeFolder },
		"isSeparator": func(n *models.TreeNode) bool { return n.Type == models.NodeSeparator },
		"active":      func(url, current string) bool { return url != "" && url == current },
		"nav": func(nodes []*models.TreeNode, current string) navLevel {
			return navLevel{Nodes: nodes, Current: current}
		},
	}).ParseFS(templateFS, "templates/layout.gohtml", "templates/home.gohtml", "templates/page.gohtml", "templates/notfound.gohtml")
}

// navLevel is one level of the recursive sidebar template.
type navLevel struct {
	Nodes   []*models.TreeNode
	Current string
}

// view is the data passed to every page template.
type view struct {
	Site          Site
	Title         string
	Description   string
	CanonicalURL  string
	ImageURL      string
	LiveReload    bool
	Guides        []Guide
	Collection    string
	CollectionURL string
	Page          *render.Rendered
}

func (h *Handler) baseView(title, description string) view {
	return view{
		Site:        h.opts.Site,
		Title:       title,
		Description: description,
		LiveReload:  h.opts.Events != nil,
	}
}

// absolute prefixes site-relative URLs with the canonical origin when one
// is configured. Crawlers require absolute og:image URLs.
func (h *Handler) absolute(u string) string {
	if h.opts.Site.URL == "" || !strings.HasPrefix(u, "/") {
		return u
	}
	return strings.TrimRight(h.opts.Site.URL, "/") + u
}

// renderHTML executes name into a buffer first so that a template error
// still produces a clean 500.
func (h *Handler) renderHTML(w http.ResponseWriter, status int, name string, data view) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.opts.Logger.Error("render template failed", slog.String("template", name), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, _ *http.Request) {
	v := h.baseView(h.opts.Site.Name, h.opts.Site.Description)
	v.Guides = h.opts.Guides
	h.renderHTML(w, http.StatusOK, "home.gohtml", v)
}

// NotFound renders the HTML 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	v := h.baseView("Page not found", "The page you are looking for does not exist.")
	h.renderHTML(w, http.StatusNotFound, "notfound.gohtml", v)
}

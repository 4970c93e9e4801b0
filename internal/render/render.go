// Package render turns resolved pages into their HTML view, their export
// text and their search document.
package render

import (
	"context"
	"fmt"
	"html/template"

	"github.com/evomics/docs/internal/markdown"
	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/og"
	"github.com/evomics/docs/internal/source"
)

// Rendered is the view model of one page.
type Rendered struct {
	Title       string
	Description string
	Body        template.HTML
	TOC         []models.TOCItem
	Full        bool
	URL         string
	ImageURL    string
	Tree        *models.Tree
}

// Renderer renders pages with a fixed TOC depth range.
type Renderer struct {
	minDepth int
	maxDepth int
}

// New returns a Renderer keeping TOC entries with minDepth <= depth <= maxDepth.
func New(minDepth, maxDepth int) *Renderer {
	return &Renderer{minDepth: minDepth, maxDepth: maxDepth}
}

// Render builds the view of page. The body is sanitised HTML with relative
// document links rewritten to page URLs.
func (r *Renderer) Render(src *source.Source, page *models.Page) (*Rendered, error) {
	body, err := markdown.Render(page.Body, resolver(src, page))
	if err != nil {
		return nil, fmt.Errorf("render: %s: %w", page.URL, err)
	}
	return &Rendered{
		Title:       page.Title,
		Description: page.Description,
		Body:        template.HTML(body), //nolint:gosec // sanitised by the markdown engine
		TOC:         markdown.FilterTOC(page.TOC, r.minDepth, r.maxDepth),
		Full:        page.Full,
		URL:         page.URL,
		ImageURL:    og.URL(src.BaseURL(), page),
		Tree:        src.PageTree(),
	}, nil
}

// Text returns the processed text of page used by the llms-full.txt export.
func (r *Renderer) Text(ctx context.Context, src *source.Source, page *models.Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return markdown.Processed(page.Body, resolver(src, page)), nil
}

// SearchDocument returns the plain text of page's rendered body.
func (r *Renderer) SearchDocument(src *source.Source, page *models.Page) (string, error) {
	body, err := markdown.Render(page.Body, resolver(src, page))
	if err != nil {
		return "", fmt.Errorf("render: %s: %w", page.URL, err)
	}
	return markdown.PlainText(body), nil
}

func resolver(src *source.Source, page *models.Page) markdown.Resolver {
	return func(href string) (string, bool) {
		return src.ResolveHref(page, href)
	}
}

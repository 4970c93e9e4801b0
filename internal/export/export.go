// Package export builds llms-full.txt: every page of every collection as
// plain text, in collection then navigation order.
package export

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/evomics/docs/internal/checksum"
	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/source"
)

// Texter produces the processed text of a page.
type Texter interface {
	Text(ctx context.Context, src *source.Source, page *models.Page) (string, error)
}

const separator = "\n\n"

// Block formats one page of the export.
func Block(page *models.Page, text string) string {
	return "# " + page.Title + " (" + page.URL + ")" + separator + text
}

// Build renders every page of snap concurrently and joins the blocks in
// order. The first rendering error cancels the remaining work and is
// returned; no partial export is produced.
func Build(ctx context.Context, snap *source.Snapshot, texts Texter) (string, error) {
	type job struct {
		src  *source.Source
		page *models.Page
	}
	var jobs []job
	for _, src := range snap.Sources() {
		for _, p := range src.Pages() {
			jobs = append(jobs, job{src: src, page: p})
		}
	}

	blocks := make([]string, len(jobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, j := range jobs {
		g.Go(func() error {
			text, err := texts.Text(gCtx, j.src, j.page)
			if err != nil {
				return fmt.Errorf("export: %s: %w", j.page.URL, err)
			}
			blocks[i] = Block(j.page, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(blocks, separator), nil
}

// Document is a built export with its entity tag.
type Document struct {
	Body []byte
	ETag string
}

// Cache memoises the export of the most recent snapshot. Content only
// changes on reload, so the export is rebuilt once per snapshot.
type Cache struct {
	texts Texter

	mu   sync.Mutex
	snap *source.Snapshot
	doc  *Document
}

// NewCache returns an empty cache rendering with texts.
func NewCache(texts Texter) *Cache {
	return &Cache{texts: texts}
}

// Get returns the export of snap, building it on first use. Failed builds
// are not cached.
func (c *Cache) Get(ctx context.Context, snap *source.Snapshot) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == snap && c.doc != nil {
		return c.doc, nil
	}
	body, err := Build(ctx, snap, c.texts)
	if err != nil {
		return nil, err
	}
	data := []byte(body)
	c.snap, c.doc = snap, &Document{Body: data, ETag: checksum.ETag(data)}
	return c.doc, nil
}

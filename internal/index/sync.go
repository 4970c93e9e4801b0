package index

import (
	"context"
	"log/slog"

	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/source"
)

// Documenter produces the indexed text of a page.
type Documenter interface {
	SearchDocument(src *source.Source, page *models.Page) (string, error)
}

// Sync brings the index up to date with snap:
//   - new/changed pages of the indexed collections are upserted
//   - pages no longer present (or no longer indexed) are deleted
//
// collections restricts indexing to the named collections; empty means all.
func Sync(ctx context.Context, db PageIndex, snap *source.Snapshot, docs Documenter, collections []string, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(collections))
	for _, c := range collections {
		wanted[c] = true
	}

	live := make(map[string]struct{}, snap.PageCount())
	var indexed int
	for _, src := range snap.Sources() {
		if len(wanted) > 0 && !wanted[src.Name()] {
			continue
		}
		for _, p := range src.Pages() {
			if err := ctx.Err(); err != nil {
				return err
			}
			live[p.URL] = struct{}{}
			if checksums[p.URL] == p.Checksum {
				continue
			}
			if err := indexPage(db, docs, src, p); err != nil {
				logger.Warn("sync: index failed", slog.String("url", p.URL), slog.String("error", err.Error()))
				continue
			}
			indexed++
			logger.Debug("sync: indexed", slog.String("url", p.URL))
		}
	}

	// Remove stale entries.
	var removed int
	for url := range checksums {
		if _, ok := live[url]; ok {
			continue
		}
		if err := db.DeletePage(url); err != nil {
			logger.Warn("sync: delete failed", slog.String("url", url), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("url", url))
	}

	logger.Info("sync: search index updated",
		slog.Int("pages", len(live)),
		slog.Int("indexed", indexed),
		slog.Int("removed", removed))
	return nil
}

func indexPage(db PageIndex, docs Documenter, src *source.Source, p *models.Page) error {
	body, err := docs.SearchDocument(src, p)
	if err != nil {
		return err
	}
	return db.UpsertPage(PageRow{
		URL:         p.URL,
		Collection:  src.Name(),
		Title:       p.Title,
		Description: p.Description,
		Body:        body,
		Checksum:    p.Checksum,
	})
}

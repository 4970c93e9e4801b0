// Package source resolves content collections into immutable, queryable
// page sources: lookup by slug, full listing and the navigation tree.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/evomics/docs/internal/apperr"
	"github.com/evomics/docs/internal/markdown"
	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/parser"
	"github.com/evomics/docs/internal/storage"
)

// Collection describes one content collection.
type Collection struct {
	Name    string
	Title   string
	Dir     string
	BaseURL string
}

// Source is one loaded collection. It is never mutated after Load returns.
type Source struct {
	collection Collection
	pages      []*models.Page
	bySlug     map[string]*models.Page
	byPath     map[string]*models.Page
	tree       *models.Tree
}

// Load reads every document and meta file of store, validates them and
// builds the page index and tree.
func Load(ctx context.Context, store storage.Provider, c Collection, logger *slog.Logger) (*Source, error) {
	s := &Source{
		collection: c,
		bySlug:     make(map[string]*models.Page),
		byPath:     make(map[string]*models.Page),
	}
	metas := make(map[string]*models.Meta)

	var files []models.FileMetadata
	if store != nil {
		var err error
		files, err = store.List("")
		if err != nil {
			return nil, fmt.Errorf("source: %s: %w", c.Name, err)
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := store.Read(f.Path)
		if err != nil {
			return nil, fmt.Errorf("source: %s: %w", c.Name, err)
		}

		if path.Base(f.Path) == storage.MetaFile {
			m, err := parser.ParseMeta(data)
			if err != nil {
				return nil, fmt.Errorf("source: %s: %s: %w", c.Name, f.Path, err)
			}
			metas[dirOf(f.Path)] = m
			continue
		}

		res, err := parser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("source: %s: %s: %w", c.Name, f.Path, err)
		}
		slugs := slugsFor(f.Path)
		key := strings.Join(slugs, "/")
		if prev, dup := s.bySlug[key]; dup {
			return nil, fmt.Errorf("source: %s: %s and %s both map to %q: %w",
				c.Name, prev.Path, f.Path, pageURL(c.BaseURL, slugs), apperr.ErrDuplicateSlug)
		}
		p := &models.Page{
			Collection:  c.Name,
			Path:        f.Path,
			Slugs:       slugs,
			URL:         pageURL(c.BaseURL, slugs),
			Title:       res.Frontmatter.Title,
			Description: res.Frontmatter.Description,
			Icon:        res.Frontmatter.Icon,
			Full:        res.Frontmatter.Full,
			Body:        res.Body,
			TOC:         markdown.Headings(res.Body),
			Checksum:    f.Checksum,
		}
		s.bySlug[key] = p
		s.byPath[f.Path] = p
	}

	s.tree, s.pages = buildTree(c.Title, s.byPath, metas, logger)
	logger.Debug("source: loaded",
		slog.String("collection", c.Name),
		slog.Int("pages", len(s.pages)))
	return s, nil
}

// LoadDir loads the collection stored in dir. A missing directory yields an
// empty collection so placeholder guides can be configured ahead of content.
func LoadDir(ctx context.Context, dir string, c Collection, logger *slog.Logger) (*Source, error) {
	store, err := storage.NewFS(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			logger.Warn("source: collection directory missing, serving empty collection",
				slog.String("collection", c.Name),
				slog.String("dir", dir))
			return Load(ctx, nil, c, logger)
		}
		return nil, fmt.Errorf("source: %s: %w", c.Name, err)
	}
	return Load(ctx, store, c, logger)
}

// Name returns the collection name.
func (s *Source) Name() string { return s.collection.Name }

// Title returns the collection title.
func (s *Source) Title() string { return s.collection.Title }

// BaseURL returns the URL prefix every page of the collection lives under.
func (s *Source) BaseURL() string { return s.collection.BaseURL }

// GetPage returns the page for slugs (empty for the index page) or an error
// wrapping apperr.ErrNotFound.
func (s *Source) GetPage(slugs []string) (*models.Page, error) {
	for _, seg := range slugs {
		if !validSegment(seg) {
			return nil, fmt.Errorf("source: %s: invalid slug segment %q: %w", s.collection.Name, seg, apperr.ErrNotFound)
		}
	}
	p, ok := s.bySlug[strings.Join(slugs, "/")]
	if !ok {
		return nil, fmt.Errorf("source: %s: %s: %w", s.collection.Name, pageURL(s.collection.BaseURL, slugs), apperr.ErrNotFound)
	}
	return p, nil
}

// Pages returns every page in navigation order. Pages left out of the tree
// follow, ordered by URL.
func (s *Source) Pages() []*models.Page {
	return s.pages
}

// GenerateParams returns the slug list of every page, for static generation.
func (s *Source) GenerateParams() [][]string {
	out := make([][]string, len(s.pages))
	for i, p := range s.pages {
		out[i] = append([]string{}, p.Slugs...)
	}
	return out
}

// PageTree returns the navigation tree.
func (s *Source) PageTree() *models.Tree {
	return s.tree
}

// ResolveHref maps a link written relative to from's file (for example
// "./install.mdx" or "../basics/grep#flags") to the URL of the target page.
// Links that are absolute, external, fragment-only or point at no known
// page are reported as unresolved.
func (s *Source) ResolveHref(from *models.Page, href string) (string, bool) {
	target, suffix, ok := splitRelative(href)
	if !ok {
		return "", false
	}
	joined := path.Clean(path.Join(from.Dir(), target))
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	p := s.lookupFile(joined)
	if p == nil {
		return "", false
	}
	return p.URL + suffix, true
}

func (s *Source) lookupFile(target string) *models.Page {
	if target == "." {
		target = ""
	}
	var candidates []string
	if target != "" {
		candidates = append(candidates, target, target+".mdx", target+".md")
	}
	candidates = append(candidates, path.Join(target, "index.mdx"), path.Join(target, "index.md"))
	for _, c := range candidates {
		if p, ok := s.byPath[c]; ok {
			return p
		}
	}
	return nil
}

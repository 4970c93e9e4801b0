package source

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evomics/docs/internal/apperr"
	"github.com/evomics/docs/internal/storage"
)

// Snapshot is the set of all collections loaded together. Requests hold on
// to one snapshot for their whole lifetime.
type Snapshot struct {
	sources  []*Source
	byName   map[string]*Source
	LoadedAt time.Time
}

// NewSnapshot groups already loaded sources, keeping their order.
func NewSnapshot(sources ...*Source) *Snapshot {
	s := &Snapshot{
		sources:  sources,
		byName:   make(map[string]*Source, len(sources)),
		LoadedAt: time.Now(),
	}
	for _, src := range sources {
		s.byName[src.Name()] = src
	}
	return s
}

// LoadSnapshot loads every collection below root concurrently. Any
// collection failing to load fails the whole snapshot.
func LoadSnapshot(ctx context.Context, root string, collections []Collection, logger *slog.Logger) (*Snapshot, error) {
	sources := make([]*Source, len(collections))
	g, gCtx := errgroup.WithContext(ctx)
	for i, c := range collections {
		g.Go(func() error {
			src, err := LoadDir(gCtx, filepath.Join(root, filepath.FromSlash(c.Dir)), c, logger)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewSnapshot(sources...), nil
}

// Sources returns the collections in configuration order.
func (s *Snapshot) Sources() []*Source {
	return s.sources
}

// Source returns the named collection or an error wrapping apperr.ErrNotFound.
func (s *Snapshot) Source(name string) (*Source, error) {
	src, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("source: collection %q: %w", name, apperr.ErrNotFound)
	}
	return src, nil
}

// Locate maps a file path relative to the content root to its collection
// and the URL it is (or would be) served at. url is empty for files that
// are not documents; both are empty outside every collection.
func (s *Snapshot) Locate(file string) (collection, url string) {
	file = path.Clean(file)
	for _, src := range s.sources {
		dir := path.Clean(src.collection.Dir)
		rel, ok := strings.CutPrefix(file, dir+"/")
		if dir == "." {
			rel, ok = file, true
		}
		if !ok {
			continue
		}
		if path.Base(rel) == storage.MetaFile {
			return src.Name(), ""
		}
		return src.Name(), pageURL(src.BaseURL(), slugsFor(rel))
	}
	return "", ""
}

// PageCount returns the number of pages across all collections.
func (s *Snapshot) PageCount() int {
	n := 0
	for _, src := range s.sources {
		n += len(src.Pages())
	}
	return n
}

// Registry holds the current snapshot and replaces it on reload.
type Registry struct {
	root        string
	collections []Collection
	logger      *slog.Logger

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serialises reloads
}

// NewRegistry performs the initial load; it fails if the content is invalid.
func NewRegistry(ctx context.Context, root string, collections []Collection, logger *slog.Logger) (*Registry, error) {
	r := &Registry{root: root, collections: collections, logger: logger}
	if _, err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Root returns the content root directory.
func (r *Registry) Root() string {
	return r.root
}

// Current returns the snapshot in effect.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Reload loads a fresh snapshot and swaps it in. On failure the previous
// snapshot stays in effect.
func (r *Registry) Reload(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := LoadSnapshot(ctx, r.root, r.collections, r.logger)
	if err != nil {
		return nil, err
	}
	r.current.Store(snap)
	r.logger.Info("source: snapshot loaded",
		slog.Int("collections", len(snap.Sources())),
		slog.Int("pages", snap.PageCount()))
	return snap, nil
}

package source

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/evomics/docs/internal/storage"
)

// Change kinds passed to EventCallback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const reloadDebounce = 200 * time.Millisecond

// EventCallback is called after a watcher-driven reload, once per changed
// file. path is relative to the content root and slash-separated.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the registry's content root and reloads
// the snapshot after file changes settle, until ctx is cancelled. cb (if
// non-nil) is called for every change included in a successful reload.
//
// New directories created at runtime are automatically added to the watch
// list. A reload that fails (for example on invalid frontmatter) keeps the
// previous snapshot and drops the pending changes.
func Watch(ctx context.Context, reg *Registry, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := reg.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]string)
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			changes := pending
			pending = make(map[string]string)
			if _, err := reg.Reload(ctx); err != nil {
				logger.Warn("watcher: reload failed, keeping previous snapshot", slog.String("error", err.Error()))
				continue
			}
			if cb != nil {
				for _, p := range sortedKeys(changes) {
					cb(changes[p], p)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					markDir(root, ev.Name, pending)
					scheduleReload()
					continue
				}
			}

			if !storage.IsContentFile(ev.Name) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&fsnotify.Create != 0:
				pending[rel] = ChangeCreated
			case ev.Op&fsnotify.Write != 0:
				if pending[rel] != ChangeCreated {
					pending[rel] = ChangeUpdated
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path; the new path arrives as Create.
				pending[rel] = ChangeDeleted
			default:
				continue
			}
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			scheduleReload()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// markDir records every content file already present in a new directory.
func markDir(root, dir string, pending map[string]string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsContentFile(p) {
			return nil
		}
		if rel, relErr := filepath.Rel(root, p); relErr == nil {
			pending[filepath.ToSlash(rel)] = ChangeCreated
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

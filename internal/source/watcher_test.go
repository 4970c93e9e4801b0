package source

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func watcherTestEnv(t *testing.T) (string, *Registry) {
	t.Helper()
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "unix"), fixture)
	reg, err := NewRegistry(context.Background(), root, testCollections, discardLogger)
	require.NoError(t, err)
	return root, reg
}

func hasPage(reg *Registry, slugs ...string) bool {
	src, err := reg.Current().Source("unix")
	if err != nil {
		return false
	}
	_, err = src.GetPage(slugs)
	return err == nil
}

func TestWatcher_NewFileReloads(t *testing.T) {
	root, reg := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, reg, discardLogger, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "unix", "new.md"), []byte("---\ntitle: New\ndescription: n\n---\n"), 0o644)

	assert.Eventually(t, func() bool {
		return hasPage(reg, "new")
	}, 5*time.Second, 50*time.Millisecond, "new page not loaded by watcher")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:unix/new.md" {
				return true
			}
		}
		return false
	}, 2*time.Second, 50*time.Millisecond, "expected created:unix/new.md callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, reg := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, reg, discardLogger, nil)
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(root, "unix", "advanced")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(300 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "awk.md"), []byte("---\ntitle: Awk\ndescription: a\n---\n"), 0o644)

	assert.Eventually(t, func() bool {
		return hasPage(reg, "advanced", "awk")
	}, 5*time.Second, 50*time.Millisecond, "page in new directory not loaded by watcher")
}

func TestWatcher_DeleteRemovesPage(t *testing.T) {
	root, reg := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, reg, discardLogger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(root, "unix", "setup", "terminal.md"))

	assert.Eventually(t, func() bool {
		return !hasPage(reg, "setup", "terminal")
	}, 5*time.Second, 50*time.Millisecond, "deleted page still served")
}

func TestWatcher_InvalidEditKeepsSnapshot(t *testing.T) {
	root, reg := watcherTestEnv(t)
	before := reg.Current()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, reg, discardLogger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "unix", "setup", "terminal.md"), []byte("broken"), 0o644)
	time.Sleep(600 * time.Millisecond)

	assert.Same(t, before, reg.Current(), "invalid content replaced the snapshot")
}

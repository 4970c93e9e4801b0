package internal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evomics/docs/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Content.Root = testutil.TestContent(t)
	cfg.Search.SQLitePath = filepath.Join(t.TempDir(), "search.db")
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "public")

	require.NoError(t, Build(context.Background(), out, WithConfig(cfg), WithLogOutput(io.Discard)))

	for _, name := range []string{
		"index.html",
		"404.html",
		"llms-full.txt",
		"unix/index.html",
		"unix/setup/install/index.html",
		"og/unix/setup/install/image.png",
		"og/r/image.png",
	} {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(name)))
		assert.NoError(t, err, "missing %s", name)
	}

	data, err := os.ReadFile(filepath.Join(out, "llms-full.txt"))
	require.NoError(t, err)
	require.Contains(t, string(data), "# R for Biologists (/r)", "export missing r collection")
}

func TestBuild_FileNamesNeedingEscapes(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteFiles(t, cfg.Content.Root, map[string]string{
		"unix/my file.md": "---\ntitle: Spaces\ndescription: A page whose slug has a space.\n---\n\nText.\n",
		"unix/why?.md":    "---\ntitle: Question\ndescription: A page whose slug has a question mark.\n---\n\nText.\n",
	})
	out := t.TempDir()

	err := Build(context.Background(), out, WithConfig(cfg), WithLogOutput(io.Discard))
	require.NoError(t, err)

	for _, name := range []string{
		"unix/my file/index.html",
		"unix/why?/index.html",
		"og/unix/my file/image.png",
		"og/unix/why?/image.png",
	} {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(name)))
		require.NoError(t, err, name)
	}
	data, err := os.ReadFile(filepath.Join(out, "unix", "my file", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<title>Spaces | Evomics Documentation</title>")
}

func TestBuild_InvalidContent(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteFiles(t, cfg.Content.Root, map[string]string{
		"unix/broken.md": "no frontmatter",
	})

	err := Build(context.Background(), t.TempDir(), WithConfig(cfg), WithLogOutput(io.Discard))
	require.Error(t, err, "expected error for invalid content")
}

func TestRun_RequiresConfig(t *testing.T) {
	require.Error(t, Run(context.Background()), "expected error without config")
}

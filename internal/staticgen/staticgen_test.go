package staticgen

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evomics/docs/internal/testutil"
)

func TestRoutes(t *testing.T) {
	snap := testutil.TestSnapshot(t)

	routes := Routes(snap)
	files := make(map[string]string, len(routes))
	for _, r := range routes {
		files[r.Path] = r.File
	}

	require.Len(t, routes, 2*testutil.SamplePageCount+3)
	require.Equal(t, "index.html", files["/"])
	require.Equal(t, "unix/index.html", files["/unix"])
	require.Equal(t, "unix/setup/install/index.html", files["/unix/setup/install"])
	require.Equal(t, "og/unix/setup/install/image.png", files["/og/unix/setup/install/image.png"])
	require.Equal(t, "og/r/image.png", files["/og/r/image.png"])
	require.Equal(t, "llms-full.txt", files["/llms-full.txt"])
	require.Equal(t, "404.html", files[NotFoundPath])
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == NotFoundPath {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = w.Write([]byte("body of " + r.URL.Path))
	})
	routes := []Route{
		{Path: "/", File: "index.html", Status: http.StatusOK},
		{Path: "/unix/setup", File: "unix/setup/index.html", Status: http.StatusOK},
		{Path: NotFoundPath, File: "404.html", Status: http.StatusNotFound},
	}

	require.NoError(t, Generate(context.Background(), h, routes, out, testutil.Logger))

	data, err := os.ReadFile(filepath.Join(out, "unix", "setup", "index.html"))
	require.NoError(t, err)
	require.Equal(t, "body of /unix/setup", string(data))

	data, err = os.ReadFile(filepath.Join(out, "404.html"))
	require.NoError(t, err)
	require.Equal(t, "body of "+NotFoundPath, string(data))
}

func TestGenerateUnexpectedStatus(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	routes := []Route{{Path: "/llms-full.txt", File: "llms-full.txt", Status: http.StatusOK}}

	err := Generate(context.Background(), h, routes, t.TempDir(), testutil.Logger)
	require.ErrorContains(t, err, "status 500")
}

func TestGenerate_EscapesPaths(t *testing.T) {
	out := t.TempDir()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	})
	routes := []Route{
		{Path: "/unix/my file", File: "unix/my file/index.html", Status: http.StatusOK},
		{Path: "/unix/what?", File: "unix/what?/index.html", Status: http.StatusOK},
		{Path: "/og/unix/c#/image.png", File: "og/unix/c#/image.png", Status: http.StatusOK},
	}

	require.NoError(t, Generate(context.Background(), h, routes, out, testutil.Logger))

	for _, r := range routes {
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(r.File)))
		require.NoError(t, err)
		require.Equal(t, r.Path, string(data))
	}
}

package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evomics/docs/internal/export"
	"github.com/evomics/docs/internal/index"
	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/render"
	"github.com/evomics/docs/internal/source"
	"github.com/evomics/docs/internal/testutil"
)

type fixedSnapshots struct{ snap *source.Snapshot }

func (f fixedSnapshots) Current() *source.Snapshot { return f.snap }

func testServer(t *testing.T) *Server {
	t.Helper()

	snap := testutil.TestSnapshot(t)
	renderer := render.New(2, 3)
	db := testutil.TestDB(t)
	require.NoError(t, index.Sync(context.Background(), db, snap, renderer, nil, testutil.Logger))
	return New(fixedSnapshots{snap}, renderer, export.NewCache(renderer), db)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_docs":
		result, err = srv.searchDocs(ctx, req)
	case "read_page":
		result, err = srv.readPage(ctx, req)
	case "list_pages":
		result, err = srv.listPages(ctx, req)
	case "get_page_tree":
		result, err = srv.getPageTree(ctx, req)
	case "get_content_format":
		result, err = srv.getContentFormat(ctx, req)
	default:
		require.FailNow(t, "unknown tool", name)
	}

	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchDocs(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_docs", map[string]interface{}{"query": "samtools"})
	require.False(t, r.IsError, resultText(r))
	var results []index.SearchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &results))
	require.NotEmpty(t, results)
	require.Equal(t, "/unix/setup/install", results[0].URL)
}

func TestSearchDocsUnknownCollection(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_docs", map[string]interface{}{"query": "grep", "collection": "python"})
	require.True(t, r.IsError, "expected error for unknown collection")
}

func TestReadPage(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_page", map[string]interface{}{"url": "/unix/setup/install"})
	require.False(t, r.IsError, resultText(r))
	text := resultText(r)
	require.True(t, strings.HasPrefix(text, "# Installing the tools (/unix/setup/install)\n\n"), "read result starts with %q", text[:min(len(text), 60)])
	require.Contains(t, text, "/unix/basics/grep#flags", "relative link not rewritten")

	r = callTool(t, srv, "read_page", map[string]interface{}{"url": "/r/"})
	require.False(t, r.IsError, resultText(r))
	require.True(t, strings.HasPrefix(resultText(r), "# R for Biologists (/r)"), "index page = %q", resultText(r))
}

func TestReadPageMissing(t *testing.T) {
	srv := testServer(t)
	for _, url := range []string{"/unix/nope", "/python/intro", "/unix/../r"} {
		r := callTool(t, srv, "read_page", map[string]interface{}{"url": url})
		assert.True(t, r.IsError, "expected error for %s", url)
	}
}

func TestListPages(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_pages", map[string]interface{}{})
	lines := strings.Split(resultText(r), "\n")
	require.Len(t, lines, testutil.SamplePageCount)
	require.Equal(t, "/unix\tUNIX for Biologists", lines[0])

	r = callTool(t, srv, "list_pages", map[string]interface{}{"collection": "r"})
	require.Equal(t, "/r\tR for Biologists", resultText(r))
}

func TestGetPageTree(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_page_tree", map[string]interface{}{"collection": "unix"})
	var tree models.Tree
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &tree))
	require.Equal(t, "UNIX for Biologists", tree.Name)

	r = callTool(t, srv, "get_page_tree", map[string]interface{}{})
	require.True(t, r.IsError, "expected error without collection")
}

func TestContentFormat(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_content_format", nil)
	require.Equal(t, ContentFormatContract, resultText(r))
}

func TestLLMsFullResource(t *testing.T) {
	srv := testServer(t)

	contents, err := srv.readLLMsFullResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok, "content type %T", contents[0])
	require.Equal(t, LLMsFullURI, tc.URI)
	require.Contains(t, tc.Text, "# Searching with grep (/unix/basics/grep)")
}

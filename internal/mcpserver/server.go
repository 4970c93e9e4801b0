// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the documentation to LLM tooling via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/evomics/docs/internal/apperr"
	"github.com/evomics/docs/internal/export"
	"github.com/evomics/docs/internal/index"
	"github.com/evomics/docs/internal/models"
	"github.com/evomics/docs/internal/render"
	"github.com/evomics/docs/internal/source"
)

// LLMsFullURI is the resource URI of the full-text export.
const LLMsFullURI = "evomics://llms-full.txt"

// ContentFormatURI is the resource URI of the authoring contract.
const ContentFormatURI = "evomics://content-format"

// Snapshots yields the content snapshot in effect.
type Snapshots interface {
	Current() *source.Snapshot
}

// Server wraps the MCP server with the documentation tools.
type Server struct {
	mcp      *server.MCPServer
	snaps    Snapshots
	renderer *render.Renderer
	exports  *export.Cache
	search   index.Searcher
}

// New creates a new MCP server with all documentation tools registered.
func New(snaps Snapshots, renderer *render.Renderer, exports *export.Cache, search index.Searcher) *Server {
	s := &Server{snaps: snaps, renderer: renderer, exports: exports, search: search}

	s.mcp = server.NewMCPServer(
		"Evomics Documentation",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_docs",
		mcp.WithDescription("Full-text search through page titles, descriptions and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("collection", mcp.Description("Optional collection to search (e.g. unix)")),
	), s.searchDocs)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read a page as plain Markdown with links rewritten to page URLs."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL (e.g. /unix/setup/install)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of all collections or of one collection, in navigation order."),
		mcp.WithString("collection", mcp.Description("Optional collection name (empty for all)")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("get_page_tree",
		mcp.WithDescription("Return the sidebar navigation tree of a collection as JSON."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
	), s.getPageTree)

	s.mcp.AddTool(mcp.NewTool("get_content_format",
		mcp.WithDescription("Returns the authoring rules for documentation pages and meta.json files."),
	), s.getContentFormat)

	s.mcp.AddResource(
		mcp.NewResource(LLMsFullURI, "llms-full.txt",
			mcp.WithResourceDescription("Every page of every collection as one plain-text document."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readLLMsFullResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(ContentFormatURI, "Content Format",
			mcp.WithResourceDescription("Authoring rules for documentation pages."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	collection := optionalString(req, "collection")
	if collection != "" {
		if _, err := s.snaps.Current().Source(collection); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown collection: %s", collection)), nil
		}
	}
	results, err := s.search.Search(query, collection, index.DefaultLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, page, err := findPage(s.snaps.Current(), url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", url)), nil
	}
	text, err := s.renderer.Text(ctx, src, page)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(export.Block(page, text)), nil
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.snaps.Current()
	sources := snap.Sources()
	if name := optionalString(req, "collection"); name != "" {
		src, err := snap.Source(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown collection: %s", name)), nil
		}
		sources = []*source.Source{src}
	}

	var lines []string
	for _, src := range sources {
		for _, p := range src.Pages() {
			lines = append(lines, p.URL+"\t"+p.Title)
		}
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getPageTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := s.snaps.Current().Source(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown collection: %s", name)), nil
	}
	out, _ := json.MarshalIndent(src.PageTree(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getContentFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readLLMsFullResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := s.exports.Get(ctx, s.snaps.Current())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LLMsFullURI,
			MIMEType: "text/plain",
			Text:     string(doc.Body),
		},
	}, nil
}

func (s *Server) readContentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

// findPage resolves a page URL against the collections' base URLs.
func findPage(snap *source.Snapshot, url string) (*source.Source, *models.Page, error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	for _, src := range snap.Sources() {
		base := src.BaseURL()
		var slugs []string
		switch {
		case url == base:
		case strings.HasPrefix(url, base+"/"):
			slugs = strings.Split(strings.TrimPrefix(url, base+"/"), "/")
		default:
			continue
		}
		page, err := src.GetPage(slugs)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return src, page, nil
	}
	return nil, nil, fmt.Errorf("mcpserver: page %q: %w", url, apperr.ErrNotFound)
}

// Package models defines the domain types for the documentation site.
package models

import "strings"

// Page is one document of a collection, materialised when content is loaded.
type Page struct {
	Collection  string    `json:"collection"`
	Path        string    `json:"path"` // slash-separated, relative to the collection dir
	Slugs       []string  `json:"slugs"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Full        bool      `json:"full,omitempty"`
	Body        string    `json:"-"`
	TOC         []TOCItem `json:"toc"`
	Checksum    string    `json:"checksum"`
}

// Dir returns the slash-separated directory of the source file.
func (p *Page) Dir() string {
	i := strings.LastIndex(p.Path, "/")
	if i < 0 {
		return ""
	}
	return p.Path[:i]
}

// TOCItem is one heading of a page.
type TOCItem struct {
	Title  string `json:"title"`
	Depth  int    `json:"depth"`
	Anchor string `json:"anchor"`
}

// URL returns the in-page link for the heading.
func (t TOCItem) URL() string {
	return "#" + t.Anchor
}

// Tree node kinds.
const (
	NodePage      = "page"
	NodeFolder    = "folder"
	NodeSeparator = "separator"
)

// Tree is the sidebar navigation of one collection.
type Tree struct {
	Name     string      `json:"name"`
	Children []*TreeNode `json:"children"`
}

// TreeNode is a page, folder or separator in a Tree.
type TreeNode struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	URL         string      `json:"url,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	External    bool        `json:"external,omitempty"`
	Index       *TreeNode   `json:"index,omitempty"`
	Children    []*TreeNode `json:"children,omitempty"`
	DefaultOpen bool        `json:"defaultOpen,omitempty"`
	Root        bool        `json:"root,omitempty"`
}

// Frontmatter is the validated header of a content document.
type Frontmatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Full        bool   `yaml:"full"`
}

// Meta is the per-folder navigation file (meta.json).
type Meta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Root        bool     `json:"root"`
	DefaultOpen bool     `json:"defaultOpen"`
	Pages       []string `json:"pages"`
}

// FileMetadata is a lightweight representation returned by storage listings.
type FileMetadata struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

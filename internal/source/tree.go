package source

import (
	"log/slog"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/evomics/docs/internal/models"
)

const restItem = "..."

var titleCaser = cases.Title(language.English)

type folder struct {
	path     string
	name     string
	index    *models.Page
	pages    map[string]*models.Page // file stem -> page, index excluded
	children map[string]*folder
	meta     *models.Meta
}

func newFolder(dir, name string) *folder {
	return &folder{
		path:     dir,
		name:     name,
		pages:    make(map[string]*models.Page),
		children: make(map[string]*folder),
	}
}

func (f *folder) ensure(dir string) *folder {
	if dir == "" {
		return f
	}
	cur := f
	for _, part := range strings.Split(dir, "/") {
		next, ok := cur.children[part]
		if !ok {
			next = newFolder(path.Join(cur.path, part), part)
			cur.children[part] = next
		}
		cur = next
	}
	return cur
}

func (f *folder) find(dir string) *folder {
	if dir == "" {
		return f
	}
	cur := f
	for _, part := range strings.Split(dir, "/") {
		next, ok := cur.children[part]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

type treeBuilder struct {
	logger *slog.Logger
}

// buildTree derives the navigation tree from the directory layout and the
// folder meta files, and returns the pages in navigation order.
func buildTree(title string, byPath map[string]*models.Page, metas map[string]*models.Meta, logger *slog.Logger) (*models.Tree, []*models.Page) {
	root := newFolder("", "")
	for _, p := range sortedKeys(byPath) {
		page := byPath[p]
		f := root.ensure(dirOf(p))
		stem := strings.TrimSuffix(strings.TrimSuffix(path.Base(p), ".mdx"), ".md")
		if stem == "index" {
			f.index = page
		} else {
			f.pages[stem] = page
		}
	}
	for dir, m := range metas {
		if f := root.find(dir); f != nil {
			f.meta = m
		}
	}

	name := title
	if root.meta != nil && root.meta.Title != "" {
		name = root.meta.Title
	}
	b := &treeBuilder{logger: logger}
	tree := &models.Tree{Name: name, Children: b.children(root, true)}
	return tree, orderPages(tree, byPath)
}

func (b *treeBuilder) children(f *folder, isRoot bool) []*models.TreeNode {
	out := make([]*models.TreeNode, 0)
	if f.meta == nil || len(f.meta.Pages) == 0 {
		return append(out, b.rest(f, isRoot, nil)...)
	}

	listed := make(map[string]bool)
	for _, item := range f.meta.Pages {
		switch {
		case item == restItem, isSeparator(item), isLinkItem(item):
		case strings.HasPrefix(item, "!"):
			listed[strings.TrimPrefix(item, "!")] = true
		default:
			listed[item] = true
		}
	}

	for _, item := range f.meta.Pages {
		switch {
		case item == restItem:
			out = append(out, b.rest(f, isRoot, listed)...)
		case strings.HasPrefix(item, "!"):
		case isSeparator(item):
			out = append(out, &models.TreeNode{Type: models.NodeSeparator, Name: strings.TrimSpace(strings.Trim(item, "-"))})
		case isLinkItem(item):
			out = append(out, linkNode(item))
		default:
			if n := b.lookup(f, isRoot, item); n != nil {
				out = append(out, n)
			} else if !(item == "index" && f.index != nil) {
				b.logger.Warn("source: meta entry matches no page or folder",
					slog.String("dir", f.path),
					slog.String("entry", item))
			}
		}
	}
	return out
}

func (b *treeBuilder) lookup(f *folder, isRoot bool, name string) *models.TreeNode {
	if name == "index" {
		if isRoot && f.index != nil {
			return pageNode(f.index)
		}
		return nil
	}
	if p, ok := f.pages[name]; ok {
		return pageNode(p)
	}
	if c, ok := f.children[name]; ok {
		return b.folderNode(c)
	}
	return nil
}

// rest lists the entries not named in skip: the root index first, then
// pages by file name, then folders by directory name.
func (b *treeBuilder) rest(f *folder, isRoot bool, skip map[string]bool) []*models.TreeNode {
	var out []*models.TreeNode
	if isRoot && f.index != nil && !skip["index"] {
		out = append(out, pageNode(f.index))
	}
	for _, stem := range sortedKeys(f.pages) {
		if !skip[stem] {
			out = append(out, pageNode(f.pages[stem]))
		}
	}
	for _, name := range sortedKeys(f.children) {
		if !skip[name] {
			out = append(out, b.folderNode(f.children[name]))
		}
	}
	return out
}

func (b *treeBuilder) folderNode(f *folder) *models.TreeNode {
	n := &models.TreeNode{
		Type:     models.NodeFolder,
		Name:     folderName(f),
		Children: b.children(f, false),
	}
	if f.index != nil {
		n.Index = pageNode(f.index)
		n.Icon = f.index.Icon
	}
	if f.meta != nil {
		if f.meta.Icon != "" {
			n.Icon = f.meta.Icon
		}
		n.DefaultOpen = f.meta.DefaultOpen
		n.Root = f.meta.Root
	}
	return n
}

func folderName(f *folder) string {
	if f.meta != nil && f.meta.Title != "" {
		return f.meta.Title
	}
	if f.index != nil {
		return f.index.Title
	}
	name := strings.TrimSuffix(strings.TrimPrefix(f.name, "("), ")")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(name)
}

func pageNode(p *models.Page) *models.TreeNode {
	return &models.TreeNode{Type: models.NodePage, Name: p.Title, URL: p.URL, Icon: p.Icon}
}

func isSeparator(item string) bool {
	return len(item) > 6 && strings.HasPrefix(item, "---") && strings.HasSuffix(item, "---")
}

func isLinkItem(item string) bool {
	return strings.HasPrefix(item, "[") && strings.HasSuffix(item, ")") && strings.Contains(item, "](")
}

func linkNode(item string) *models.TreeNode {
	i := strings.Index(item, "](")
	href := item[i+2 : len(item)-1]
	return &models.TreeNode{
		Type:     models.NodePage,
		Name:     item[1:i],
		URL:      href,
		External: !strings.HasPrefix(href, "/"),
	}
}

// orderPages flattens the tree into page order; pages missing from the tree
// are appended by URL.
func orderPages(tree *models.Tree, byPath map[string]*models.Page) []*models.Page {
	byURL := make(map[string]*models.Page, len(byPath))
	for _, p := range byPath {
		byURL[p.URL] = p
	}
	out := make([]*models.Page, 0, len(byPath))
	seen := make(map[string]bool, len(byPath))

	var visit func(n *models.TreeNode)
	add := func(n *models.TreeNode) {
		if n == nil || n.External || n.Type != models.NodePage || seen[n.URL] {
			return
		}
		if p, ok := byURL[n.URL]; ok {
			seen[n.URL] = true
			out = append(out, p)
		}
	}
	visit = func(n *models.TreeNode) {
		if n.Type == models.NodeFolder {
			add(n.Index)
			for _, c := range n.Children {
				visit(c)
			}
			return
		}
		add(n)
	}
	for _, n := range tree.Children {
		visit(n)
	}

	var rest []*models.Page
	for url, p := range byURL {
		if !seen[url] {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].URL < rest[j].URL })
	return append(out, rest...)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

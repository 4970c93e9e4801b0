// Package markdown renders document bodies and extracts their structure.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/evomics/docs/internal/models"
)

// Resolver maps a link destination found in a document to its public URL.
// It returns false when the destination should be left untouched.
type Resolver func(href string) (string, bool)

var (
	engine = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	sanitizer = buildSanitizer()
)

func buildSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.RequireNoFollowOnFullyQualifiedLinks(true)
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	return p
}

// Headings returns every heading of body in document order, with the
// anchors the renderer assigns to them.
func Headings(body string) []models.TOCItem {
	src := []byte(StripESM(body))
	doc := engine.Parser().Parse(text.NewReader(src))

	items := make([]models.TOCItem, 0)
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		item := models.TOCItem{Title: nodeText(h, src), Depth: h.Level}
		if v, ok := h.AttributeString("id"); ok {
			if id, ok := v.([]byte); ok {
				item.Anchor = string(id)
			}
		}
		items = append(items, item)
		return gmast.WalkSkipChildren, nil
	})
	return items
}

// Render converts body to sanitized HTML. Link destinations are passed
// through resolve, when given, and replaced by the URL it returns.
func Render(body string, resolve Resolver) (string, error) {
	src := []byte(StripESM(body))
	doc := engine.Parser().Parse(text.NewReader(src))

	if resolve != nil {
		_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
			if !entering {
				return gmast.WalkContinue, nil
			}
			if l, ok := n.(*gmast.Link); ok {
				if to, ok := resolve(string(l.Destination)); ok {
					l.Destination = []byte(to)
				}
			}
			return gmast.WalkContinue, nil
		})
	}

	var buf bytes.Buffer
	if err := engine.Renderer().Render(&buf, src, doc); err != nil {
		return "", fmt.Errorf("markdown: render: %w", err)
	}
	return sanitizer.Sanitize(buf.String()), nil
}

// FilterTOC keeps the items whose depth lies in [minDepth, maxDepth].
// The result is never nil.
func FilterTOC(items []models.TOCItem, minDepth, maxDepth int) []models.TOCItem {
	out := make([]models.TOCItem, 0, len(items))
	for _, it := range items {
		if it.Depth >= minDepth && it.Depth <= maxDepth {
			out = append(out, it)
		}
	}
	return out
}

// StripESM removes top-level MDX import/export statements outside fenced
// code. A statement spans lines until its brackets balance and it reaches a
// terminator; a blank line at bracket depth zero always ends it.
func StripESM(body string) string {
	if !strings.Contains(body, "import ") && !strings.Contains(body, "export ") {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	inFence := false
	var stmt *esmStatement
	for _, line := range strings.SplitAfter(body, "\n") {
		if stmt != nil {
			if strings.TrimSpace(line) == "" && stmt.depth <= 0 && stmt.quote == 0 {
				stmt = nil
				b.WriteString(line)
				continue
			}
			if stmt.feed(line) {
				stmt = nil
			}
			continue
		}
		if isFence(line) {
			inFence = !inFence
		}
		if !inFence && (strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "export ")) {
			stmt = &esmStatement{isImport: strings.HasPrefix(line, "import ")}
			if stmt.feed(line) {
				stmt = nil
			}
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

// esmStatement tracks bracket depth and string state of one statement.
type esmStatement struct {
	isImport bool
	depth    int
	quote    rune
	escaped  bool
}

// feed consumes one line and reports whether the statement is complete.
func (s *esmStatement) feed(line string) bool {
	for _, r := range line {
		if s.quote != 0 {
			switch {
			case s.escaped:
				s.escaped = false
			case r == '\\':
				s.escaped = true
			case r == s.quote:
				s.quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"', '`':
			s.quote = r
		case '{', '(', '[':
			s.depth++
		case '}', ')', ']':
			s.depth--
		}
	}
	// Quotes other than template literals do not span lines.
	if s.quote == '\'' || s.quote == '"' {
		s.quote = 0
	}
	if s.depth > 0 || s.quote != 0 {
		return false
	}
	t := strings.TrimSpace(line)
	if t == "" || strings.HasSuffix(t, ";") {
		return true
	}
	if s.isImport {
		// import ... from 'x' | import 'x'
		return strings.HasSuffix(t, "'") || strings.HasSuffix(t, `"`)
	}
	return !strings.ContainsAny(t[len(t)-1:], ",=+-*/.:?&|")
}

func isFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func nodeText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// Processed returns the plain-text rendering of body used for exports:
// MDX statements dropped, document links resolved, surrounding space trimmed.
func Processed(body string, resolve Resolver) string {
	return strings.TrimSpace(RewriteLinks(StripESM(body), resolve))
}

// RewriteLinks rewrites inline Markdown link destinations through resolve.
// Fenced code blocks and inline code spans are left untouched.
func RewriteLinks(content string, resolve Resolver) string {
	if resolve == nil || !strings.Contains(content, "](") {
		return content
	}
	var out strings.Builder
	out.Grow(len(content))
	inFence := false
	for _, line := range strings.SplitAfter(content, "\n") {
		if isFence(line) {
			inFence = !inFence
			out.WriteString(line)
			continue
		}
		if inFence {
			out.WriteString(line)
			continue
		}
		out.WriteString(rewriteLine(line, resolve))
	}
	return out.String()
}

func rewriteLine(line string, resolve Resolver) string {
	var b strings.Builder
	b.Grow(len(line))
	i := 0
	for i < len(line) {
		switch {
		case line[i] == '`':
			end := strings.IndexByte(line[i+1:], '`')
			if end >= 0 {
				b.WriteString(line[i : i+end+2])
				i += end + 2
				continue
			}
		case line[i] == ']' && i+1 < len(line) && line[i+1] == '(':
			closeParen := strings.IndexByte(line[i+2:], ')')
			if closeParen >= 0 {
				dest := line[i+2 : i+2+closeParen]
				target, title := dest, ""
				if sp := strings.IndexByte(dest, ' '); sp >= 0 {
					target, title = dest[:sp], dest[sp:]
				}
				if to, ok := resolve(target); ok {
					dest = to + title
				}
				b.WriteString("](")
				b.WriteString(dest)
				b.WriteByte(')')
				i += closeParen + 3
				continue
			}
		}
		b.WriteByte(line[i])
		i++
	}
	return b.String()
}

// PlainText extracts the visible text of an HTML fragment, whitespace collapsed.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var parts []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				parts = append(parts, string(z.Text()))
			}
		}
	}
}

func isHiddenTag(name string) bool {
	return name == "script" || name == "style"
}

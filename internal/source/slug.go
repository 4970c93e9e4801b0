package source

import (
	"net/url"
	"path"
	"strings"
)

// slugsFor derives the URL segments of a document from its file path:
// the extension is dropped, "index" maps to its folder and folder groups
// written as "(name)" do not contribute a segment.
func slugsFor(file string) []string {
	stem := strings.TrimSuffix(strings.TrimSuffix(file, ".mdx"), ".md")
	parts := strings.Split(stem, "/")
	slugs := make([]string, 0, len(parts))
	for i, part := range parts {
		if isGroup(part) {
			continue
		}
		if i == len(parts)-1 && part == "index" {
			continue
		}
		slugs = append(slugs, part)
	}
	return slugs
}

func isGroup(segment string) bool {
	return len(segment) > 2 && strings.HasPrefix(segment, "(") && strings.HasSuffix(segment, ")")
}

func pageURL(baseURL string, slugs []string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if len(slugs) == 0 {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + strings.Join(slugs, "/")
}

func dirOf(file string) string {
	d := path.Dir(file)
	if d == "." {
		return ""
	}
	return d
}

// validSegment rejects empty and traversal segments.
func validSegment(seg string) bool {
	if seg == "" || seg == "." || seg == ".." {
		return false
	}
	return !strings.ContainsAny(seg, "/\\\x00")
}

// splitRelative separates a relative document link into its path and the
// query/fragment suffix to carry over. ok is false for links that must not
// be rewritten.
func splitRelative(href string) (target, suffix string, ok bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") {
		return "", "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" || u.Path == "" {
		return "", "", false
	}
	if u.RawQuery != "" {
		suffix += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		suffix += "#" + u.EscapedFragment()
	}
	return u.Path, suffix, true
}

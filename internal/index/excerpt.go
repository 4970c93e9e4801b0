package index

import (
	"strings"
	"unicode/utf8"
)

const excerptRadius = 80

// excerpt returns a window of body around the first occurrence of term, or
// the start of body when term does not occur in it.
func excerpt(body, term string) string {
	body = strings.Join(strings.Fields(body), " ")
	start, end := 0, len(body)

	at := strings.Index(strings.ToLower(body), strings.ToLower(term))
	if at < 0 || at > len(body) {
		at = 0
	}
	if at > excerptRadius {
		start = at - excerptRadius
	}
	if start+2*excerptRadius < end {
		end = start + 2*excerptRadius
	}
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}

	out := body[start:end]
	if start > 0 {
		out = "…" + out
	}
	if end < len(body) {
		out += "…"
	}
	return out
}

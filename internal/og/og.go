// Package og builds Open Graph preview images for documentation pages.
package og

import (
	"fmt"
	"strings"

	"github.com/evomics/docs/internal/apperr"
	"github.com/evomics/docs/internal/models"
)

// ImageSegment is the final path segment of every image URL.
const ImageSegment = "image.png"

// Prefix is the URL prefix image routes are mounted under.
const Prefix = "/og"

// Segments returns the route segments of page's image: its slugs followed
// by ImageSegment. The index page yields just ImageSegment.
func Segments(page *models.Page) []string {
	out := make([]string, 0, len(page.Slugs)+1)
	out = append(out, page.Slugs...)
	return append(out, ImageSegment)
}

// URL returns the image URL of page, served below the collection's base URL.
func URL(baseURL string, page *models.Page) string {
	return Prefix + strings.TrimSuffix(baseURL, "/") + "/" + strings.Join(Segments(page), "/")
}

// StripImageSegment removes the trailing ImageSegment and returns the page
// slugs. Anything else is not an image route.
func StripImageSegment(segments []string) ([]string, error) {
	if len(segments) == 0 || segments[len(segments)-1] != ImageSegment {
		return nil, fmt.Errorf("og: %q: %w", strings.Join(segments, "/"), apperr.ErrNotFound)
	}
	return segments[:len(segments)-1], nil
}

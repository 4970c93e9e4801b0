// Package parser extracts and validates frontmatter and folder metadata.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/evomics/docs/internal/apperr"
	"github.com/evomics/docs/internal/models"
)

// ErrMissingFrontmatter is returned for documents without a frontmatter block.
var ErrMissingFrontmatter = errors.New("missing frontmatter")

// Result holds the output of parsing a content document.
type Result struct {
	Frontmatter models.Frontmatter
	Body        string
}

// Parse splits YAML frontmatter from the body and validates it.
// Every document must declare a title and a description.
func Parse(data []byte) (*Result, error) {
	block, body, ok := splitFrontmatter(data)
	if !ok {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidContent, ErrMissingFrontmatter)
	}

	var fm models.Frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, fmt.Errorf("%w: frontmatter: %w", apperr.ErrInvalidContent, err)
	}
	if err := validateFrontmatter(&fm); err != nil {
		return nil, fmt.Errorf("%w: frontmatter: %w", apperr.ErrInvalidContent, err)
	}

	return &Result{Frontmatter: fm, Body: body}, nil
}

func validateFrontmatter(fm *models.Frontmatter) error {
	fm.Title = strings.TrimSpace(fm.Title)
	fm.Description = strings.TrimSpace(fm.Description)
	fm.Icon = strings.TrimSpace(fm.Icon)
	return validation.ValidateStruct(fm,
		validation.Field(&fm.Title, validation.Required),
		validation.Field(&fm.Description, validation.Required),
	)
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. CRLF line endings are normalised first.
func splitFrontmatter(data []byte) ([]byte, string, bool) {
	const delim = "---"
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(normalized, "\n")

	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) {
		return nil, string(normalized), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(normalized), false
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	// The closing delimiter must end its line.
	if len(afterDelim) > 0 && afterDelim[0] != '\n' {
		return nil, string(normalized), false
	}
	body := strings.TrimLeft(string(afterDelim), "\n")
	return yamlBlock, body, true
}

// ParseMeta decodes and validates a folder meta.json file.
func ParseMeta(data []byte) (*models.Meta, error) {
	var m models.Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: meta: %w", apperr.ErrInvalidContent, err)
	}
	for i := range m.Pages {
		m.Pages[i] = strings.TrimSpace(m.Pages[i])
	}
	m.Title = strings.TrimSpace(m.Title)
	if err := validation.ValidateStruct(&m,
		validation.Field(&m.Pages, validation.Each(validation.Required)),
	); err != nil {
		return nil, fmt.Errorf("%w: meta: %w", apperr.ErrInvalidContent, err)
	}
	return &m, nil
}

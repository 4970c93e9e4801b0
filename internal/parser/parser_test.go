package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evomics/docs/internal/apperr"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Install\ndescription: Getting tools on your machine\nicon: Terminal\nfull: true\n---\n# Install\nBody text.\n")
	r, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Install", r.Frontmatter.Title)
	require.Equal(t, "Getting tools on your machine", r.Frontmatter.Description)
	require.Equal(t, "Terminal", r.Frontmatter.Icon)
	require.True(t, r.Frontmatter.Full)
	require.Equal(t, "# Install\nBody text.\n", r.Body)
}

func TestParse_CRLF(t *testing.T) {
	r, err := Parse([]byte("---\r\ntitle: A\r\ndescription: B\r\n---\r\nText\r\n"))
	require.NoError(t, err)
	require.Equal(t, "Text\n", r.Body)
}

func TestParse_NoFrontmatter(t *testing.T) {
	_, err := Parse([]byte("# Just a heading\nSome text.\n"))
	require.ErrorIs(t, err, apperr.ErrInvalidContent)
	require.ErrorIs(t, err, ErrMissingFrontmatter)
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: A\ndescription: B\n# Body\n"))
	require.ErrorIs(t, err, ErrMissingFrontmatter)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	require.ErrorIs(t, err, apperr.ErrInvalidContent)
}

func TestParse_MissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"no title":          "---\ndescription: d\n---\nx",
		"no description":    "---\ntitle: t\n---\nx",
		"blank title":       "---\ntitle: '   '\ndescription: d\n---\nx",
		"empty frontmatter": "---\n\n---\nx",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			require.ErrorIs(t, err, apperr.ErrInvalidContent)
		})
	}
}

func TestParseMeta(t *testing.T) {
	m, err := ParseMeta([]byte(`{"title":"Setup","defaultOpen":true,"pages":["install","---Tools---","..."]}`))
	require.NoError(t, err)
	require.Equal(t, "Setup", m.Title)
	require.True(t, m.DefaultOpen)
	require.Equal(t, []string{"install", "---Tools---", "..."}, m.Pages)
}

func TestParseMeta_Invalid(t *testing.T) {
	_, err := ParseMeta([]byte(`{"pages":["a", " "]}`))
	require.ErrorIs(t, err, apperr.ErrInvalidContent, "blank page entry")

	_, err = ParseMeta([]byte(`{not json`))
	require.ErrorIs(t, err, apperr.ErrInvalidContent, "bad json")
}

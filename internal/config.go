package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/evomics/docs/internal/source"
)

// Guide statuses.
const (
	GuideAvailable  = "available"
	GuideComingSoon = "coming-soon"
)

var (
	collectionName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	baseURLPattern = regexp.MustCompile(`^(/[a-z0-9][a-z0-9_-]*)+$`)

	// Prefixes owned by the server itself.
	reservedPrefixes = []string{"/og", "/api", "/health", "/metrics", "/llms-full.txt"}
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig  `yaml:"app"`
	Site        SiteConfig         `yaml:"site"`
	Content     ContentConfig      `yaml:"content"`
	Collections []CollectionConfig `yaml:"collections"`
	TOC         TOCConfig          `yaml:"toc"`
	Search      SearchConfig       `yaml:"search"`
	Metrics     MetricsConfig      `yaml:"metrics"`
	Guides      []GuideConfig      `yaml:"guides"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.validateCollections(); err != nil {
		return err
	}
	if err := c.TOC.Validate(); err != nil {
		return fmt.Errorf("toc: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for _, name := range c.Search.Collections {
		if c.Collection(name) == nil {
			return fmt.Errorf("search: unknown collection %q", name)
		}
	}
	for i := range c.Guides {
		if err := c.Guides[i].Validate(); err != nil {
			return fmt.Errorf("guides[%d]: %w", i, err)
		}
	}
	return nil
}

func (c *Config) validateCollections() error {
	if len(c.Collections) == 0 {
		return errors.New("collections: at least one collection is required")
	}
	names := make(map[string]bool, len(c.Collections))
	bases := make(map[string]bool, len(c.Collections))
	for i := range c.Collections {
		col := &c.Collections[i]
		if err := col.Validate(); err != nil {
			return fmt.Errorf("collections[%d]: %w", i, err)
		}
		if names[col.Name] {
			return fmt.Errorf("collections: duplicate name %q", col.Name)
		}
		if bases[col.BaseURL] {
			return fmt.Errorf("collections: duplicate base_url %q", col.BaseURL)
		}
		names[col.Name], bases[col.BaseURL] = true, true
	}
	return nil
}

// Collection returns the named collection, or nil.
func (c *Config) Collection(name string) *CollectionConfig {
	for i := range c.Collections {
		if c.Collections[i].Name == name {
			return &c.Collections[i]
		}
	}
	return nil
}

// SourceCollections converts the collection settings for the source loader.
func (c *Config) SourceCollections() []source.Collection {
	out := make([]source.Collection, len(c.Collections))
	for i, col := range c.Collections {
		out[i] = source.Collection{Name: col.Name, Title: col.Title, Dir: col.Dir, BaseURL: col.BaseURL}
	}
	return out
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig describes the site as a whole.
type SiteConfig struct {
	Name        string `yaml:"name"`
	Tagline     string `yaml:"tagline"`
	Description string `yaml:"description"`
	// URL is the canonical origin (for example https://docs.evomics.org);
	// when set, Open Graph image URLs are absolute.
	URL string `yaml:"url"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	c.URL = strings.TrimSuffix(c.URL, "/")
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.URL, validation.When(c.URL != "", validation.Match(regexp.MustCompile(`^https?://[^/\s]+$`)))),
	)
}

// ContentConfig locates the content collections on disk.
type ContentConfig struct {
	Root  string `yaml:"root"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// CollectionConfig describes one content collection.
type CollectionConfig struct {
	Name    string `yaml:"name"`
	Title   string `yaml:"title"`
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// Validate validates the collection configuration.
func (c *CollectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Match(collectionName)),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, validation.Match(baseURLPattern), validation.By(notReserved)),
	)
}

func notReserved(value any) error {
	s, _ := value.(string)
	for _, p := range reservedPrefixes {
		if s == p || strings.HasPrefix(s, p+"/") {
			return fmt.Errorf("%q is reserved", p)
		}
	}
	return nil
}

// TOCConfig bounds the heading depths shown in a page's table of contents.
type TOCConfig struct {
	MinDepth int `yaml:"min_depth"`
	MaxDepth int `yaml:"max_depth"`
}

// Validate validates the TOC configuration.
func (c *TOCConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinDepth, validation.Required, validation.Min(1), validation.Max(6)),
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(c.MinDepth), validation.Max(6)),
	)
}

// SearchConfig holds the search index configuration.
type SearchConfig struct {
	Language   string `yaml:"language"`
	SQLitePath string `yaml:"sqlite_path"`
	// Collections restricts the index to the named collections; empty
	// indexes every collection.
	Collections []string `yaml:"collections"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Language, validation.Required),
		validation.Field(&c.SQLitePath, validation.Required),
		validation.Field(&c.Collections, validation.Each(validation.Required)),
	)
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GuideConfig is one card on the home page.
type GuideConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Href        string   `yaml:"href"`
	Status      string   `yaml:"status"`
	Topics      []string `yaml:"topics"`
}

// Validate validates the guide configuration.
func (c *GuideConfig) Validate() error {
	if c.Status == "" {
		c.Status = GuideAvailable
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Href, validation.Required),
		validation.Field(&c.Status, validation.In(GuideAvailable, GuideComingSoon)),
	)
}

// Available reports whether the guide links to published content.
func (c GuideConfig) Available() bool {
	return c.Status == GuideAvailable
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Name:        "Evomics Documentation",
			Tagline:     "Master Computational Biology",
			Description: "Comprehensive guides for computational biology and bioinformatics",
		},
		Content: ContentConfig{
			Root: "./content",
		},
		Collections: []CollectionConfig{
			{Name: "unix", Title: "UNIX for Biologists", Dir: "unix", BaseURL: "/unix"},
			{Name: "r", Title: "R for Biologists", Dir: "r", BaseURL: "/r"},
		},
		TOC: TOCConfig{
			MinDepth: 2,
			MaxDepth: 3,
		},
		Search: SearchConfig{
			Language:   "english",
			SQLitePath: "./evomics.db",
		},
		Guides: []GuideConfig{
			{
				Title:       "UNIX for Biologists",
				Description: "Command-line genomics from beginner to expert. Master grep, sed, awk, and modern bioinformatics utilities.",
				Href:        "/unix",
				Status:      GuideAvailable,
				Topics:      []string{"Command Line", "Text Processing", "HPC Clusters", "Scripting"},
			},
			{
				Title:       "R for Biologists",
				Description: "Data analysis and visualization with R and tidyverse. From basics to advanced statistical methods.",
				Href:        "/r",
				Status:      GuideAvailable,
				Topics:      []string{"tidyverse", "ggplot2", "Statistics", "Data Wrangling"},
			},
			{
				Title:       "Virome Analysis",
				Description: "Viral metagenomics and discovery. Tools and workflows for studying viral communities.",
				Href:        "/virome",
				Status:      GuideComingSoon,
				Topics:      []string{"Viral Discovery", "Assembly", "Classification", "Ecology"},
			},
			{
				Title:       "Statistics for Biologists",
				Description: "Statistical methods for biological data. Hypothesis testing, regression, and experimental design.",
				Href:        "/stats",
				Status:      GuideComingSoon,
				Topics:      []string{"Hypothesis Testing", "Regression", "Design", "Power Analysis"},
			},
		},
	}
}

// Package catalog holds the fixed list of room themes and maps free-form
// category text onto it.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/escape-finder/api-go/location"
	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var themesYAML []byte

type Theme struct {
	Slug        string   `yaml:"slug" json:"slug"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" json:"-"`
}

type Catalog struct {
	themes []Theme
	bySlug map[string]int
}

type file struct {
	Themes []Theme `yaml:"themes"`
}

// Load parses the embedded theme list.
func Load() (*Catalog, error) {
	return Parse(themesYAML)
}

// Parse builds a catalog from YAML. Slugs must be unique and every theme
// needs at least one keyword.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog.Parse: %w", err)
	}
	c := &Catalog{bySlug: make(map[string]int, len(f.Themes))}
	for _, t := range f.Themes {
		if t.Slug == "" || t.Name == "" {
			return nil, fmt.Errorf("catalog.Parse: theme without slug or name")
		}
		if _, dup := c.bySlug[t.Slug]; dup {
			return nil, fmt.Errorf("catalog.Parse: duplicate theme %q", t.Slug)
		}
		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("catalog.Parse: theme %q has no keywords", t.Slug)
		}
		for i, k := range t.Keywords {
			t.Keywords[i] = location.Slugify(k)
		}
		c.bySlug[t.Slug] = len(c.themes)
		c.themes = append(c.themes, t)
	}
	return c, nil
}

// MustLoad is Load for package initialisation.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) All() []Theme {
	out := make([]Theme, len(c.themes))
	copy(out, c.themes)
	return out
}

func (c *Catalog) Get(slug string) (Theme, bool) {
	i, ok := c.bySlug[location.Slugify(slug)]
	if !ok {
		return Theme{}, false
	}
	return c.themes[i], true
}

// Match returns the themes whose keywords appear as whole words in the
// room's category text or tags, in catalog order.
func (c *Catalog) Match(category string, tags []string) []Theme {
	texts := append([]string{category}, tags...)
	var hay strings.Builder
	for _, s := range texts {
		if slug := location.Slugify(s); slug != "" {
			hay.WriteString("-" + slug + "-")
		}
	}
	h := hay.String()
	if h == "" {
		return nil
	}
	var out []Theme
	for _, t := range c.themes {
		if strings.Contains(h, "-"+t.Slug+"-") {
			out = append(out, t)
			continue
		}
		for _, k := range t.Keywords {
			if strings.Contains(h, "-"+k+"-") {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Patterns returns ILIKE patterns that select rooms whose category mentions
// the theme, for use alongside a tag overlap test.
func (t Theme) Patterns() []string {
	out := make([]string, 0, len(t.Keywords))
	for _, k := range t.Keywords {
		out = append(out, "%"+strings.ReplaceAll(k, "-", "%")+"%")
	}
	return out
}

package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCategories are the project phase labels offered by the forms.
var DefaultCategories = []string{
	"Estudo Preliminar",
	"Anteprojeto",
	"Projeto Legal",
	"Projeto Executivo",
	"Interiores",
	"Em Obra",
	"Finalizado",
}

// Catalog is the ordered set of phase labels. The first entry is the default
// category of a new project. Free-text categories are still accepted by the forms.
type Catalog struct {
	Categories []string `yaml:"categories" json:"categories"`
}

func DefaultCatalog() *Catalog {
	return &Catalog{Categories: append([]string(nil), DefaultCategories...)}
}

// LoadCatalog reads a YAML file of the form `categories: [..]`.
// An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}

	cleaned := make([]string, 0, len(c.Categories))
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		cat = strings.TrimSpace(cat)
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		cleaned = append(cleaned, cat)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("categories file %s lists no categories", path)
	}

	return &Catalog{Categories: cleaned}, nil
}

func (c *Catalog) Default() string {
	if len(c.Categories) == 0 {
		return ""
	}
	return c.Categories[0]
}

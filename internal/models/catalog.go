// catalog.go
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StimulusCatalog maps each category to its ordered list of image
// identifiers. Loaded once at startup and treated as immutable; the mutable
// per-session inventory is built from a copy of it.
type StimulusCatalog struct {
	Dysphoric []string `yaml:"dysphoric"`
	Threat    []string `yaml:"threat"`
	Positive  []string `yaml:"positive"`
	Filler    []string `yaml:"filler"`
}

// Images returns the identifier list for a category.
func (c *StimulusCatalog) Images(cat Category) []string {
	switch cat {
	case CategoryDysphoric:
		return c.Dysphoric
	case CategoryThreat:
		return c.Threat
	case CategoryPositive:
		return c.Positive
	case CategoryFiller:
		return c.Filler
	}
	return nil
}

// LoadCatalog reads and parses the stimuli YAML file and validates that every
// image identifier is unique across the whole catalog. Global uniqueness is
// what makes the per-category round capacity check sound: an identifier
// shared by two categories would join the session-wide used set once and
// silently shrink the other category.
func LoadCatalog(path string) (*StimulusCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stimulus catalog: %w", err)
	}

	var catalog StimulusCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stimulus catalog YAML: %w", err)
	}

	seen := make(map[string]Category)
	for _, cat := range Categories {
		for _, id := range catalog.Images(cat) {
			if id == "" {
				return nil, fmt.Errorf("category %q contains an empty image identifier", cat)
			}
			if prev, dup := seen[id]; dup {
				if prev == cat {
					return nil, fmt.Errorf("category %q contains duplicate image identifier %q", cat, id)
				}
				return nil, fmt.Errorf("image identifier %q appears in both %q and %q", id, prev, cat)
			}
			seen[id] = cat
		}
	}

	return &catalog, nil
}

// Package catalog loads the workload catalog and resolves category
// selections to ordered workload references.
package catalog

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// WorkloadRef identifies one comparable benchmark target. Immutable.
type WorkloadRef struct {
	Name     string `yaml:"name" json:"name"`
	Provider string `yaml:"provider" json:"provider"`
	Category string `yaml:"-" json:"category"`
	URL      string `yaml:"url" json:"url"`
	SizeKB   int    `yaml:"size_kb" json:"size_kb"`
}

// Category is one ordinal size bucket of workloads.
type Category struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Workloads   []WorkloadRef `yaml:"workloads" json:"workloads"`
}

// Catalog is the ordered list of workload categories. Declaration order in
// the catalog file is the canonical benchmark order.
type Catalog struct {
	log        logrus.FieldLogger
	categories []Category
}

type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

// Load reads and parses a catalog file.
func Load(log logrus.FieldLogger, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	return Parse(log, data)
}

// Parse parses catalog YAML.
func Parse(log logrus.FieldLogger, data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Categories))

	for i, cat := range file.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("category %d: name is required", i)
		}

		if _, dup := seen[cat.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Name)
		}

		seen[cat.Name] = struct{}{}

		for j, wl := range cat.Workloads {
			if wl.Name == "" {
				return nil, fmt.Errorf("category %q: workload %d: name is required", cat.Name, j)
			}

			if wl.URL == "" {
				return nil, fmt.Errorf("category %q: workload %q: url is required", cat.Name, wl.Name)
			}
		}

		// Stamp the category onto each workload ref.
		for j := range cat.Workloads {
			file.Categories[i].Workloads[j].Category = cat.Name
		}
	}

	return &Catalog{
		log:        log.WithField("component", "catalog"),
		categories: file.Categories,
	}, nil
}

// Categories returns the catalog categories in declaration order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// CategoryNames returns all category names in declaration order.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}

	return names
}

// Resolve returns the workloads of the selected categories in deterministic
// order: catalog declaration order, category first, then within-category
// order. Unknown category names are skipped with a warning, matching the
// catalog's tolerance for stale selections.
func (c *Catalog) Resolve(selected []string) []WorkloadRef {
	want := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		want[name] = struct{}{}
	}

	known := make(map[string]struct{}, len(c.categories))

	var out []WorkloadRef

	for _, cat := range c.categories {
		known[cat.Name] = struct{}{}

		if _, ok := want[cat.Name]; !ok {
			continue
		}

		out = append(out, cat.Workloads...)
	}

	for _, name := range selected {
		if _, ok := known[name]; !ok {
			c.log.WithField("category", name).Warn("Unknown category in selection, skipping")
		}
	}

	return out
}

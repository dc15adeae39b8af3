// Package catalog embeds the seed catalog of projects and formations used to
// populate an empty database.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/HerbHall/tabula/pkg/models"
)

//go:embed catalog.yaml
var catalogRawData []byte

// catalogFile is the top-level structure of the embedded YAML.
type catalogFile struct {
	Projects   []models.Project   `yaml:"projects"`
	Formations []models.Formation `yaml:"formations"`
}

// Catalog provides lazy-loaded access to the embedded seed catalog.
type Catalog struct {
	once sync.Once
	data catalogFile
	raw  []byte
	err  error
}

// NewCatalog creates a Catalog that will parse the embedded YAML on first access.
func NewCatalog() *Catalog {
	return &Catalog{raw: catalogRawData}
}

// Parse creates a Catalog over caller-supplied YAML.
func Parse(raw []byte) *Catalog {
	return &Catalog{raw: raw}
}

// Projects returns a copy of all seed projects.
func (c *Catalog) Projects() ([]models.Project, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return nil, c.err
	}
	cp := make([]models.Project, len(c.data.Projects))
	copy(cp, c.data.Projects)
	return cp, nil
}

// Formations returns a copy of all seed formations.
func (c *Catalog) Formations() ([]models.Formation, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return nil, c.err
	}
	cp := make([]models.Formation, len(c.data.Formations))
	copy(cp, c.data.Formations)
	return cp, nil
}

// load parses the YAML catalog data.
func (c *Catalog) load() {
	var f catalogFile
	if err := yaml.Unmarshal(c.raw, &f); err != nil {
		c.err = fmt.Errorf("catalog: parse yaml: %w", err)
		return
	}
	for i := range f.Projects {
		if f.Projects[i].ID == "" {
			c.err = fmt.Errorf("catalog: project %d (%q) has no id", i, f.Projects[i].Title)
			return
		}
	}
	for i := range f.Formations {
		if f.Formations[i].ID == "" {
			c.err = fmt.Errorf("catalog: formation %d (%q) has no id", i, f.Formations[i].Title)
			return
		}
	}
	c.data = f
}

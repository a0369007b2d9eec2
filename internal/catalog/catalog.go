// Package catalog holds the static material and alternative data used to
// estimate footprints and suggest substitutes.
package catalog

import (
	"github.com/franckalain/ecoscan/internal/models"
)

// Catalog is an immutable set of materials and their alternatives
type Catalog struct {
	order        []string
	materials    map[string]models.MaterialEntry
	alternatives map[string][]models.AlternativeEntry
}

// New builds a catalog. Material order is kept as given; alternatives referring to
// unknown materials are ignored.
func New(materials []models.MaterialEntry, alternatives []models.AlternativeEntry) *Catalog {
	c := &Catalog{
		materials:    make(map[string]models.MaterialEntry, len(materials)),
		alternatives: make(map[string][]models.AlternativeEntry),
	}
	for _, m := range materials {
		if _, dup := c.materials[m.ID]; dup {
			continue
		}
		c.order = append(c.order, m.ID)
		c.materials[m.ID] = m
	}
	for _, a := range alternatives {
		if _, ok := c.materials[a.MaterialID]; !ok {
			continue
		}
		c.alternatives[a.MaterialID] = append(c.alternatives[a.MaterialID], a)
	}
	return c
}

var defaultCatalog = New(defaultMaterials, defaultAlternatives)

// Default returns the built-in catalog
func Default() *Catalog {
	return defaultCatalog
}

// Material looks up a material by identifier
func (c *Catalog) Material(id string) (models.MaterialEntry, bool) {
	m, ok := c.materials[id]
	return m, ok
}

// IDs returns the material identifiers in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Materials returns every material in catalog order
func (c *Catalog) Materials() []models.MaterialEntry {
	out := make([]models.MaterialEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.materials[id])
	}
	return out
}

// Alternatives returns the ordered alternatives for a material. The entries are deep copies.
func (c *Catalog) Alternatives(materialID string) []models.AlternativeEntry {
	alts := c.alternatives[materialID]
	out := make([]models.AlternativeEntry, len(alts))
	for i, a := range alts {
		a.Benefits = append([]string(nil), a.Benefits...)
		out[i] = a
	}
	return out
}

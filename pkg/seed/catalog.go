package seed

import (
	"fmt"
	"slices"
)

// NamedFactory pairs a [Factory] with the name of its registration.
type NamedFactory[D any] struct {
	Name string
	New  Factory[D]
}

// Catalog is the immutable index from entity type to the ordered list of seed
// factories producing it. Build it once with [NewCatalog] or
// [Registry.Catalog] and share it between sessions; it is safe for
// concurrent reads.
type Catalog[D any] struct {
	entries map[EntityType][]NamedFactory[D]
	order   []EntityType
}

// NewCatalog indexes regs. Registrations that declare no entity type are
// skipped. A registration declaring several entity types is indexed once
// under each of them. Entity types keep first-seen order and factories keep
// registration order, so the result is deterministic for a fixed input.
func NewCatalog[D any](regs ...Registration[D]) *Catalog[D] {
	c := &Catalog[D]{entries: make(map[EntityType][]NamedFactory[D])}
	for i, reg := range regs {
		if len(reg.Produces) == 0 {
			continue
		}
		name := reg.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", reg.Produces[0], i)
		}
		seen := make(map[EntityType]struct{}, len(reg.Produces))
		for _, t := range reg.Produces {
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, ok := c.entries[t]; !ok {
				c.order = append(c.order, t)
			}
			c.entries[t] = append(c.entries[t], NamedFactory[D]{Name: name, New: reg.New})
		}
	}
	return c
}

// Types returns the distinct entity types that have at least one registered
// seed, in first-seen order.
func (c *Catalog[D]) Types() []EntityType {
	return slices.Clone(c.order)
}

// Factories returns the ordered factories registered for t, or nil when there
// are none.
func (c *Catalog[D]) Factories(t EntityType) []NamedFactory[D] {
	return slices.Clone(c.entries[t])
}

// Has reports whether at least one seed is registered for t.
func (c *Catalog[D]) Has(t EntityType) bool {
	return len(c.entries[t]) > 0
}

// Len returns the number of distinct entity types in the catalog.
func (c *Catalog[D]) Len() int {
	return len(c.order)
}

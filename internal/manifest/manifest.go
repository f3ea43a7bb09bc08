// Package manifest loads declarative seeds from YAML files.
//
// A manifest lists seeds, the entity types they produce, the entity types
// they require and the fixture records they insert:
//
//	seeds:
//	  - name: starter-towns
//	    produces: [location]
//	    requires: [faction]
//	    records:
//	      - id: loc-phandalin
//	        name: Phandalin
//	        attributes: {region: sword-coast}
//	        tags: [town]
//
// Each manifest seed becomes a [seed.Registration] for the fixture store.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/internal/seeds"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// Manifest is the top-level structure of a seed manifest file.
type Manifest struct {
	Seeds []SeedDef `yaml:"seeds"`
}

// SeedDef declares one seed.
type SeedDef struct {
	// Name identifies the seed in logs and metrics. Must be unique.
	Name string `yaml:"name"`

	// Produces lists the entity types the seed populates. A seed without
	// entity types is loaded but never dispatched.
	Produces []seed.EntityType `yaml:"produces"`

	// Requires lists entity types dispatched before the records are inserted.
	Requires []seed.EntityType `yaml:"requires,omitempty"`

	// Records are inserted in order. A record's kind defaults to the only
	// produced entity type.
	Records []fixture.Record `yaml:"records"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %q: %w", path, err)
	}
	defer f.Close()

	m, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("manifest: parse %q: %w", path, err)
	}
	return m, nil
}

// LoadFromReader decodes a manifest from r and validates it.
func LoadFromReader(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		return nil, fmt.Errorf("manifest: decode yaml: %w", err)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadAll loads every manifest in paths and merges them in order. Seed names
// must be unique across all files.
func LoadAll(paths ...string) (*Manifest, error) {
	merged := &Manifest{}
	for _, p := range paths {
		m, err := Load(p)
		if err != nil {
			return nil, err
		}
		merged.Seeds = append(merged.Seeds, m.Seeds...)
	}
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate checks m for structural errors and returns all of them joined.
func Validate(m *Manifest) error {
	var errs []error
	names := make(map[string]int, len(m.Seeds))

	for i, sd := range m.Seeds {
		prefix := fmt.Sprintf("seeds[%d]", i)
		if sd.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := names[sd.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of seeds[%d]", prefix, sd.Name, prev))
			}
			names[sd.Name] = i
		}

		if len(sd.Produces) == 0 {
			slog.Warn("manifest seed produces no entity type and will never run", "seed", sd.Name)
		}
		for j, t := range sd.Produces {
			if t == "" {
				errs = append(errs, fmt.Errorf("%s.produces[%d] is empty", prefix, j))
			}
		}
		for j, t := range sd.Requires {
			if t == "" {
				errs = append(errs, fmt.Errorf("%s.requires[%d] is empty", prefix, j))
			}
		}

		for j, rec := range sd.Records {
			rp := fmt.Sprintf("%s.records[%d]", prefix, j)
			if rec.Name == "" {
				errs = append(errs, fmt.Errorf("%s.name is required", rp))
			}
			switch {
			case rec.Kind == "" && len(sd.Produces) > 1:
				errs = append(errs, fmt.Errorf("%s.kind is required when the seed produces several entity types", rp))
			case rec.Kind != "" && !slices.Contains(sd.Produces, seed.EntityType(rec.Kind)):
				errs = append(errs, fmt.Errorf("%s.kind %q is not produced by the seed; produces: %v", rp, rec.Kind, sd.Produces))
			}
		}
	}

	return errors.Join(errs...)
}

// Registrations converts every seed in m into a registration for the fixture
// store, in manifest order.
func (m *Manifest) Registrations() []seed.Registration[fixture.Store] {
	regs := make([]seed.Registration[fixture.Store], 0, len(m.Seeds))
	for _, sd := range m.Seeds {
		recs := slices.Clone(sd.Records)
		if len(sd.Produces) == 1 {
			for i := range recs {
				if recs[i].Kind == "" {
					recs[i].Kind = string(sd.Produces[0])
				}
			}
		}
		requires := slices.Clone(sd.Requires)
		regs = append(regs, seed.Registration[fixture.Store]{
			Name:     sd.Name,
			Produces: slices.Clone(sd.Produces),
			New: func() seed.Seed[fixture.Store] {
				return &seeds.Records{Requires: requires, Records: recs}
			},
		})
	}
	return regs
}

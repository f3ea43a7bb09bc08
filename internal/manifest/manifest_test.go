package manifest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/internal/manifest"
	"github.com/MrWong99/seedkit/pkg/seed"
)

func TestLoad_File(t *testing.T) {
	t.Parallel()
	m, err := manifest.Load(filepath.Join("testdata", "world.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Seeds) != 2 {
		t.Fatalf("seeds = %d, want 2", len(m.Seeds))
	}
	towns := m.Seeds[1]
	if towns.Name != "towns" || len(towns.Records) != 2 {
		t.Fatalf("towns = %+v", towns)
	}
	if towns.Records[0].Attributes["region"] != "sword-coast" {
		t.Errorf("attributes = %v", towns.Records[0].Attributes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := manifest.Load(filepath.Join("testdata", "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load = %v, want os.ErrNotExist", err)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	t.Parallel()
	m, err := manifest.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if len(m.Seeds) != 0 {
		t.Errorf("seeds = %d, want 0", len(m.Seeds))
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	yaml := `
seeds:
  - name: x
    produce: [npc]
`
	if _, err := manifest.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for misspelt key, got nil")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing seed name",
			yaml: `
seeds:
  - produces: [npc]
`,
			wantErr: "seeds[0].name is required",
		},
		{
			name: "duplicate seed name",
			yaml: `
seeds:
  - name: a
    produces: [npc]
  - name: a
    produces: [item]
`,
			wantErr: "duplicate",
		},
		{
			name: "empty produced type",
			yaml: `
seeds:
  - name: a
    produces: [""]
`,
			wantErr: "produces[0] is empty",
		},
		{
			name: "record kind not produced",
			yaml: `
seeds:
  - name: a
    produces: [npc]
    records:
      - name: Torch
        kind: item
`,
			wantErr: "not produced",
		},
		{
			name: "kind required with several produced types",
			yaml: `
seeds:
  - name: a
    produces: [npc, item]
    records:
      - name: Torch
`,
			wantErr: "kind is required",
		},
		{
			name: "record name required",
			yaml: `
seeds:
  - name: a
    produces: [npc]
    records:
      - id: x
`,
			wantErr: "records[0].name is required",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := manifest.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadAll_MergesAndSeeds(t *testing.T) {
	t.Parallel()
	m, err := manifest.LoadAll(
		filepath.Join("testdata", "world.yaml"),
		filepath.Join("testdata", "extra.yaml"),
	)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	store := fixture.NewMemStore()
	cat := seed.NewCatalog(m.Registrations()...)
	s := seed.NewSession[fixture.Store](cat, store)
	ctx := context.Background()

	if err := s.Seed(ctx, "npc"); err != nil {
		t.Fatalf("Seed(npc): %v", err)
	}
	for kind, want := range map[string]int{"npc": 1, "location": 2, "faction": 1} {
		if got, _ := store.Count(ctx, kind); got != want {
			t.Errorf("Count(%s) = %d, want %d", kind, got, want)
		}
	}
	rec, err := store.Get(ctx, "loc-thundertree")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Kind != "location" {
		t.Errorf("defaulted kind = %q, want location", rec.Kind)
	}
}

func TestLoadAll_DuplicateAcrossFiles(t *testing.T) {
	t.Parallel()
	p := filepath.Join("testdata", "world.yaml")
	if _, err := manifest.LoadAll(p, p); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("LoadAll of the same file twice = %v, want duplicate error", err)
	}
}

func TestRegistrations_UndeclaredSeedNotIndexed(t *testing.T) {
	t.Parallel()
	yaml := `
seeds:
  - name: draft
    records:
      - name: Unused
  - name: items
    produces: [item]
    records:
      - name: Rope
`
	m, err := manifest.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	regs := m.Registrations()
	if len(regs) != 2 {
		t.Fatalf("registrations = %d, want 2", len(regs))
	}
	cat := seed.NewCatalog(regs...)
	if types := cat.Types(); len(types) != 1 || types[0] != "item" {
		t.Fatalf("Types = %v, want [item]", types)
	}
}

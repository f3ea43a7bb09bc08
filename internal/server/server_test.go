package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/internal/health"
	"github.com/MrWong99/seedkit/internal/observe"
	"github.com/MrWong99/seedkit/internal/seeds"
	"github.com/MrWong99/seedkit/internal/target"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// brokenStore fails every insert.
type brokenStore struct{ fixture.MemStore }

func (*brokenStore) Insert(context.Context, fixture.Record) (fixture.Record, error) {
	return fixture.Record{}, errors.New("disk full")
}

func newTestServer(t *testing.T) (*Server, *fixture.MemStore) {
	t.Helper()
	cat := seeds.Builtin.Catalog()
	dev := &fixture.MemStore{}
	targets := []*target.Target{
		target.New("dev", dev, cat, nil),
		target.New("broken", &brokenStore{}, cat, nil),
	}
	checks := []health.Checker{health.StoreChecker("dev", dev)}
	return New(cat, targets, health.New(checks), nil), dev
}

func do(t *testing.T, h http.Handler, method, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	if out != nil {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return rec.Code
}

func TestTypes(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	var got []typeInfo
	if code := do(t, s, http.MethodGet, "/v1/types", &got); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	var types []string
	for _, ti := range got {
		types = append(types, ti.Type)
		if ti.Type == string(seeds.Item) && !slices.Equal(ti.Seeds, []string{"items-mundane", "items-magic"}) {
			t.Errorf("item seeds = %v", ti.Seeds)
		}
	}
	want := []string{"faction", "location", "npc", "item", "quest"}
	if !slices.Equal(types, want) {
		t.Errorf("types = %v, want %v", types, want)
	}
}

func TestTargets(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	if code := do(t, s, http.MethodPost, "/v1/targets/dev/seed/npc", nil); code != http.StatusOK {
		t.Fatalf("seed npc code = %d", code)
	}

	var got []seededResponse
	if code := do(t, s, http.MethodGet, "/v1/targets", &got); code != http.StatusOK {
		t.Fatalf("targets code = %d", code)
	}
	if len(got) != 2 {
		t.Fatalf("targets = %+v, want 2 entries", got)
	}
	if got[0].Target != "broken" || len(got[0].Seeded) != 0 {
		t.Errorf("targets[0] = %+v, want broken with nothing seeded", got[0])
	}
	want := []string{"faction", "location", "npc"}
	if got[1].Target != "dev" || !slices.Equal(got[1].Seeded, want) {
		t.Errorf("targets[1] = %+v, want dev seeded with %v", got[1], want)
	}
}

func TestSeedFlow(t *testing.T) {
	t.Parallel()
	s, store := newTestServer(t)
	ctx := context.Background()

	var res seededResponse
	if code := do(t, s, http.MethodGet, "/v1/targets/dev/seeded", &res); code != http.StatusOK {
		t.Fatalf("seeded code = %d", code)
	}
	if len(res.Seeded) != 0 {
		t.Errorf("initial seeded = %v", res.Seeded)
	}

	if code := do(t, s, http.MethodPost, "/v1/targets/dev/seed/npc", &res); code != http.StatusOK {
		t.Fatalf("seed npc code = %d", code)
	}
	want := []string{"faction", "location", "npc"}
	if !slices.Equal(res.Seeded, want) {
		t.Errorf("seeded after npc = %v, want %v", res.Seeded, want)
	}

	if code := do(t, s, http.MethodPost, "/v1/targets/dev/seed", &res); code != http.StatusOK {
		t.Fatalf("seed all code = %d", code)
	}
	if len(res.Seeded) != 5 {
		t.Errorf("seeded after all = %v", res.Seeded)
	}
	n, _ := store.Count(ctx, "")
	if n != 9 {
		t.Errorf("records = %d, want 9", n)
	}

	if code := do(t, s, http.MethodPost, "/v1/targets/dev/reset?truncate=true", &res); code != http.StatusOK {
		t.Fatalf("reset code = %d", code)
	}
	if len(res.Seeded) != 0 {
		t.Errorf("seeded after reset = %v", res.Seeded)
	}
	if n, _ := store.Count(ctx, ""); n != 0 {
		t.Errorf("records after truncate = %d, want 0", n)
	}

	// Seeding again after a truncating reset succeeds.
	if code := do(t, s, http.MethodPost, "/v1/targets/dev/seed", &res); code != http.StatusOK {
		t.Fatalf("reseed code = %d", code)
	}
}

func TestUnregisteredTypeIsNoop(t *testing.T) {
	t.Parallel()
	s, store := newTestServer(t)

	var res seededResponse
	if code := do(t, s, http.MethodPost, "/v1/targets/dev/seed/weather", &res); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if !slices.Equal(res.Seeded, []string{"weather"}) {
		t.Errorf("seeded = %v", res.Seeded)
	}
	if n, _ := store.Count(context.Background(), ""); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantErr  string
	}{
		{"unknown target seeded", http.MethodGet, "/v1/targets/prod/seeded", http.StatusNotFound, `unknown target "prod"`},
		{"unknown target seed", http.MethodPost, "/v1/targets/prod/seed/npc", http.StatusNotFound, `unknown target "prod"`},
		{"seed failure", http.MethodPost, "/v1/targets/broken/seed/faction", http.StatusInternalServerError, "disk full"},
		{"seed all failure", http.MethodPost, "/v1/targets/broken/seed", http.StatusInternalServerError, "disk full"},
		{"bad truncate", http.MethodPost, "/v1/targets/dev/reset?truncate=maybe", http.StatusBadRequest, "truncate must be a boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res errorResponse
			if code := do(t, s, tt.method, tt.path, &res); code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(res.Error, tt.wantErr) {
				t.Errorf("error = %q, want %q", res.Error, tt.wantErr)
			}
		})
	}
}

func TestFailedTypeStaysSeeded(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	do(t, s, http.MethodPost, "/v1/targets/broken/seed/faction", nil)

	var res seededResponse
	do(t, s, http.MethodGet, "/v1/targets/broken/seeded", &res)
	if !slices.Equal(res.Seeded, []string{"faction"}) {
		t.Errorf("seeded = %v, want [faction]", res.Seeded)
	}
}

func TestWrongMethod(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	if code := do(t, s, http.MethodGet, "/v1/targets/dev/seed", nil); code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want %d", code, http.StatusMethodNotAllowed)
	}
}

func TestHealthRoutes(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	var body map[string]any
	if code := do(t, s, http.MethodGet, "/readyz", &body); code != http.StatusOK {
		t.Errorf("readyz code = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("readyz body = %v", body)
	}
}

func TestHandleAndMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	cat := seed.NewCatalog[fixture.Store]()
	s := New(cat, nil, nil, m)
	s.Handle("GET /metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("metrics route = %d %q", rec.Code, rec.Body.String())
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name == "seedkit.http.request.duration" {
				found = true
			}
		}
	}
	if !found {
		t.Error("request duration not recorded")
	}
}

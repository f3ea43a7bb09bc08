// Package server exposes seed targets over a small JSON HTTP API so shared
// development environments can be seeded and reset without a redeploy.
//
//	GET  /v1/types                          catalog entity types and seed names
//	GET  /v1/targets                        configured targets and their dispatched types
//	GET  /v1/targets/{target}/seeded        types dispatched on a target
//	POST /v1/targets/{target}/seed/{type}   dispatch one type
//	POST /v1/targets/{target}/seed          dispatch every type
//	POST /v1/targets/{target}/reset         forget dispatched types (?truncate=true empties the store)
package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/internal/health"
	"github.com/MrWong99/seedkit/internal/observe"
	"github.com/MrWong99/seedkit/internal/target"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// Server routes control API requests to targets.
type Server struct {
	catalog *seed.Catalog[fixture.Store]
	targets map[string]*target.Target
	names   []string
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a server for targets. Health routes are mounted when hc is
// non-nil and requests are instrumented with m when it is non-nil.
func New(catalog *seed.Catalog[fixture.Store], targets []*target.Target, hc *health.Handler, m *observe.Metrics) *Server {
	s := &Server{
		catalog: catalog,
		targets: make(map[string]*target.Target, len(targets)),
		mux:     http.NewServeMux(),
	}
	for _, t := range targets {
		s.targets[t.Name()] = t
		s.names = append(s.names, t.Name())
	}
	slices.Sort(s.names)

	s.mux.HandleFunc("GET /v1/types", s.handleTypes)
	s.mux.HandleFunc("GET /v1/targets", s.handleTargets)
	s.mux.HandleFunc("GET /v1/targets/{target}/seeded", s.handleSeeded)
	s.mux.HandleFunc("POST /v1/targets/{target}/seed/{type}", s.handleSeed)
	s.mux.HandleFunc("POST /v1/targets/{target}/seed", s.handleSeedAll)
	s.mux.HandleFunc("POST /v1/targets/{target}/reset", s.handleReset)
	if hc != nil {
		hc.Register(s.mux)
	}

	s.handler = s.mux
	if m != nil {
		s.handler = observe.Middleware(m)(s.mux)
	}
	return s
}

// Handle mounts an extra handler, such as a metrics exporter, on the
// server's mux.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type typeInfo struct {
	Type  string   `json:"type"`
	Seeds []string `json:"seeds"`
}

type seededResponse struct {
	Target string   `json:"target"`
	Seeded []string `json:"seeded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	types := s.catalog.Types()
	out := make([]typeInfo, 0, len(types))
	for _, t := range types {
		info := typeInfo{Type: string(t)}
		for _, f := range s.catalog.Factories(t) {
			info.Seeds = append(info.Seeds, f.Name)
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTargets(w http.ResponseWriter, _ *http.Request) {
	out := make([]seededResponse, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, seededOf(s.targets[name]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeeded(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeSeeded(w, t)
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := t.Seed(r.Context(), seed.EntityType(r.PathValue("type"))); err != nil {
		observe.Logger(r.Context()).Error("seed failed", "target", t.Name(), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeSeeded(w, t)
}

func (s *Server) handleSeedAll(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := t.SeedAll(r.Context()); err != nil {
		observe.Logger(r.Context()).Error("seed all failed", "target", t.Name(), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeSeeded(w, t)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	truncate := false
	if v := r.URL.Query().Get("truncate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "truncate must be a boolean"})
			return
		}
		truncate = b
	}
	if err := t.Reset(r.Context(), truncate); err != nil {
		observe.Logger(r.Context()).Error("reset failed", "target", t.Name(), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeSeeded(w, t)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*target.Target, bool) {
	name := r.PathValue("target")
	trace.SpanFromContext(r.Context()).SetAttributes(observe.AttrTarget.String(name))
	t, ok := s.targets[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown target " + strconv.Quote(name)})
	}
	return t, ok
}

func seededOf(t *target.Target) seededResponse {
	res := seededResponse{Target: t.Name(), Seeded: []string{}}
	for _, et := range t.Seeded() {
		res.Seeded = append(res.Seeded, string(et))
	}
	return res
}

func writeSeeded(w http.ResponseWriter, t *target.Target) {
	writeJSON(w, http.StatusOK, seededOf(t))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

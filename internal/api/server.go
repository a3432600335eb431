// Package api exposes a Router over HTTP: POST /v1/route, GET /v1/stats,
// GET /metrics and GET /healthz.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/katalvlaran/dexroute/bellmanford"
	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/internal/metrics"
	"github.com/katalvlaran/dexroute/router"
	"github.com/katalvlaran/dexroute/split"
)

// maxBody bounds request bodies.
const maxBody = 1 << 16

type Server struct {
	mux    *http.ServeMux
	router *router.Router
	graph  *core.Graph
	log    zerolog.Logger
}

// New serves rt over the snapshot g. reg may be nil to omit /metrics.
func New(rt *router.Router, g *core.Graph, reg *prometheus.Registry, log zerolog.Logger) *Server {
	s := &Server{mux: http.NewServeMux(), router: rt, graph: g, log: log}
	s.mux.HandleFunc("POST /v1/route", s.handleRoute)
	s.mux.HandleFunc("GET /v1/stats", s.handleStats)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if reg != nil {
		s.mux.Handle("GET /metrics", metrics.Handler(reg))
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var body RouteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("rejected route body")
		writeJSON(w, http.StatusBadRequest, ErrorView{Kind: "invalid_request", Error: err.Error()})
		return
	}

	resp, err := s.router.Find(r.Context(), s.graph, router.Request{
		From:              core.NormalizeAsset(body.From),
		To:                core.NormalizeAsset(body.To),
		Amount:            body.Amount,
		Splits:            body.Splits,
		SlippageTolerance: body.SlippageTolerance,
		MaxHops:           body.MaxHops,
	})

	var partial *split.PartialError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, NewResponseView(resp))
	case errors.As(err, &partial) && resp != nil:
		v := NewResponseView(resp)
		v.Error = err.Error()
		writeJSON(w, http.StatusPartialContent, v)
	default:
		status, kind := classify(err)
		writeJSON(w, status, ErrorView{Kind: kind, Error: err.Error()})
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	st := s.graph.Stats()
	writeJSON(w, http.StatusOK, map[string]int{"assets": st.Assets, "pools": st.Pools, "dexes": st.DEXes})
}

// classify maps error kinds to HTTP statuses.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, router.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, bellmanford.ErrNoRouteFound):
		return http.StatusNotFound, "no_route_found"
	case errors.Is(err, bellmanford.ErrBudgetExhausted):
		return http.StatusServiceUnavailable, "budget_exhausted"
	case errors.Is(err, bellmanford.ErrBrokenChain):
		return http.StatusInternalServerError, "broken_chain"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

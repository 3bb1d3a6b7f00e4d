// Package server exposes the engine over a JSON HTTP API: graph creation
// (template or custom), synchronous and asynchronous runs, and run state
// lookup. The graph registry (id -> graph) lives here, not in the engine.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/flowforge/flowforge/codereview"
	"github.com/flowforge/flowforge/runtime"
	"github.com/flowforge/flowforge/types"
)

// Server holds the engine and the graphs created through the API.
type Server struct {
	engine types.Engine

	mu     sync.Mutex
	graphs map[string]*types.Graph
}

// NewHandler wires the API routes onto a fresh router.
func NewHandler(engine types.Engine) http.Handler {
	s := &Server{
		engine: engine,
		graphs: make(map[string]*types.Graph),
	}

	r := chi.NewRouter()
	r.Get("/", s.root)
	r.Post("/graph/create", s.createGraph)
	r.Post("/graph/run", s.runSync)
	r.Post("/graph/run_async", s.runAsync)
	r.Get("/graph/state/{runID}", s.runState)
	r.Get("/graph/render/{graphID}", s.renderGraph)
	return r
}

type createGraphRequest struct {
	// Template names a built-in graph; when set (or when nodes and edges are
	// both omitted) the custom fields are ignored.
	Template   string       `json:"template,omitempty"`
	Name       string       `json:"name,omitempty"`
	Nodes      []types.Node `json:"nodes,omitempty"`
	Edges      []types.Edge `json:"edges,omitempty"`
	Entrypoint string       `json:"entrypoint,omitempty"`
}

type createGraphResponse struct {
	GraphID string `json:"graph_id"`
}

type runRequest struct {
	GraphID      string      `json:"graph_id"`
	InitialState types.State `json:"initial_state,omitempty"`
}

type runSyncResponse struct {
	RunID      string             `json:"run_id"`
	FinalState types.State        `json:"final_state"`
	Trace      []types.TraceEntry `json:"trace"`
}

type runAsyncResponse struct {
	RunID  string       `json:"run_id"`
	Status types.Status `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "flowforge workflow engine is running.",
	})
}

func (s *Server) createGraph(w http.ResponseWriter, r *http.Request) {
	var req createGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var graph *types.Graph
	var err error
	switch {
	case req.Template == codereview.GraphName || (req.Nodes == nil && req.Edges == nil):
		graph, err = codereview.TemplateGraph(req.Name)
	case len(req.Nodes) == 0 || len(req.Edges) == 0:
		writeError(w, http.StatusBadRequest, "either provide a template or both nodes and edges")
		return
	case req.Entrypoint == "":
		writeError(w, http.StatusBadRequest, "entrypoint is required when defining a custom graph")
		return
	default:
		graph, err = types.NewGraph(req.Name, req.Nodes, req.Edges, req.Entrypoint)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	graph.ID = uuid.NewString()
	s.mu.Lock()
	s.graphs[graph.ID] = graph
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, createGraphResponse{GraphID: graph.ID})
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request) {
	req, graph, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	run, err := s.engine.RunSync(r.Context(), graph, req.InitialState)
	if err != nil && run == nil {
		// rejected before the run started: unknown step or closed engine
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, run)
		return
	}

	writeJSON(w, http.StatusOK, runSyncResponse{
		RunID:      run.ID,
		FinalState: run.State,
		Trace:      run.Trace,
	})
}

func (s *Server) runAsync(w http.ResponseWriter, r *http.Request) {
	req, graph, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	runID, err := s.engine.RunAsync(r.Context(), graph, req.InitialState)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, runAsyncResponse{RunID: runID, Status: types.StatusRunning})
}

func (s *Server) runState(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.engine.GetRun(r.Context(), runID)
	if err != nil {
		if types.IsRunNotFound(err) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) renderGraph(w http.ResponseWriter, r *http.Request) {
	graph, exists := s.getGraph(chi.URLParam(r, "graphID"))
	if !exists {
		writeError(w, http.StatusNotFound, "graph not found")
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	if _, err := w.Write([]byte(runtime.RenderDOT(graph))); err != nil {
		log.Errorf("render write failed: %v", err)
	}
}

func (s *Server) decodeRunRequest(w http.ResponseWriter, r *http.Request) (*runRequest, *types.Graph, bool) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, nil, false
	}

	graph, exists := s.getGraph(req.GraphID)
	if !exists {
		writeError(w, http.StatusNotFound, "graph not found")
		return nil, nil, false
	}
	return &req, graph, true
}

func (s *Server) getGraph(id string) (*types.Graph, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	graph, exists := s.graphs[id]
	return graph, exists
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

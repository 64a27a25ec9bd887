package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avi3tal/weaveflow/internal/graph"
	"github.com/avi3tal/weaveflow/internal/session"
	"github.com/avi3tal/weaveflow/internal/storage"
	"github.com/avi3tal/weaveflow/pkg/types"
)

type handlers struct {
	server *Server
}

// WorkflowSummary is a list entry.
type WorkflowSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type workflowBody struct {
	Name  string       `json:"name"`
	Nodes []types.Node `json:"nodes"`
	Edges []types.Edge `json:"edges"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *handlers) listWorkflows(w http.ResponseWriter, r *http.Request) {
	list, err := h.server.store.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]WorkflowSummary, 0, len(list))
	for _, wf := range list {
		out = append(out, WorkflowSummary{ID: wf.ID, Name: wf.Name, CreatedAt: wf.CreatedAt, UpdatedAt: wf.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createWorkflow(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeWorkflow(w, r)
	if !ok {
		return
	}
	wf, err := h.server.store.Create(r.Context(), types.Workflow{Name: body.Name, Nodes: body.Nodes, Edges: body.Edges})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

func (h *handlers) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := h.server.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (h *handlers) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, ok := h.decodeWorkflow(w, r)
	if !ok {
		return
	}
	unlock := h.server.lock(id)
	defer unlock()

	wf, err := h.server.store.Update(r.Context(), types.Workflow{ID: id, Name: body.Name, Nodes: body.Nodes, Edges: body.Edges})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (h *handlers) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := h.server.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runNode loads the workflow, runs one node and saves the result.
func (h *handlers) runNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	nodeID := chi.URLParam(r, "nodeID")

	unlock := h.server.lock(id)
	defer unlock()

	opts := append([]session.Option{
		session.WithStore(h.server.store),
		session.WithLogger(h.server.logger),
	}, h.server.sessOpts...)
	sess := session.New(opts...)

	if err := sess.Load(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	resp, err := sess.RunNode(r.Context(), nodeID)
	if err != nil {
		h.fail(w, err)
		return
	}
	if _, err := sess.Save(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) validateConnection(w http.ResponseWriter, r *http.Request) {
	var c types.Connection
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid connection: " + err.Error()})
		return
	}
	wf, err := h.server.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.ValidateConnection(wf.Nodes, wf.Edges, c))
}

func (h *handlers) decodeWorkflow(w http.ResponseWriter, r *http.Request) (workflowBody, bool) {
	var body workflowBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid workflow: " + err.Error()})
		return body, false
	}
	if err := types.NewSnapshot(body.Nodes, body.Edges).Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return body, false
	}
	return body, true
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.server.logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrWorkflowNotFound), errors.Is(err, graph.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidGraph):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

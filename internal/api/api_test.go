package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avi3tal/weaveflow/internal/engine"
	"github.com/avi3tal/weaveflow/internal/graph"
	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/internal/session"
	"github.com/avi3tal/weaveflow/internal/storage"
	"github.com/avi3tal/weaveflow/pkg/types"
)

type upperText struct{}

func (upperText) GenerateText(_ context.Context, req providers.TextRequest) (string, error) {
	return "reply to " + req.Prompt, nil
}

func newTestServer(t *testing.T) (*httptest.Server, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	srv := NewServer(Config{
		Store:          store,
		Logger:         zerolog.Nop(),
		SessionOptions: []session.Option{session.WithEngineOptions(engine.WithTextGenerator(upperText{}))},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sampleBody(t *testing.T) workflowBody {
	t.Helper()
	prompt, err := types.NewNode(types.KindTextPrompt, types.Position{})
	require.NoError(t, err)
	prompt.ID = "prompt"
	prompt.Data = types.NodePatch{Text: types.Ptr("hi")}.Apply(prompt.Data)
	llm, err := types.NewNode(types.KindLLMCaller, types.Position{X: 200})
	require.NoError(t, err)
	llm.ID = "llm"
	c := types.Connection{Source: "prompt", SourceHandle: types.HandleTextOut, Target: "llm", TargetHandle: types.HandlePromptIn}
	return workflowBody{
		Name:  "Demo",
		Nodes: []types.Node{prompt, llm},
		Edges: []types.Edge{{ID: c.EdgeID(), Source: c.Source, SourceHandle: c.SourceHandle, Target: c.Target, TargetHandle: c.TargetHandle, Style: types.StyleFor(types.KindTextPrompt)}},
	}
}

func TestWorkflowCRUD(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)
	base := ts.URL + "/api/workflows"

	resp := do(t, http.MethodPost, base, sampleBody(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[types.Workflow](t, resp)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Demo", created.Name)

	resp = do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]WorkflowSummary](t, resp)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)

	body := sampleBody(t)
	body.Name = "Renamed"
	resp = do(t, http.MethodPut, base+"/"+created.ID, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[types.Workflow](t, resp)
	require.Equal(t, "Renamed", got.Name)
	require.Len(t, got.Nodes, 2)

	resp = do(t, http.MethodDelete, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, decode[errorBody](t, resp).Error, "workflow not found")
}

func TestCreateDefaultsName(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/workflows", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, storage.DefaultWorkflowName, decode[types.Workflow](t, resp).Name)
}

func TestRejectsBrokenGraphs(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)

	body := sampleBody(t)
	body.Edges[0].Target = "ghost"
	resp := do(t, http.MethodPost, ts.URL+"/api/workflows", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/workflows", bytes.NewBufferString(`{"nodes":[{"id":"x","type":"videoNode"}]}`))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestRunNodePersistsResult(t *testing.T) {
	t.Parallel()
	ts, store := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/workflows", sampleBody(t))
	created := decode[types.Workflow](t, resp)

	resp = do(t, http.MethodPost, ts.URL+"/api/workflows/"+created.ID+"/nodes/llm/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[types.NodeResponse](t, resp)
	assert.Equal(t, "llm", out.NodeID)
	assert.Equal(t, types.StatusSuccess, out.Status)
	assert.Equal(t, "reply to hi", out.Node.Base().Output)

	wf, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	for _, n := range wf.Nodes {
		if n.ID == "llm" {
			assert.Equal(t, "reply to hi", n.Base().Output, "the run result is saved")
		}
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/workflows/"+created.ID+"/nodes/ghost/run", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/workflows/missing/nodes/llm/run", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateConnectionEndpoint(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/workflows", sampleBody(t))
	created := decode[types.Workflow](t, resp)
	url := ts.URL + "/api/workflows/" + created.ID + "/connections/validate"

	resp = do(t, http.MethodPost, url, types.Connection{Source: "llm", SourceHandle: types.HandleResponseOut, Target: "prompt", TargetHandle: types.HandlePromptIn})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[graph.ConnectionResult](t, resp)
	assert.False(t, res.IsValid)
	assert.Equal(t, graph.MsgCircular, res.Message)

	resp = do(t, http.MethodPost, url, types.Connection{Source: "prompt", SourceHandle: types.HandleTextOut, Target: "llm", TargetHandle: types.HandleSystemPromptIn})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[graph.ConnectionResult](t, resp).IsValid)
}

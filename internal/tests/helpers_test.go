package tests

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/internal/session"
	"github.com/avi3tal/weaveflow/pkg/types"
)

// scriptedText answers every prompt with a fixed prefix and records what
// it was asked.
type scriptedText struct {
	mu       sync.Mutex
	prefix   string
	requests []providers.TextRequest
}

func (s *scriptedText) GenerateText(_ context.Context, req providers.TextRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(req.Images) > 0 && req.Prompt != "" && strings.HasPrefix(req.Prompt, "Describe") {
		return "a red bicycle", nil
	}
	return s.prefix + req.Prompt, nil
}

func (s *scriptedText) calls() []providers.TextRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.TextRequest(nil), s.requests...)
}

type urlImager struct{}

func (urlImager) ImageURL(_ context.Context, req providers.URLRequest) (string, error) {
	return "https://images.test/" + strings.ReplaceAll(req.Prompt, " ", "-"), nil
}

func add(t *testing.T, s *session.Session, id string, kind types.NodeKind, patch types.NodePatch) {
	t.Helper()
	n, err := types.NewNode(kind, types.Position{})
	require.NoError(t, err)
	n.ID = id
	n.Data = patch.Apply(n.Data)
	require.True(t, s.Graph().AddNode(n), "node %s added", id)
}

func link(t *testing.T, s *session.Session, src, srcHandle, dst, dstHandle string) {
	t.Helper()
	_, res := s.Connect(types.Connection{Source: src, SourceHandle: srcHandle, Target: dst, TargetHandle: dstHandle})
	require.True(t, res.IsValid, "%s -> %s: %s", src, dst, res.Message)
}

func output(t *testing.T, s *session.Session, id string) string {
	t.Helper()
	n, ok := s.Graph().Node(id)
	require.True(t, ok, "node %s exists", id)
	return n.Base().Output
}

package graph

import (
	"bytes"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/avi3tal/weaveflow/pkg/types"
)

func TestConnectReplacesOccupiedHandle(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "t1", types.KindTextPrompt))
	s.AddNode(mkNode(t, "t2", types.KindTextPrompt))
	s.AddNode(mkNode(t, "up", types.KindUpload))
	s.AddNode(mkNode(t, "llm", types.KindLLMCaller))

	s.Connect(types.Connection{Source: "t1", SourceHandle: types.HandleTextOut, Target: "llm", TargetHandle: types.HandlePromptIn})
	second := s.Connect(types.Connection{Source: "t2", SourceHandle: types.HandleTextOut, Target: "llm", TargetHandle: types.HandlePromptIn})

	edges := s.IncomingEdges("llm")
	require.Len(t, edges, 1, "a target handle holds a single edge")
	require.Equal(t, second, edges[0])
	require.Equal(t, "text", edges[0].Style.Tag())
	require.Equal(t, types.DefaultEdgeStroke, edges[0].Style.StrokeWidth)

	img := s.Connect(types.Connection{Source: "up", SourceHandle: types.HandleImageOut, Target: "llm", TargetHandle: types.ImageInHandle(0)})
	require.Equal(t, "image", img.Style.Tag())
	require.Len(t, s.IncomingEdges("llm"), 2)
}

func TestAddNodeIgnoresDuplicates(t *testing.T) {
	t.Parallel()
	s := NewStore()
	require.True(t, s.AddNode(mkNode(t, "a", types.KindTextPrompt)))
	require.False(t, s.AddNode(mkNode(t, "a", types.KindLLMCaller)))

	require.Len(t, s.Nodes(), 1)
	past, _ := s.HistoryLen()
	require.Equal(t, 1, past, "an ignored add does not snapshot")
}

func TestUpdateNodeDataDoesNotSnapshot(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "a", types.KindTextPrompt))

	require.NoError(t, s.UpdateNodeData("a", types.NodePatch{Text: types.Ptr("hello")}))
	n, ok := s.Node("a")
	require.True(t, ok)
	require.Equal(t, "hello", n.Data.(*types.TextPromptData).Text)
	require.Equal(t, "Prompt", n.Base().Label, "merge keeps unspecified fields")

	past, _ := s.HistoryLen()
	require.Equal(t, 1, past)

	err := s.UpdateNodeData("missing", types.NodePatch{})
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestUndoRedoRestoresGraph(t *testing.T) {
	t.Parallel()
	s := NewStore()
	initial := s.Snapshot()

	s.AddNode(mkNode(t, "a", types.KindTextPrompt))
	s.AddNode(mkNode(t, "b", types.KindLLMCaller))
	s.Connect(types.Connection{Source: "a", SourceHandle: types.HandleTextOut, Target: "b", TargetHandle: types.HandlePromptIn})
	final := s.Snapshot()

	for i := 0; i < 3; i++ {
		require.True(t, s.Undo())
	}
	require.False(t, s.Undo(), "undo on an empty stack is a no-op")
	require.Equal(t, initial, s.Snapshot())

	for i := 0; i < 3; i++ {
		require.True(t, s.Redo())
	}
	require.False(t, s.Redo())
	require.Equal(t, final, s.Snapshot())
}

func TestHistoryBound(t *testing.T) {
	t.Parallel()
	s := NewStore()
	for i := 0; i < 25; i++ {
		s.AddNode(mkNode(t, string(rune('a'+i)), types.KindTextPrompt))
	}
	past, future := s.HistoryLen()
	require.Equal(t, 20, past)
	require.Zero(t, future)
}

func TestRemoveNodeDropsEdgesAndSnapshots(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "a", types.KindTextPrompt))
	s.AddNode(mkNode(t, "b", types.KindLLMCaller))
	s.Connect(types.Connection{Source: "a", SourceHandle: types.HandleTextOut, Target: "b", TargetHandle: types.HandlePromptIn})

	s.ApplyNodeChanges(RemoveNodes("a"))
	require.Len(t, s.Nodes(), 1)
	require.Empty(t, s.Edges(), "edges of a removed node are dropped")

	require.True(t, s.Undo())
	require.Len(t, s.Nodes(), 2)
	require.Len(t, s.Edges(), 1)
}

func TestApplyEdgeChanges(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "a", types.KindTextPrompt))
	s.AddNode(mkNode(t, "b", types.KindLLMCaller))
	e := s.Connect(types.Connection{Source: "a", SourceHandle: types.HandleTextOut, Target: "b", TargetHandle: types.HandlePromptIn})
	pastBefore, _ := s.HistoryLen()

	s.ApplyEdgeChanges([]EdgeChange{{Type: ChangeSelect, ID: e.ID, Selected: true}})
	require.True(t, s.Edges()[0].Selected)
	past, _ := s.HistoryLen()
	require.Equal(t, pastBefore, past, "selection is not snapshotted")

	s.ApplyEdgeChanges([]EdgeChange{{Type: ChangeRemove, ID: e.ID}})
	require.Empty(t, s.Edges())
	past, _ = s.HistoryLen()
	require.Equal(t, pastBefore+1, past)
}

func TestApplyEdgeChangesAddReplacesOccupant(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "t1", types.KindTextPrompt))
	s.AddNode(mkNode(t, "t2", types.KindTextPrompt))
	s.AddNode(mkNode(t, "llm", types.KindLLMCaller))
	s.Connect(types.Connection{Source: "t1", SourceHandle: types.HandleTextOut, Target: "llm", TargetHandle: types.HandlePromptIn})

	c := types.Connection{Source: "t2", SourceHandle: types.HandleTextOut, Target: "llm", TargetHandle: types.HandlePromptIn}
	added := types.Edge{ID: c.EdgeID(), Source: c.Source, SourceHandle: c.SourceHandle, Target: c.Target, TargetHandle: c.TargetHandle}
	s.ApplyEdgeChanges([]EdgeChange{{Type: ChangeAdd, ID: added.ID, Item: &added}})

	edges := s.IncomingEdges("llm")
	require.Len(t, edges, 1)
	require.Equal(t, "t2", edges[0].Source, "the latest edge wins the handle")
	require.NoError(t, s.Snapshot().Validate())
}

func TestShrinkingImageInputsDropsEdges(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "up", types.KindUpload))
	s.AddNode(mkNode(t, "t", types.KindTextPrompt))
	s.AddNode(mkNode(t, "llm", types.KindLLMCaller))
	require.NoError(t, s.UpdateNodeData("llm", types.NodePatch{ImageInputCount: types.Ptr(3)}))

	s.Connect(types.Connection{Source: "up", SourceHandle: types.HandleImageOut, Target: "llm", TargetHandle: types.ImageInHandle(0)})
	s.Connect(types.Connection{Source: "up", SourceHandle: types.HandleImageOut, Target: "llm", TargetHandle: types.ImageInHandle(2)})
	s.Connect(types.Connection{Source: "t", SourceHandle: types.HandleTextOut, Target: "llm", TargetHandle: types.HandlePromptIn})

	require.NoError(t, s.UpdateNodeData("llm", types.NodePatch{ImageInputCount: types.Ptr(1)}))

	var handles []string
	for _, e := range s.IncomingEdges("llm") {
		handles = append(handles, e.TargetHandle)
	}
	require.ElementsMatch(t, []string{types.ImageInHandle(0), types.HandlePromptIn}, handles)
	require.NoError(t, s.Snapshot().Validate())

	require.NoError(t, s.UpdateNodeData("llm", types.NodePatch{ImageInputCount: types.Ptr(4)}))
	require.Len(t, s.IncomingEdges("llm"), 2, "growing keeps every edge")
}

func TestDragIsCoalescedIntoOneSnapshot(t *testing.T) {
	t.Parallel()
	mock := clock.NewMock()
	s := NewStore(WithClock(mock))
	s.AddNode(mkNode(t, "a", types.KindTextPrompt))

	s.ApplyNodeChanges([]NodeChange{MoveNode("a", types.Position{X: 10}, true)})
	s.ApplyNodeChanges([]NodeChange{MoveNode("a", types.Position{X: 20}, true)})
	s.ApplyNodeChanges([]NodeChange{MoveNode("a", types.Position{X: 30}, false)})

	past, _ := s.HistoryLen()
	require.Equal(t, 1, past, "nothing is committed before the window elapses")

	mock.Add(50 * time.Millisecond)
	// a second drag end restarts the window
	s.ApplyNodeChanges([]NodeChange{MoveNode("a", types.Position{X: 40}, false)})
	mock.Add(80 * time.Millisecond)
	past, _ = s.HistoryLen()
	require.Equal(t, 1, past)

	mock.Add(30 * time.Millisecond)
	require.Eventually(t, func() bool {
		p, _ := s.HistoryLen()
		return p == 2
	}, time.Second, 5*time.Millisecond)

	require.True(t, s.Undo())
	n, _ := s.Node("a")
	require.Equal(t, types.Position{}, n.Position, "undo returns to the pre-drag position")
}

func TestPendingDragFlushedBeforeStructuralSnapshot(t *testing.T) {
	t.Parallel()
	mock := clock.NewMock()
	s := NewStore(WithClock(mock))
	s.AddNode(mkNode(t, "a", types.KindTextPrompt))

	s.ApplyNodeChanges([]NodeChange{MoveNode("a", types.Position{X: 5}, false)})
	s.AddNode(mkNode(t, "b", types.KindTextPrompt))

	past, _ := s.HistoryLen()
	require.Equal(t, 3, past)

	require.True(t, s.Undo())
	require.Len(t, s.Nodes(), 1)
	require.True(t, s.Undo())
	n, _ := s.Node("a")
	require.Equal(t, types.Position{}, n.Position)
}

func TestReplaceClearsHistory(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "a", types.KindTextPrompt))
	s.Replace(types.NewSnapshot([]types.Node{mkNode(t, "z", types.KindUpload)}, nil))

	past, future := s.HistoryLen()
	require.Zero(t, past)
	require.Zero(t, future)
	_, ok := s.Node("z")
	require.True(t, ok)
}

func TestAddImageInput(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "img", types.KindImageGenerator))
	s.AddNode(mkNode(t, "txt", types.KindTextPrompt))

	for want := 2; want <= types.MaxImageInputs; want++ {
		got, err := s.AddImageInput("img")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := s.AddImageInput("img")
	require.ErrorIs(t, err, ErrInputLimit)

	_, err = s.AddImageInput("txt")
	require.ErrorIs(t, err, ErrWrongNodeKind)
}

func TestPreviewConnectionRecordsFeedback(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "up", types.KindUpload))
	s.AddNode(mkNode(t, "llm", types.KindLLMCaller))
	edgesBefore := s.Edges()

	res := s.PreviewConnection(types.Connection{Source: "up", SourceHandle: types.HandleImageOut, Target: "llm", TargetHandle: types.HandlePromptIn})
	require.False(t, res.IsValid)
	require.Equal(t, &ConnectionFeedback{NodeID: "llm", HandleID: types.HandlePromptIn, Message: MsgWrongInput}, s.ConnectionFeedback())
	require.Equal(t, edgesBefore, s.Edges(), "previews never mutate the graph")

	res = s.PreviewConnection(types.Connection{Source: "up", SourceHandle: types.HandleImageOut, Target: "llm", TargetHandle: types.ImageInHandle(0)})
	require.True(t, res.IsValid)
	require.Nil(t, s.ConnectionFeedback())
}

func TestPrintGraph(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.AddNode(mkNode(t, "up", types.KindUpload))
	s.AddNode(mkNode(t, "llm", types.KindLLMCaller))
	s.Connect(types.Connection{Source: "up", SourceHandle: types.HandleImageOut, Target: "llm", TargetHandle: types.ImageInHandle(0)})

	var buf bytes.Buffer
	PrintGraph(&buf, s.Snapshot())
	require.Contains(t, buf.String(), "up.image-out ==image==> llm.image-in-0")
	require.Contains(t, buf.String(), `llm [llmNode] "Any LLM" (idle)`)
}

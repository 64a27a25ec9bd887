package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeJSONSelectsVariant(t *testing.T) {
	t.Parallel()
	raw := `[
		{"id":"t","type":"textNode","position":{"x":1,"y":2},"data":{"label":"Prompt","text":"hello","isLoading":false}},
		{"id":"u","type":"uploadNode","position":{"x":0,"y":0},"data":{"image":"data:image/png;base64,AAAA","error":null}},
		{"id":"i","type":"imageNode","position":{"x":0,"y":0},"data":{"selectedModel":"flux-schnell","imageInputCount":3}},
		{"id":"l","type":"llmNode","position":{"x":0,"y":0},"data":{"model":"gemini-2.5-pro","imageInputCount":2,"systemPrompt":"be brief"}}
	]`

	var nodes []Node
	require.NoError(t, json.Unmarshal([]byte(raw), &nodes))
	require.Len(t, nodes, 4)

	text, ok := nodes[0].Data.(*TextPromptData)
	require.True(t, ok, "textNode should decode into TextPromptData")
	assert.Equal(t, "hello", text.Text)
	assert.Equal(t, Position{X: 1, Y: 2}, nodes[0].Position)

	upload := nodes[1].Data.(*UploadData)
	assert.Equal(t, "data:image/png;base64,AAAA", upload.Image)
	assert.Empty(t, upload.Error, "null error should decode as empty")

	img := nodes[2].Data.(*ImageGeneratorData)
	assert.Equal(t, ModelFluxSchnell, img.SelectedModel)
	assert.Equal(t, 3, nodes[2].ImageInputCount())

	llm := nodes[3].Data.(*LLMCallerData)
	assert.Equal(t, "gemini-2.5-pro", llm.Model)
	assert.Equal(t, "be brief", llm.SystemPrompt)
}

func TestNodeJSONUnknownKind(t *testing.T) {
	t.Parallel()
	var n Node
	err := json.Unmarshal([]byte(`{"id":"x","type":"videoNode","data":{}}`), &n)
	require.ErrorIs(t, err, ErrUnknownNodeKind)
}

func TestNewNodeDefaults(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind  NodeKind
		label string
	}{
		{KindTextPrompt, "Prompt"},
		{KindUpload, "Upload"},
		{KindImageGenerator, "Image"},
		{KindLLMCaller, "Any LLM"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			n, err := NewNode(tt.kind, Position{})
			require.NoError(t, err)
			assert.Equal(t, tt.label, n.Base().Label)
			assert.NotEmpty(t, n.ID)
			assert.Equal(t, StatusIdle, n.Base().Status())
		})
	}

	n, err := NewNode(KindImageGenerator, Position{})
	require.NoError(t, err)
	assert.Equal(t, ModelPollinations, n.Data.(*ImageGeneratorData).SelectedModel)
	assert.Equal(t, 1, n.ImageInputCount())

	n, err = NewNode(KindLLMCaller, Position{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, n.Data.(*LLMCallerData).Model)
}

func TestNodePatchApply(t *testing.T) {
	t.Parallel()
	orig := &LLMCallerData{
		BaseData:        BaseData{Label: "Any LLM", Output: "old"},
		Model:           "gemini-2.5-flash",
		ImageInputCount: 1,
	}

	patched := NodePatch{
		Output:          Ptr("new"),
		SystemPrompt:    Ptr("sys"),
		Text:            Ptr("ignored for llm nodes"),
		ImageInputCount: Ptr(42),
	}.Apply(orig)

	got := patched.(*LLMCallerData)
	assert.Equal(t, "new", got.Output)
	assert.Equal(t, "sys", got.SystemPrompt)
	assert.Equal(t, "Any LLM", got.Label, "unspecified fields are kept")
	assert.Equal(t, MaxImageInputs, got.ImageInputCount, "input count is clamped")
	assert.Equal(t, "old", orig.Output, "original payload is not mutated")
}

func TestSnapshotValidate(t *testing.T) {
	t.Parallel()
	a, _ := NewNode(KindTextPrompt, Position{})
	b, _ := NewNode(KindLLMCaller, Position{})
	edge := Edge{ID: "e1", Source: a.ID, SourceHandle: HandleTextOut, Target: b.ID, TargetHandle: HandlePromptIn}

	require.NoError(t, NewSnapshot([]Node{a, b}, []Edge{edge}).Validate())

	t.Run("duplicate node", func(t *testing.T) {
		err := NewSnapshot([]Node{a, a}, nil).Validate()
		require.ErrorIs(t, err, ErrInvalidGraph)
	})
	t.Run("dangling edge", func(t *testing.T) {
		err := NewSnapshot([]Node{a}, []Edge{edge}).Validate()
		require.ErrorIs(t, err, ErrInvalidGraph)
		require.Contains(t, err.Error(), "missing target")
	})
	t.Run("input count out of range", func(t *testing.T) {
		bad := b.Clone()
		bad.Data.(*LLMCallerData).ImageInputCount = 11
		err := NewSnapshot([]Node{a, bad}, nil).Validate()
		require.ErrorIs(t, err, ErrInvalidGraph)
	})
	t.Run("handle taken twice", func(t *testing.T) {
		c, _ := NewNode(KindTextPrompt, Position{})
		again := Edge{ID: "e2", Source: c.ID, SourceHandle: HandleTextOut, Target: b.ID, TargetHandle: HandlePromptIn}
		err := NewSnapshot([]Node{a, b, c}, []Edge{edge, again}).Validate()
		require.ErrorIs(t, err, ErrInvalidGraph)
		require.Contains(t, err.Error(), "both target")
	})
	t.Run("undeclared image input", func(t *testing.T) {
		up, _ := NewNode(KindUpload, Position{})
		img := Edge{ID: "e3", Source: up.ID, SourceHandle: HandleImageOut, Target: b.ID, TargetHandle: ImageInHandle(7)}
		err := NewSnapshot([]Node{a, b, up}, []Edge{edge, img}).Validate()
		require.ErrorIs(t, err, ErrInvalidGraph)
		require.Contains(t, err.Error(), "undeclared input")

		img.TargetHandle = ImageInHandle(0)
		require.NoError(t, NewSnapshot([]Node{a, b, up}, []Edge{edge, img}).Validate())
	})
}

func TestHandles(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "image-in-3", ImageInHandle(3))
	i, ok := ImageInIndex("image-in-7")
	assert.True(t, ok)
	assert.Equal(t, 7, i)
	_, ok = ImageInIndex("prompt-in")
	assert.False(t, ok)

	assert.True(t, IsImageHandle("image-in-0"))
	assert.True(t, IsTextHandle(HandleSystemPromptIn))
	assert.True(t, IsOutputHandle(HandleResponseOut))
	assert.Equal(t, "image", StyleFor(KindUpload).Tag())
	assert.Equal(t, "text", StyleFor(KindLLMCaller).Tag())
}

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle names used by the built-in node kinds.
const (
	HandleTextOut     = "text-out"
	HandleImageOut    = "image-out"
	HandleResponseOut = "response-out"

	HandleTextIn         = "text-in"
	HandlePromptIn       = "prompt-in"
	HandleSystemPromptIn = "system-prompt-in"

	imageInPrefix = "image-in-"
)

// Edge strokes, one per value type.
const (
	StrokeImage       = "rgb(110,221,179)"
	StrokeText        = "rgb(241,160,250)"
	DefaultEdgeStroke = 3
)

// ImageInHandle returns the name of the i-th image input handle.
func ImageInHandle(i int) string {
	return imageInPrefix + strconv.Itoa(i)
}

// ImageInIndex parses the index out of an image-in-N handle.
func ImageInIndex(handle string) (int, bool) {
	rest, ok := strings.CutPrefix(handle, imageInPrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// IsImageHandle reports whether a target handle accepts images.
func IsImageHandle(handle string) bool {
	return strings.Contains(handle, "image-in")
}

// IsTextHandle reports whether a target handle accepts text.
func IsTextHandle(handle string) bool {
	switch handle {
	case HandlePromptIn, HandleSystemPromptIn, HandleTextIn:
		return true
	}
	return false
}

// IsOutputHandle reports whether the handle is a source-side handle.
func IsOutputHandle(handle string) bool {
	return strings.HasSuffix(handle, "-out")
}

// OutputHandle is the single source handle of each kind.
func OutputHandle(kind NodeKind) string {
	switch kind {
	case KindTextPrompt:
		return HandleTextOut
	case KindUpload, KindImageGenerator:
		return HandleImageOut
	case KindLLMCaller:
		return HandleResponseOut
	}
	return ""
}

// EdgeStyle carries the presentation hints stored with an edge.
type EdgeStyle struct {
	Stroke      string `json:"stroke,omitempty"`
	StrokeWidth int    `json:"strokeWidth,omitempty"`
}

// Tag classifies the edge by the value type it carries: "image" or "text".
func (s EdgeStyle) Tag() string {
	if s.Stroke == StrokeImage {
		return "image"
	}
	return "text"
}

// StyleFor returns the style of an edge leaving a node of the given kind.
func StyleFor(source NodeKind) EdgeStyle {
	if source.ProducesImages() {
		return EdgeStyle{Stroke: StrokeImage, StrokeWidth: DefaultEdgeStroke}
	}
	return EdgeStyle{Stroke: StrokeText, StrokeWidth: DefaultEdgeStroke}
}

// Edge is a directed, handle-qualified connection between two nodes.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	Target       string    `json:"target"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Style        EdgeStyle `json:"style"`
	Selected     bool      `json:"selected,omitempty"`
}

// Connection is a proposed edge before it gets an id and a style.
type Connection struct {
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// EdgeID derives the deterministic id given to an edge created from c.
func (c Connection) EdgeID() string {
	return fmt.Sprintf("edge-%s%s-%s%s", c.Source, c.SourceHandle, c.Target, c.TargetHandle)
}

package types

import (
	"errors"
	"fmt"
)

const (
	MinImageInputs = 1
	MaxImageInputs = 10

	DefaultLLMModel = "gemini-2.5-flash"
)

// ErrUnknownNodeKind is returned when a node carries a type outside the known set.
var ErrUnknownNodeKind = errors.New("unknown node kind")

// ImageModel selects the strategy an image generator node runs with.
type ImageModel string

const (
	ModelPollinations    ImageModel = "pollinations"
	ModelFluxSchnell     ImageModel = "flux-schnell"
	ModelInstructPix2Pix ImageModel = "instruct-pix2pix"
)

// NodeData is the closed set of per-kind payloads. Empty strings stand for
// absent (null) values.
type NodeData interface {
	Kind() NodeKind
	Base() *BaseData
	Clone() NodeData
}

// BaseData is shared by every node kind and carries the run state.
type BaseData struct {
	Label              string `json:"label,omitempty"`
	IsLoading          bool   `json:"isLoading"`
	Error              string `json:"error,omitempty"`
	ValidationError    string `json:"validationError,omitempty"`
	Output             string `json:"output,omitempty"`
	ActiveSystemPrompt string `json:"activeSystemPrompt,omitempty"`
}

type TextPromptData struct {
	BaseData
	Text string `json:"text"`
}

func (d *TextPromptData) Kind() NodeKind  { return KindTextPrompt }
func (d *TextPromptData) Base() *BaseData { return &d.BaseData }
func (d *TextPromptData) Clone() NodeData { c := *d; return &c }

type UploadData struct {
	BaseData
	Image       string `json:"image,omitempty"`
	UploadError string `json:"uploadError,omitempty"`
}

func (d *UploadData) Kind() NodeKind  { return KindUpload }
func (d *UploadData) Base() *BaseData { return &d.BaseData }
func (d *UploadData) Clone() NodeData { c := *d; return &c }

type ImageGeneratorData struct {
	BaseData
	SelectedModel        ImageModel `json:"selectedModel"`
	ImageInputCount      int        `json:"imageInputCount"`
	GeneratedDescription string     `json:"generatedDescription,omitempty"`
}

func (d *ImageGeneratorData) Kind() NodeKind  { return KindImageGenerator }
func (d *ImageGeneratorData) Base() *BaseData { return &d.BaseData }
func (d *ImageGeneratorData) Clone() NodeData { c := *d; return &c }

type LLMCallerData struct {
	BaseData
	ImageInputCount int    `json:"imageInputCount"`
	Model           string `json:"model"`
	SystemPrompt    string `json:"systemPrompt,omitempty"`
}

func (d *LLMCallerData) Kind() NodeKind  { return KindLLMCaller }
func (d *LLMCallerData) Base() *BaseData { return &d.BaseData }
func (d *LLMCallerData) Clone() NodeData { c := *d; return &c }

// NewNodeData returns the default payload for kind.
func NewNodeData(kind NodeKind) (NodeData, error) {
	switch kind {
	case KindTextPrompt:
		return &TextPromptData{}, nil
	case KindUpload:
		return &UploadData{}, nil
	case KindImageGenerator:
		return &ImageGeneratorData{SelectedModel: ModelPollinations, ImageInputCount: MinImageInputs}, nil
	case KindLLMCaller:
		return &LLMCallerData{Model: DefaultLLMModel, ImageInputCount: MinImageInputs}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeKind, kind)
}

// OwnPrompt is the prompt text a node contributes to its own run.
// Only text prompt nodes carry one.
func OwnPrompt(d NodeData) string {
	if t, ok := d.(*TextPromptData); ok {
		return t.Text
	}
	return ""
}

// NodePatch is a partial update of node data. Nil fields are left
// untouched and fields that do not exist on the target kind are ignored.
type NodePatch struct {
	Label              *string `json:"label,omitempty"`
	IsLoading          *bool   `json:"isLoading,omitempty"`
	Error              *string `json:"error,omitempty"`
	ValidationError    *string `json:"validationError,omitempty"`
	Output             *string `json:"output,omitempty"`
	ActiveSystemPrompt *string `json:"activeSystemPrompt,omitempty"`

	Text                 *string     `json:"text,omitempty"`
	Image                *string     `json:"image,omitempty"`
	UploadError          *string     `json:"uploadError,omitempty"`
	SelectedModel        *ImageModel `json:"selectedModel,omitempty"`
	ImageInputCount      *int        `json:"imageInputCount,omitempty"`
	GeneratedDescription *string     `json:"generatedDescription,omitempty"`
	Model                *string     `json:"model,omitempty"`
	SystemPrompt         *string     `json:"systemPrompt,omitempty"`
}

// Ptr returns a pointer to v, handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// Apply merges the patch into a copy of d and returns the copy.
func (p NodePatch) Apply(d NodeData) NodeData {
	out := d.Clone()
	b := out.Base()
	set(&b.Label, p.Label)
	set(&b.IsLoading, p.IsLoading)
	set(&b.Error, p.Error)
	set(&b.ValidationError, p.ValidationError)
	set(&b.Output, p.Output)
	set(&b.ActiveSystemPrompt, p.ActiveSystemPrompt)

	switch v := out.(type) {
	case *TextPromptData:
		set(&v.Text, p.Text)
	case *UploadData:
		set(&v.Image, p.Image)
		set(&v.UploadError, p.UploadError)
	case *ImageGeneratorData:
		set(&v.SelectedModel, p.SelectedModel)
		set(&v.GeneratedDescription, p.GeneratedDescription)
		if p.ImageInputCount != nil {
			v.ImageInputCount = clampInputs(*p.ImageInputCount)
		}
	case *LLMCallerData:
		set(&v.Model, p.Model)
		set(&v.SystemPrompt, p.SystemPrompt)
		if p.ImageInputCount != nil {
			v.ImageInputCount = clampInputs(*p.ImageInputCount)
		}
	}
	return out
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func clampInputs(n int) int {
	return max(MinImageInputs, min(MaxImageInputs, n))
}

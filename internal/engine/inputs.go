package engine

import (
	"strings"

	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/pkg/types"
)

// Inputs are the values a node run receives from its predecessors.
type Inputs struct {
	Prompt       string
	SystemPrompt string
	Images       []string
}

// ResolveInputs gathers the inputs of node from the sources of its incoming
// edges, in edge order.
//
// Edges into the system prompt handle contribute the source's text, or its
// output when it has no text. Other edges contribute text prompt text to
// the user prompt, upload images to the image list and outputs to either
// list depending on whether they look like an image reference. When no
// system prompt arrives directly, the first predecessor with an active
// system prompt passes its own on.
func ResolveInputs(node types.Node, incoming []types.Edge, lookup func(id string) (types.Node, bool)) Inputs {
	var text, system strings.Builder
	var images []string
	var sources []types.Node

	for _, e := range incoming {
		src, ok := lookup(e.Source)
		if !ok {
			continue
		}
		sources = append(sources, src)
		own := types.OwnPrompt(src.Data)
		output := src.Base().Output

		if e.TargetHandle == types.HandleSystemPromptIn {
			switch {
			case src.Kind == types.KindTextPrompt && own != "":
				system.WriteString(own + " ")
			case output != "":
				system.WriteString(output + " ")
			}
			continue
		}

		if src.Kind == types.KindTextPrompt && own != "" {
			text.WriteString(own + " ")
		}
		if up, ok := src.Data.(*types.UploadData); ok && up.Image != "" {
			images = append(images, up.Image)
		}
		if output != "" {
			if providers.IsImageRef(output) {
				images = append(images, output)
			} else {
				text.WriteString(" " + output)
			}
		}
	}

	systemPrompt := system.String()
	if strings.TrimSpace(systemPrompt) == "" {
		for _, src := range sources {
			if p := src.Base().ActiveSystemPrompt; p != "" {
				systemPrompt = p
				break
			}
		}
	}

	return Inputs{
		Prompt:       strings.TrimSpace(text.String() + " " + types.OwnPrompt(node.Data)),
		SystemPrompt: strings.TrimSpace(systemPrompt),
		Images:       images,
	}
}

// Empty reports whether there is nothing to run on.
func (in Inputs) Empty() bool {
	return in.Prompt == "" && len(in.Images) == 0
}

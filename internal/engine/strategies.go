package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/pkg/types"
)

const describePrompt = "Describe this image in one detailed sentence suitable as a prompt for an image generator."

type result struct {
	Output      string
	Description string
}

type imageStrategy func(ctx context.Context, e *Engine, in Inputs) (result, error)

var imageStrategies = map[types.ImageModel]imageStrategy{
	types.ModelPollinations:    pollinations,
	types.ModelFluxSchnell:     fluxSchnell,
	types.ModelInstructPix2Pix: instructPix2Pix,
}

func (e *Engine) dispatch(ctx context.Context, node types.Node, in Inputs) (result, error) {
	switch d := node.Data.(type) {
	case *types.ImageGeneratorData:
		model := d.SelectedModel
		if model == "" {
			model = types.ModelPollinations
		}
		strategy, ok := imageStrategies[model]
		if !ok {
			return result{}, ErrUnknownImageModel
		}
		return strategy(ctx, e, in)
	case *types.LLMCallerData:
		return e.callLLM(ctx, d, in)
	}
	return result{}, ErrNotExecutable
}

func (e *Engine) callLLM(ctx context.Context, d *types.LLMCallerData, in Inputs) (result, error) {
	if e.text == nil {
		return result{}, fmt.Errorf("text generation %w", ErrNoProvider)
	}
	model := d.Model
	if model == "" {
		model = types.DefaultLLMModel
	}
	system := in.SystemPrompt
	if system == "" {
		system = d.SystemPrompt
	}
	out, err := e.text.GenerateText(ctx, providers.TextRequest{
		Model:             model,
		Prompt:            in.Prompt,
		SystemInstruction: system,
		Images:            in.Images,
	})
	if err != nil {
		return result{}, err
	}
	return result{Output: out}, nil
}

func fluxSchnell(ctx context.Context, e *Engine, in Inputs) (result, error) {
	if len(in.Images) > 0 {
		return result{}, ErrFluxTextOnly
	}
	if in.Prompt == "" {
		return result{}, ErrPromptRequired
	}
	if e.textToImage == nil {
		return result{}, fmt.Errorf("text-to-image %w", ErrNoProvider)
	}
	img, err := e.textToImage.TextToImage(ctx, providers.ImageRequest{
		Model:  e.fluxModel,
		Prompt: in.Prompt,
		Task:   providers.TaskTextToImage,
	})
	if err != nil {
		return result{}, err
	}
	return result{Output: img.DataURL()}, nil
}

func instructPix2Pix(context.Context, *Engine, Inputs) (result, error) {
	return result{}, ErrPix2PixDisabled
}

// pollinations renders by URL. Image inputs are first turned into a text
// description, since the service only takes a prompt.
func pollinations(ctx context.Context, e *Engine, in Inputs) (result, error) {
	if e.urlImager == nil {
		return result{}, fmt.Errorf("image %w", ErrNoProvider)
	}

	prompt := in.Prompt
	var description string
	if len(in.Images) > 0 && e.text == nil {
		return result{}, fmt.Errorf("image description %w", ErrNoProvider)
	}
	if len(in.Images) > 0 {
		out, err := e.text.GenerateText(ctx, providers.TextRequest{
			Model:  e.visionModel,
			Prompt: describePrompt,
			Images: in.Images,
		})
		if err != nil {
			return result{}, err
		}
		description = strings.TrimSpace(out)
		prompt = strings.TrimSpace(prompt + " " + description)
	}
	if prompt == "" {
		return result{}, ErrDescribeFailed
	}

	u, err := e.urlImager.ImageURL(ctx, providers.URLRequest{
		Prompt: prompt,
		Seed:   e.seed(),
		Width:  e.width,
		Height: e.height,
	})
	if err != nil {
		return result{}, err
	}
	return result{Output: u, Description: description}, nil
}

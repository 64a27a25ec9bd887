package providers

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// LangChain adapts any langchaingo model to TextGenerator, so providers
// without a dedicated client can back LLM caller nodes.
type LangChain struct {
	model llms.Model
}

func NewLangChain(model llms.Model) *LangChain {
	return &LangChain{model: model}
}

func (l *LangChain) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	messages, err := langChainMessages(req)
	if err != nil {
		return "", err
	}

	var opts []llms.CallOption
	if req.Model != "" {
		opts = append(opts, llms.WithModel(strings.TrimPrefix(req.Model, "models/")))
	}
	resp, err := l.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", &ProviderError{Provider: "langchain", Kind: KindUpstream, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

func langChainMessages(req TextRequest) ([]llms.MessageContent, error) {
	var parts []llms.ContentPart
	if req.Prompt != "" {
		parts = append(parts, llms.TextContent{Text: req.Prompt})
	}
	for _, img := range req.Images {
		switch {
		case strings.HasPrefix(img, "data:"):
			mime, raw, err := ParseDataURL(img)
			if err != nil {
				return nil, &ProviderError{Provider: "langchain", Kind: KindBadRequest, Err: err}
			}
			parts = append(parts, llms.BinaryPart(mime, raw))
		case strings.HasPrefix(img, "http"):
			parts = append(parts, llms.ImageURLPart(img))
		}
	}
	if len(parts) == 0 {
		return nil, &ProviderError{Provider: "langchain", Kind: KindBadRequest, Message: ErrNoInput.Error(), Err: ErrNoInput}
	}

	var messages []llms.MessageContent
	if req.SystemInstruction != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemInstruction))
	}
	messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeHuman, Parts: parts})
	return messages, nil
}

package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// EchoModel is an offline llms.Model that answers with a summary of what it
// was sent. It backs dry runs, where workflows are exercised without
// calling a real provider.
type EchoModel struct{}

var _ llms.Model = EchoModel{}

func (EchoModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	var system, prompt []string
	images := 0
	for _, m := range messages {
		for _, p := range m.Parts {
			switch part := p.(type) {
			case llms.TextContent:
				if m.Role == llms.ChatMessageTypeSystem {
					system = append(system, part.Text)
				} else {
					prompt = append(prompt, part.Text)
				}
			case llms.BinaryContent, llms.ImageURLContent:
				images++
			}
		}
	}

	var sb strings.Builder
	if opts.Model != "" {
		fmt.Fprintf(&sb, "[%s] ", opts.Model)
	}
	if len(system) > 0 {
		fmt.Fprintf(&sb, "(%s) ", strings.Join(system, " "))
	}
	sb.WriteString(strings.Join(prompt, " "))
	if images > 0 {
		fmt.Fprintf(&sb, " +%d image(s)", images)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: strings.TrimSpace(sb.String())}}}, nil
}

func (m EchoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	geminiProvider     = "gemini"
	geminiDefaultModel = "gemini-2.5-flash"
)

// Gemini generates text through the Gemini API, including image inputs.
type Gemini struct {
	models       *genai.Models
	defaultModel string
	logger       zerolog.Logger
}

type GeminiOption func(*geminiOptions)

type geminiOptions struct {
	model   string
	baseURL string
	timeout time.Duration
	logger  zerolog.Logger
}

// WithGeminiModel sets the model used when a request does not name one.
func WithGeminiModel(model string) GeminiOption {
	return func(o *geminiOptions) { o.model = model }
}

// WithGeminiBaseURL points the client at a different endpoint.
func WithGeminiBaseURL(u string) GeminiOption {
	return func(o *geminiOptions) { o.baseURL = u }
}

func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(o *geminiOptions) { o.timeout = d }
}

func WithGeminiLogger(l zerolog.Logger) GeminiOption {
	return func(o *geminiOptions) { o.logger = l }
}

// NewGemini creates a Gemini text generator for apiKey.
func NewGemini(ctx context.Context, apiKey string, opt ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	o := geminiOptions{model: geminiDefaultModel, logger: zerolog.Nop()}
	for _, fn := range opt {
		fn(&o)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(o.timeout),
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", geminiProvider, err)
	}
	return &Gemini{models: client.Models, defaultModel: o.model, logger: o.logger}, nil
}

// GenerateText sends the prompt and any base64 images as a single user turn.
func (g *Gemini) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	model := strings.TrimPrefix(req.Model, "models/")
	if model == "" {
		model = g.defaultModel
	}

	contents, err := geminiContents(req)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}

	g.logger.Debug().Str("model", model).Int("images", len(req.Images)).Msg("gemini generate")
	resp, err := g.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", geminiError(err)
	}
	return geminiText(resp), nil
}

// geminiContents builds the request turn. Only data URIs are forwarded as
// images; anything else is skipped.
func geminiContents(req TextRequest) ([]*genai.Content, error) {
	var parts []*genai.Part
	if req.Prompt != "" {
		parts = append(parts, &genai.Part{Text: req.Prompt})
	}
	for _, img := range req.Images {
		if !strings.Contains(img, "base64,") {
			continue
		}
		mime, raw, err := ParseDataURL(img)
		if err != nil {
			return nil, &ProviderError{Provider: geminiProvider, Kind: KindBadRequest, Err: err}
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: raw}})
	}
	if len(parts) == 0 {
		return nil, &ProviderError{Provider: geminiProvider, Kind: KindBadRequest, Message: ErrNoInput.Error(), Err: ErrNoInput}
	}
	return []*genai.Content{{Role: "user", Parts: parts}}, nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return &ProviderError{Provider: geminiProvider, Kind: KindUpstream, Err: err}
	}
	pe := &ProviderError{Provider: geminiProvider, Kind: kindForStatus(apiErr.Code), Status: apiErr.Code, Err: err}
	switch pe.Kind {
	case KindRateLimited:
		pe.Message = "Gemini quota exceeded. Please try again later."
	case KindUnauthorized:
		pe.Message = "Invalid Gemini API key. Please check your GEMINI_API_KEY."
	default:
		pe.Message = apiErr.Message
	}
	return pe
}

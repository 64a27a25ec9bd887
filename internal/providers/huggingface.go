package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	huggingFaceProvider   = "huggingface"
	HuggingFaceBaseURL    = "https://router.huggingface.co/hf-inference"
	FluxSchnellModel      = "black-forest-labs/FLUX.1-schnell"
	maxHuggingFaceErrBody = 4 << 10
)

// HuggingFace renders prompts with models hosted on the HuggingFace
// inference API.
type HuggingFace struct {
	token   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHuggingFace creates a text-to-image client. An empty baseURL selects
// the public inference router.
func NewHuggingFace(token, baseURL string, timeout time.Duration, logger zerolog.Logger) *HuggingFace {
	if baseURL == "" {
		baseURL = HuggingFaceBaseURL
	}
	return &HuggingFace{
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpClient(timeout),
		logger:  logger,
	}
}

// TextToImage posts the prompt to the model endpoint and returns the image bytes.
func (h *HuggingFace) TextToImage(ctx context.Context, req ImageRequest) (Image, error) {
	if req.Task != "" && req.Task != TaskTextToImage {
		return Image{}, &ProviderError{Provider: huggingFaceProvider, Kind: KindBadRequest, Message: "Image-to-image not supported yet"}
	}

	body, err := json.Marshal(map[string]string{"inputs": req.Prompt})
	if err != nil {
		return Image{}, err
	}
	url := fmt.Sprintf("%s/models/%s", h.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Image{}, fmt.Errorf("build huggingface request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/jpeg")
	if h.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Image{}, &ProviderError{Provider: huggingFaceProvider, Kind: KindUpstream, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxHuggingFaceErrBody))
		h.logger.Warn().Int("status", resp.StatusCode).Str("model", req.Model).Bytes("body", msg).Msg("huggingface request failed")
		return Image{}, huggingFaceError(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, &ProviderError{Provider: huggingFaceProvider, Kind: KindUpstream, Err: err}
	}
	mime := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return Image{MIMEType: mime, Data: data}, nil
}

func huggingFaceError(status int) error {
	pe := &ProviderError{Provider: huggingFaceProvider, Kind: kindForStatus(status), Status: status}
	switch pe.Kind {
	case KindRateLimited:
		pe.Message = "HuggingFace quota exceeded. Please try again later."
	case KindUnauthorized:
		pe.Message = "Invalid HuggingFace token. Please check your HF_TOKEN."
	default:
		pe.Message = fmt.Sprintf("HuggingFace error: %d", status)
	}
	return pe
}

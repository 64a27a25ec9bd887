package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	pollinationsProvider = "pollinations"
	PollinationsBaseURL  = "https://image.pollinations.ai"
)

// Pollinations addresses generated images by URL. The image is rendered on
// first fetch, so ImageURL requests it once and only returns the URL when
// the service answered with an image.
type Pollinations struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewPollinations(baseURL string, timeout time.Duration, logger zerolog.Logger) *Pollinations {
	if baseURL == "" {
		baseURL = PollinationsBaseURL
	}
	return &Pollinations{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpClient(timeout),
		logger:  logger,
	}
}

// BuildURL returns the image URL for req without contacting the service.
func (p *Pollinations) BuildURL(req URLRequest) string {
	q := url.Values{}
	q.Set("nologo", "true")
	q.Set("private", "true")
	q.Set("seed", fmt.Sprint(req.Seed))
	q.Set("width", fmt.Sprint(req.Width))
	q.Set("height", fmt.Sprint(req.Height))
	return fmt.Sprintf("%s/prompt/%s?%s", p.baseURL, url.PathEscape(req.Prompt), q.Encode())
}

func (p *Pollinations) ImageURL(ctx context.Context, req URLRequest) (string, error) {
	u := p.BuildURL(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build pollinations request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: pollinationsProvider, Kind: KindUpstream, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn().Int("status", resp.StatusCode).Msg("pollinations request failed")
		pe := &ProviderError{Provider: pollinationsProvider, Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}
		if pe.Kind == KindRateLimited {
			pe.Message = "Pollinations rate limit reached. Please try again later."
		} else {
			pe.Message = fmt.Sprintf("Pollinations error: %d", resp.StatusCode)
		}
		return "", pe
	}
	return u, nil
}

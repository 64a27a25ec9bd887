// Package providers contains the remote collaborators nodes call to
// generate text and images.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// TextRequest asks a text model for a completion, optionally multimodal.
type TextRequest struct {
	Model             string   `json:"model"`
	Prompt            string   `json:"prompt"`
	SystemInstruction string   `json:"systemInstruction,omitempty"`
	Images            []string `json:"images,omitempty"`
}

// TextGenerator produces text from a prompt and optional images.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// TaskTextToImage is the only task ImageRequest currently supports.
const TaskTextToImage = "text-to-image"

// ImageRequest asks a hosted model to render a prompt.
type ImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Task   string `json:"task"`
}

// Image is raw image bytes with their content type.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL encodes the image as a data: URI.
func (i Image) DataURL() string {
	return BuildDataURL(i.MIMEType, i.Data)
}

// TextToImage renders a prompt into image bytes.
type TextToImage interface {
	TextToImage(ctx context.Context, req ImageRequest) (Image, error)
}

// URLRequest describes an image addressed by URL.
type URLRequest struct {
	Prompt string
	Seed   int
	Width  int
	Height int
}

// URLImager returns a URL at which a rendered image can be fetched.
type URLImager interface {
	ImageURL(ctx context.Context, req URLRequest) (string, error)
}

// ErrNoInput is returned when a request carries neither prompt nor image.
var ErrNoInput = errors.New("Request must contain at least a prompt or an image.")

// ErrorKind classifies remote failures.
type ErrorKind string

const (
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnauthorized ErrorKind = "unauthorized"
	KindBadRequest   ErrorKind = "bad_request"
	KindUpstream     ErrorKind = "upstream"
)

// ProviderError is a failure reported by a remote collaborator. Message is
// meant to be shown to users as is.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s error: %d", e.Provider, e.Status)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a provider quota failure.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindRateLimited
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status >= 400 && status < 500:
		return KindBadRequest
	}
	return KindUpstream
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

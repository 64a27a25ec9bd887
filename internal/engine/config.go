package engine

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/pkg/types"
)

const (
	defaultTimeout      = 2 * time.Minute
	defaultHistoryLimit = 20
	defaultDragDebounce = 100 * time.Millisecond
	defaultImageSize    = 1024
	maxSeed             = 999999
)

func NewConfig(opt ...ConfigOption) types.Config {
	opts := types.Config{
		Timeout:      defaultTimeout,
		HistoryLimit: defaultHistoryLimit,
		DragDebounce: defaultDragDebounce,
	}
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

type ConfigOption func(*types.Config)

// WithTimeout sets the per-run deadline
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *types.Config) {
		c.Timeout = timeout
	}
}

// WithHistoryLimit sets the number of undo snapshots kept per workflow
func WithHistoryLimit(limit int) ConfigOption {
	return func(c *types.Config) {
		c.HistoryLimit = limit
	}
}

// WithDragDebounce sets the trailing window that coalesces drags
func WithDragDebounce(d time.Duration) ConfigOption {
	return func(c *types.Config) {
		c.DragDebounce = d
	}
}

// WithDebug enables execution tracing
func WithDebug() ConfigOption {
	return func(c *types.Config) {
		c.Debug = true
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithConfig replaces the runtime configuration
func WithConfig(cfg types.Config) Option {
	return func(e *Engine) {
		e.config = cfg.Clone()
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTextGenerator sets the collaborator used by LLM caller nodes and for
// describing image inputs
func WithTextGenerator(g providers.TextGenerator) Option {
	return func(e *Engine) {
		e.text = g
	}
}

func WithTextToImage(g providers.TextToImage) Option {
	return func(e *Engine) {
		e.textToImage = g
	}
}

func WithURLImager(g providers.URLImager) Option {
	return func(e *Engine) {
		e.urlImager = g
	}
}

// WithVisionModel sets the model asked to describe image inputs
func WithVisionModel(model string) Option {
	return func(e *Engine) {
		e.visionModel = model
	}
}

// WithFluxModel overrides the hosted model behind the flux-schnell strategy
func WithFluxModel(model string) Option {
	return func(e *Engine) {
		e.fluxModel = model
	}
}

// WithImageSize sets the dimensions requested from URL image providers
func WithImageSize(width, height int) Option {
	return func(e *Engine) {
		e.width, e.height = width, height
	}
}

// WithSeed overrides the seed source for URL image providers
func WithSeed(seed func() int) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

func randomSeed() int {
	return rand.IntN(maxSeed)
}

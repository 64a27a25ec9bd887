package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/avi3tal/weaveflow/internal/config"
	"github.com/avi3tal/weaveflow/internal/engine"
	"github.com/avi3tal/weaveflow/internal/providers"
	"github.com/avi3tal/weaveflow/internal/session"
	"github.com/avi3tal/weaveflow/internal/storage"
)

// engineOptions builds the provider set from configuration. In a dry run
// text generation is answered offline and image providers are left out.
func engineOptions(ctx context.Context, cfg *config.Config, log zerolog.Logger, dryRun bool) ([]engine.Option, error) {
	opts := []engine.Option{
		engine.WithVisionModel(cfg.Gemini.VisionModel),
		engine.WithImageSize(cfg.Pollinations.Width, cfg.Pollinations.Height),
		engine.WithFluxModel(cfg.HuggingFace.Model),
	}

	if dryRun {
		log.Info().Msg("dry run: text nodes answer offline, image nodes have no provider")
		return append(opts, engine.WithTextGenerator(providers.NewLangChain(providers.EchoModel{}))), nil
	}

	if cfg.Gemini.APIKey != "" {
		gemini, err := providers.NewGemini(ctx, cfg.Gemini.APIKey,
			providers.WithGeminiModel(cfg.Gemini.Model),
			providers.WithGeminiTimeout(cfg.Engine.Timeout),
			providers.WithGeminiLogger(log.With().Str("provider", "gemini").Logger()),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithTextGenerator(gemini))
	} else {
		log.Warn().Msg("GEMINI_API_KEY is not set; LLM nodes will fail")
	}

	opts = append(opts,
		engine.WithTextToImage(providers.NewHuggingFace(cfg.HuggingFace.Token, cfg.HuggingFace.BaseURL, cfg.Engine.Timeout,
			log.With().Str("provider", "huggingface").Logger())),
		engine.WithURLImager(providers.NewPollinations(cfg.Pollinations.BaseURL, cfg.Engine.Timeout,
			log.With().Str("provider", "pollinations").Logger())),
	)
	return opts, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	l := log.With().Str("component", "storage").Logger()
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(storage.WithLogger(l)), nil
	case config.DriverSQLite:
		s, err := storage.OpenSQLite(ctx, cfg.Storage.Path, storage.WithLogger(l))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func sessionOptions(cfg *config.Config, log zerolog.Logger, engineOpts []engine.Option) []session.Option {
	return []session.Option{
		session.WithConfig(cfg.Runtime()),
		session.WithLogger(log),
		session.WithEngineOptions(engineOpts...),
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/verse-reader/speech-relay/internal/cache"
	"github.com/verse-reader/speech-relay/internal/config"
	"github.com/verse-reader/speech-relay/internal/googletts"
	"github.com/verse-reader/speech-relay/internal/simplify"
)

// newSynthesizer returns the stub or a Cloud client. The closer is nil for
// the stub.
func newSynthesizer(ctx context.Context, cfg config.Config, logger *slog.Logger) (googletts.Synthesizer, io.Closer, error) {
	if cfg.UseStubSynthesizer {
		logger.Info("using STUB synthesizer, responses are silent and NOT from Cloud Text-to-Speech")
		return googletts.NewStubSynthesizer(logger), nil, nil
	}
	client, err := googletts.NewClient(ctx, googletts.Options{
		CredentialsJSON: cfg.CredentialsJSON,
		CredentialsFile: cfg.CredentialsFile,
		Endpoint:        cfg.TTSEndpoint,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Cloud Text-to-Speech client initialized", "inline_credentials", cfg.CredentialsJSON != "")
	return client, client, nil
}

// newSimplifier returns nil when simplification is disabled.
func newSimplifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (simplify.Simplifier, error) {
	if !cfg.SimplifyEnabled() {
		logger.Info("text simplification disabled")
		return nil, nil
	}
	switch cfg.SimplifyProvider {
	case config.ProviderStub:
		logger.Info("using STUB simplifier")
		return simplify.NewStub(logger), nil
	case config.ProviderGemini:
		g, err := simplify.NewGemini(ctx, simplify.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Gemini simplifier initialized", "model", cfg.GeminiModel)
		return g, nil
	case config.ProviderOpenAI:
		o, err := simplify.NewOpenAI(simplify.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			MaxRetries: cfg.OpenAIMaxRetries,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("OpenAI simplifier initialized", "model", cfg.OpenAIModel)
		return o, nil
	}
	return nil, fmt.Errorf("unknown simplify provider %q", cfg.SimplifyProvider)
}

// newStore picks Redis over the disk cache. Cache failures are logged and the
// relay continues without a cache. The closer may be nil.
func newStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.Store, io.Closer) {
	if cfg.RedisURL != "" {
		r, err := cache.OpenRedis(ctx, cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("failed to connect to redis, continuing without cache", "error", err)
			return nil, nil
		}
		logger.Info("redis cache initialized", "ttl", cfg.CacheTTL)
		return r, r
	}
	if cfg.CacheMaxSizeMB > 0 && cfg.CacheDir != "" {
		d, err := cache.NewDisk(cfg.CacheDir, int64(cfg.CacheMaxSizeMB)*1024*1024, logger)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without", "error", err)
			return nil, nil
		}
		logger.Info("audio cache initialized",
			"dir", cfg.CacheDir,
			"max_size_mb", cfg.CacheMaxSizeMB,
			"entries", d.Len(),
		)
		return d, nil
	}
	return nil, nil
}

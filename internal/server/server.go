package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/verse-reader/speech-relay/internal/cache"
	"github.com/verse-reader/speech-relay/internal/config"
	"github.com/verse-reader/speech-relay/internal/googletts"
	"github.com/verse-reader/speech-relay/internal/simplify"
	"github.com/verse-reader/speech-relay/internal/telemetry"
)

const providerGoogleTTS = "google-tts"

// Server serves the relay HTTP API on top of a Synthesizer and an optional
// Simplifier.
type Server struct {
	cfg        config.Config
	log        *slog.Logger
	synth      googletts.Synthesizer
	simplifier simplify.Simplifier // nil when simplification is disabled
	metrics    *telemetry.Recorder
	cache      cache.Store // nil when caching is disabled
	tracer     trace.Tracer
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, synth googletts.Synthesizer, simplifier simplify.Simplifier, metrics *telemetry.Recorder, store cache.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if synth == nil {
		panic("server: synthesizer must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = config.DefaultMaxTextBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = config.DefaultRequestTimeout
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = config.DefaultLanguage
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"voice_name", cfg.VoiceName,
			"audio_encoding", cfg.AudioEncoding,
		),
		synth:      synth,
		simplifier: simplifier,
		metrics:    metrics,
		cache:      store,
		tracer:     otel.Tracer("github.com/verse-reader/speech-relay/internal/server"),
	}
}

// Routes returns the API mux without cross-cutting middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tts", s.handleTTS)
	mux.HandleFunc("POST /api/tts/audio", s.handleTTSAudio)
	mux.HandleFunc("POST /api/simplify", s.handleSimplify)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("/api/", handleUnmatchedAPI)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /version", handleVersion)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Wrap applies the standard middleware stack around next. The rate limiter
// sweeper runs until ctx is cancelled.
func Wrap(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *telemetry.Recorder, next http.Handler) http.Handler {
	middlewares := []Middleware{
		RequestID(),
		RequestLogger(logger.With("component", "http")),
		Metrics(metrics),
		Recovery(logger),
		Generator(),
		CORS(cfg.AllowedOrigins),
	}
	if cfg.RateLimitRPS > 0 {
		middlewares = append(middlewares, RateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	return Chain(next, middlewares...)
}

// synthesize runs one synthesis through the cache.
func (s *Server) synthesize(ctx context.Context, req googletts.SynthesizeRequest, logEntry *slog.Logger) (*googletts.Result, error) {
	var key string
	if s.cache != nil {
		input := req.Text
		if req.SSML != "" {
			input = req.SSML
		}
		key = cache.Key(cache.KeyParams{
			Text:         input,
			LanguageCode: req.LanguageCode,
			VoiceName:    req.VoiceName,
			Gender:       req.Gender,
			Encoding:     req.Encoding,
			SpeakingRate: req.SpeakingRate,
			Marks:        req.EnableMarks,
		})
		if data, ok := s.cache.Get(ctx, key); ok {
			var cached googletts.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				s.metrics.CacheLookup(true)
				logEntry.Info("cache hit", "key", key)
				return &cached, nil
			}
			logEntry.Warn("discarding unreadable cache entry", "key", key)
		}
		s.metrics.CacheLookup(false)
	}

	ctx, span := s.tracer.Start(ctx, "googletts.Synthesize", trace.WithAttributes(
		attribute.String("tts.language_code", req.LanguageCode),
		attribute.Bool("tts.marks", req.EnableMarks),
		attribute.Int("tts.input_bytes", len(req.Text)+len(req.SSML)),
	))
	defer span.End()

	start := time.Now()
	result, err := s.synth.Synthesize(ctx, req)
	s.metrics.Upstream(providerGoogleTTS, "synthesize", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	logEntry.Info("synthesis completed",
		"audio_bytes", len(result.Audio),
		"timepoints", len(result.Timepoints),
		"duration_sec", time.Since(start).Seconds(),
	)

	if s.cache != nil {
		data, err := json.Marshal(result)
		if err == nil {
			err = s.cache.Put(ctx, key, data)
		}
		if err != nil {
			logEntry.Warn("failed to store in cache", "error", err)
		}
	}
	return result, nil
}

// simplifyText rewrites text with the configured backend.
func (s *Server) simplifyText(ctx context.Context, req simplify.Request) (string, error) {
	if s.simplifier == nil {
		return "", simplify.ErrNoProvider
	}

	provider := s.simplifier.Name()
	ctx, span := s.tracer.Start(ctx, "simplify.Simplify", trace.WithAttributes(
		attribute.String("simplify.provider", provider),
		attribute.String("simplify.level", req.Level),
	))
	defer span.End()

	start := time.Now()
	out, err := s.simplifier.Simplify(ctx, req)
	s.metrics.Upstream(provider, "simplify", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

func (s *Server) voices(ctx context.Context, languageCode string) ([]googletts.Voice, error) {
	ctx, span := s.tracer.Start(ctx, "googletts.Voices")
	defer span.End()

	start := time.Now()
	voices, err := s.synth.Voices(ctx, languageCode)
	s.metrics.Upstream(providerGoogleTTS, "voices", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return voices, err
}

// upstreamStatus maps an upstream failure to the HTTP status reported to the
// client.
func upstreamStatus(err error) int {
	switch {
	case errors.Is(err, simplify.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.Is(err, googletts.ErrEmptyText), errors.Is(err, simplify.ErrEmptyText):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

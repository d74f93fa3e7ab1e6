package simplify

import (
	"context"
	"log/slog"
	"strings"
)

// Stub returns the input with whitespace collapsed. It stands in for a real
// model in CI and offline runs.
type Stub struct {
	log *slog.Logger
}

// NewStub returns a deterministic Simplifier.
func NewStub(logger *slog.Logger) *Stub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stub{log: logger}
}

// Name identifies the backend in logs and metrics.
func (s *Stub) Name() string { return "stub" }

// Simplify echoes the normalized text.
func (s *Stub) Simplify(_ context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}
	out := strings.Join(strings.Fields(req.Text), " ")
	s.log.Info("stub simplification", "text_length", len(req.Text), "language", req.Language)
	return out, nil
}

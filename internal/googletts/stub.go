package googletts

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/verse-reader/speech-relay/internal/ssml"
)

// StubMarkInterval is the synthetic spacing between reported marks.
const StubMarkInterval = 0.3

var markPattern = regexp.MustCompile(`<mark\s+name="([^"]*)"\s*/>`)

// StubSynthesizer implements Synthesizer with deterministic output (silence
// and evenly spaced timepoints). It is intended for CI and offline work
// where Cloud Text-to-Speech is unavailable.
type StubSynthesizer struct {
	log *slog.Logger
}

// NewStubSynthesizer returns a stub that generates silent audio proportional
// to the input length.
func NewStubSynthesizer(logger *slog.Logger) *StubSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubSynthesizer{log: logger}
}

// Synthesize returns len(input)*32 zero bytes. When marks are enabled every
// SSML mark is reported StubMarkInterval seconds after the previous one.
func (s *StubSynthesizer) Synthesize(_ context.Context, req SynthesizeRequest) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	input := req.Text
	if req.SSML != "" {
		input = req.SSML
	}

	result := &Result{
		Audio:    make([]byte, len(input)*32),
		MIMEType: MIMEType(req.Encoding),
	}
	if req.EnableMarks && req.SSML != "" {
		for i, m := range markPattern.FindAllStringSubmatch(req.SSML, -1) {
			result.Timepoints = append(result.Timepoints, ssml.Timepoint{
				MarkName: m[1],
				Seconds:  float64(i) * StubMarkInterval,
			})
		}
	}

	s.log.Info("stub synthesis",
		"input_length", len(input),
		"language", LanguageCode(req.LanguageCode),
		"bytes", len(result.Audio),
		"timepoints", len(result.Timepoints),
	)
	return result, nil
}

// Voices returns one neutral voice per requested language.
func (s *StubSynthesizer) Voices(_ context.Context, languageCode string) ([]Voice, error) {
	codes := []string{"en-US", "nl-NL"}
	if languageCode != "" {
		codes = []string{LanguageCode(languageCode)}
	}
	voices := make([]Voice, 0, len(codes))
	for _, code := range codes {
		voices = append(voices, Voice{
			Name:                   code + "-Stub-A",
			LanguageCodes:          []string{code},
			Gender:                 DefaultGender,
			NaturalSampleRateHertz: 24000,
		})
	}
	return voices, nil
}

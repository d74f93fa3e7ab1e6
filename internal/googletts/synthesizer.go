package googletts

import (
	"context"
	"errors"

	"github.com/verse-reader/speech-relay/internal/ssml"
)

// ErrEmptyText is returned when a request carries neither text nor SSML.
var ErrEmptyText = errors.New("googletts: text or ssml is required")

// Synthesizer abstracts the Cloud Text-to-Speech API so that the server
// can be tested with a mock implementation.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) (*Result, error)
	Voices(ctx context.Context, languageCode string) ([]Voice, error)
}

// SynthesizeRequest describes a single synthesis call. Exactly one of Text
// and SSML is sent upstream; SSML wins when both are set.
type SynthesizeRequest struct {
	Text         string
	SSML         string
	LanguageCode string
	VoiceName    string
	Gender       string
	Encoding     string
	SpeakingRate float64

	// EnableMarks asks the engine to report SSML mark timepoints.
	EnableMarks bool
}

// Result holds synthesized audio plus any timepoints.
type Result struct {
	Audio      []byte           `json:"audio"`
	Timepoints []ssml.Timepoint `json:"timepoints,omitempty"`
	MIMEType   string           `json:"mime_type"`
}

// Voice describes a voice offered by the engine.
type Voice struct {
	Name                   string   `json:"name"`
	LanguageCodes          []string `json:"language_codes"`
	Gender                 string   `json:"gender"`
	NaturalSampleRateHertz int32    `json:"natural_sample_rate_hertz"`
}

func validate(req SynthesizeRequest) error {
	if req.Text == "" && req.SSML == "" {
		return ErrEmptyText
	}
	return nil
}

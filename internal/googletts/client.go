package googletts

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	transportgrpc "google.golang.org/api/transport/grpc"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1beta1"
	"google.golang.org/grpc"

	"github.com/verse-reader/speech-relay/internal/ssml"
)

const (
	defaultEndpoint = "texttospeech.googleapis.com:443"
	cloudScope      = "https://www.googleapis.com/auth/cloud-platform"
)

// Options selects credentials and endpoint for the Cloud client. With all
// fields empty the client falls back to Application Default Credentials.
type Options struct {
	// CredentialsJSON is a service account key passed inline. It is handed to
	// the SDK directly and never written to disk.
	CredentialsJSON string
	CredentialsFile string
	Endpoint        string
}

// Client wraps the Cloud Text-to-Speech v1beta1 API, the only version that
// reports SSML mark timepoints.
type Client struct {
	conn *grpc.ClientConn
	tts  texttospeechpb.TextToSpeechClient
}

// NewClient dials Cloud Text-to-Speech. Extra options are appended after the
// ones derived from opts, so tests can inject a connection.
func NewClient(ctx context.Context, opts Options, extra ...option.ClientOption) (*Client, error) {
	clientOpts := []option.ClientOption{option.WithScopes(cloudScope)}
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	clientOpts = append(clientOpts, extra...)

	conn, err := transportgrpc.Dial(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("googletts: dial %s: %w", endpoint, err)
	}
	return &Client{conn: conn, tts: texttospeechpb.NewTextToSpeechClient(conn)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Synthesize performs one SynthesizeSpeech call.
func (c *Client) Synthesize(ctx context.Context, req SynthesizeRequest) (*Result, error) {
	pbReq, err := buildRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.tts.SynthesizeSpeech(ctx, pbReq)
	if err != nil {
		return nil, fmt.Errorf("googletts: synthesize: %w", err)
	}

	result := &Result{
		Audio:    resp.GetAudioContent(),
		MIMEType: MIMEType(pbReq.GetAudioConfig().GetAudioEncoding().String()),
	}
	for _, tp := range resp.GetTimepoints() {
		result.Timepoints = append(result.Timepoints, ssml.Timepoint{
			MarkName: tp.GetMarkName(),
			Seconds:  tp.GetTimeSeconds(),
		})
	}
	return result, nil
}

// Voices lists the voices available for languageCode, or all voices when it
// is empty.
func (c *Client) Voices(ctx context.Context, languageCode string) ([]Voice, error) {
	resp, err := c.tts.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: languageCode})
	if err != nil {
		return nil, fmt.Errorf("googletts: list voices: %w", err)
	}
	voices := make([]Voice, 0, len(resp.GetVoices()))
	for _, v := range resp.GetVoices() {
		voices = append(voices, Voice{
			Name:                   v.GetName(),
			LanguageCodes:          v.GetLanguageCodes(),
			Gender:                 v.GetSsmlGender().String(),
			NaturalSampleRateHertz: v.GetNaturalSampleRateHertz(),
		})
	}
	return voices, nil
}

func buildRequest(req SynthesizeRequest) (*texttospeechpb.SynthesizeSpeechRequest, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	gender, err := parseGender(req.Gender)
	if err != nil {
		return nil, err
	}
	encoding, err := parseEncoding(req.Encoding)
	if err != nil {
		return nil, err
	}

	input := &texttospeechpb.SynthesisInput{}
	if req.SSML != "" {
		input.InputSource = &texttospeechpb.SynthesisInput_Ssml{Ssml: req.SSML}
	} else {
		input.InputSource = &texttospeechpb.SynthesisInput_Text{Text: req.Text}
	}

	pbReq := &texttospeechpb.SynthesizeSpeechRequest{
		Input: input,
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: LanguageCode(req.LanguageCode),
			Name:         req.VoiceName,
			SsmlGender:   gender,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: encoding,
			SpeakingRate:  req.SpeakingRate,
		},
	}
	if req.EnableMarks {
		pbReq.EnableTimePointing = []texttospeechpb.SynthesizeSpeechRequest_TimepointType{
			texttospeechpb.SynthesizeSpeechRequest_SSML_MARK,
		}
	}
	return pbReq, nil
}

func parseGender(value string) (texttospeechpb.SsmlVoiceGender, error) {
	if value == "" {
		value = DefaultGender
	}
	v, ok := texttospeechpb.SsmlVoiceGender_value[strings.ToUpper(value)]
	if !ok {
		return 0, fmt.Errorf("googletts: unknown voice gender %q", value)
	}
	return texttospeechpb.SsmlVoiceGender(v), nil
}

func parseEncoding(value string) (texttospeechpb.AudioEncoding, error) {
	if value == "" {
		value = DefaultEncoding
	}
	v, ok := texttospeechpb.AudioEncoding_value[strings.ToUpper(value)]
	if !ok || v == int32(texttospeechpb.AudioEncoding_AUDIO_ENCODING_UNSPECIFIED) {
		return 0, fmt.Errorf("googletts: unknown audio encoding %q", value)
	}
	return texttospeechpb.AudioEncoding(v), nil
}

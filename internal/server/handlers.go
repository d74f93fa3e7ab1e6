package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/verse-reader/speech-relay/internal/buildinfo"
	"github.com/verse-reader/speech-relay/internal/googletts"
	"github.com/verse-reader/speech-relay/internal/simplify"
	"github.com/verse-reader/speech-relay/internal/ssml"
)

const maxBodyBytes = 1 << 20

// ttsRequest is the body accepted by the synthesis endpoints.
type ttsRequest struct {
	Text         string  `json:"text"`
	Language     string  `json:"language"`
	Voice        string  `json:"voice"`
	SpeakingRate float64 `json:"speaking_rate"`
	Simplify     bool    `json:"simplify"`
	Level        string  `json:"level"`
}

type ttsResponse struct {
	AudioContent   string            `json:"audio_content"`
	Timepoints     []ssml.Timepoint  `json:"timepoints"`
	Words          []string          `json:"words"`
	WordTimings    []ssml.WordTiming `json:"word_timings"`
	SimplifiedText string            `json:"simplified_text,omitempty"`
}

type simplifyRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Level    string `json:"level"`
}

type simplifyResponse struct {
	SimplifiedText string `json:"simplified_text"`
	Provider       string `json:"provider"`
}

// handleTTS synthesizes text with one SSML mark per word and returns the
// audio together with the mark timepoints.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	language := s.language(req.Language)
	languageCode := googletts.LanguageCode(language)
	logEntry := s.log.With(
		"request_id", RequestIDFromContext(ctx),
		"language", languageCode,
		"text_length", len(req.Text),
	)
	logEntry.Info("synthesis request received", "simplify", req.Simplify)

	text := req.Text
	var simplified string
	if req.Simplify {
		out, err := s.simplifyText(ctx, simplify.Request{Text: text, Language: language, Level: req.Level})
		if err != nil {
			logEntry.Error("simplification failed", "error", err)
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		simplified, text = out, out
	}

	words := ssml.Words(text)
	if len(words) == 0 {
		writeError(w, http.StatusBadRequest, "Missing 'text' in request")
		return
	}
	synthReq := s.synthesisRequest(req, languageCode)
	synthReq.SSML = ssml.Marked(words)
	synthReq.EnableMarks = true

	result, err := s.synthesize(ctx, synthReq, logEntry)
	if err != nil {
		logEntry.Error("synthesis failed", "error", err)
		writeError(w, upstreamStatus(err), err.Error())
		return
	}

	timepoints := result.Timepoints
	if timepoints == nil {
		timepoints = []ssml.Timepoint{}
	}
	writeJSON(w, http.StatusOK, ttsResponse{
		AudioContent:   base64.StdEncoding.EncodeToString(result.Audio),
		Timepoints:     timepoints,
		Words:          words,
		WordTimings:    ssml.Align(words, timepoints),
		SimplifiedText: simplified,
	})
}

// handleTTSAudio synthesizes plain text and returns the audio file itself.
func (s *Server) handleTTSAudio(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	language := s.language(req.Language)
	languageCode := googletts.LanguageCode(language)
	logEntry := s.log.With(
		"request_id", RequestIDFromContext(ctx),
		"language", languageCode,
		"text_length", len(req.Text),
	)
	logEntry.Info("audio request received", "simplify", req.Simplify)

	text := req.Text
	if req.Simplify {
		out, err := s.simplifyText(ctx, simplify.Request{Text: text, Language: language, Level: req.Level})
		if err != nil {
			logEntry.Error("simplification failed", "error", err)
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		text = out
	}

	synthReq := s.synthesisRequest(req, languageCode)
	synthReq.Text = text
	result, err := s.synthesize(ctx, synthReq, logEntry)
	if err != nil {
		logEntry.Error("synthesis failed", "error", err)
		writeError(w, upstreamStatus(err), err.Error())
		return
	}

	contentType := result.MIMEType
	if contentType == "" {
		contentType = googletts.MIMEType(synthReq.Encoding)
	}
	filename := "verse_" + uuid.NewString() + googletts.FileExtension(synthReq.Encoding)

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(result.Audio)))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Audio); err != nil {
		logEntry.Warn("failed to write audio", "error", err)
	}
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	if s.simplifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Text simplification is not configured")
		return
	}

	var req simplifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	logEntry := s.log.With(
		"request_id", RequestIDFromContext(ctx),
		"provider", s.simplifier.Name(),
		"text_length", len(req.Text),
	)

	out, err := s.simplifyText(ctx, simplify.Request{
		Text:     req.Text,
		Language: s.language(req.Language),
		Level:    req.Level,
	})
	if err != nil {
		logEntry.Error("simplification failed", "error", err)
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	logEntry.Info("simplification completed", "output_length", len(out))
	writeJSON(w, http.StatusOK, simplifyResponse{SimplifiedText: out, Provider: s.simplifier.Name()})
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	language := strings.TrimSpace(r.URL.Query().Get("language"))
	voices, err := s.voices(ctx, language)
	if err != nil {
		s.log.Error("listing voices failed",
			"request_id", RequestIDFromContext(ctx),
			"language", language,
			"error", err,
		)
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	if voices == nil {
		voices = []googletts.Voice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": voices})
}

// apiMethods lists the method each API route accepts.
var apiMethods = map[string]string{
	"/api/tts":       http.MethodPost,
	"/api/tts/audio": http.MethodPost,
	"/api/simplify":  http.MethodPost,
	"/api/voices":    http.MethodGet,
}

// handleUnmatchedAPI keeps the JSON error shape for requests the mux has no
// route for.
func handleUnmatchedAPI(w http.ResponseWriter, r *http.Request) {
	if method, ok := apiMethods[r.URL.Path]; ok {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeError(w, http.StatusNotFound, "Not found")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":      buildinfo.Info.Name,
		"version":   buildinfo.Version(),
		"generator": buildinfo.Info.GeneratorID,
	})
}

// textBody is implemented by request bodies that carry text to check.
type textBody interface {
	text() string
}

func (r ttsRequest) text() string      { return r.Text }
func (r simplifyRequest) text() string { return r.Text }

// decode reads a JSON body into dst and validates its text. It writes the
// error response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst textBody) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "Missing 'text' in request")
		return false
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}

	text := dst.text()
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "Missing 'text' in request")
		return false
	}
	if len(text) > s.cfg.MaxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Text exceeds the %d byte limit", s.cfg.MaxTextBytes))
		return false
	}
	return true
}

func (s *Server) language(requested string) string {
	if lang := strings.TrimSpace(requested); lang != "" {
		return lang
	}
	return s.cfg.DefaultLanguage
}

func (s *Server) synthesisRequest(req ttsRequest, languageCode string) googletts.SynthesizeRequest {
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = s.cfg.VoiceName
	}
	rate := req.SpeakingRate
	if rate == 0 {
		rate = s.cfg.SpeakingRate
	}
	return googletts.SynthesizeRequest{
		LanguageCode: languageCode,
		VoiceName:    voice,
		Gender:       s.cfg.VoiceGender,
		Encoding:     s.cfg.AudioEncoding,
		SpeakingRate: rate,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

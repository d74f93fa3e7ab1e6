package simplify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInstruction(t *testing.T) {
	tests := []struct {
		language, level string
		wantLang        string
		wantAudience    string
	}{
		{"en", "", "simple English", "basic literacy"},
		{"nl", "child", "simple Dutch", "child"},
		{"nl-NL", "easy", "simple Dutch", "basic literacy"},
		{"", "", "simple English", "basic literacy"},
		{"sv", "", "simple sv", "basic literacy"},
	}
	for _, tt := range tests {
		got := Instruction(tt.language, tt.level)
		if !strings.Contains(got, tt.wantLang) {
			t.Errorf("Instruction(%q, %q) = %q, want it to mention %q", tt.language, tt.level, got, tt.wantLang)
		}
		if !strings.Contains(got, tt.wantAudience) {
			t.Errorf("Instruction(%q, %q) = %q, want it to mention %q", tt.language, tt.level, got, tt.wantAudience)
		}
	}
}

func TestStubSimplify(t *testing.T) {
	s := NewStub(nil)
	got, err := s.Simplify(context.Background(), Request{Text: "  In   the\nbeginning  "})
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if got != "In the beginning" {
		t.Errorf("Simplify = %q, want %q", got, "In the beginning")
	}
	if _, err := s.Simplify(context.Background(), Request{Text: "   "}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
}

func TestGeminiSimplify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("path = %q, want generateContent on test-model", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "g-key" {
			t.Errorf("x-goog-api-key = %q, want g-key", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "And God said") {
			t.Errorf("request body missing text: %s", body)
		}
		if !strings.Contains(string(body), "simple Dutch") {
			t.Errorf("request body missing instruction: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"  God sprak.  "}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{
		APIKey:     "g-key",
		Model:      "test-model",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	got, err := g.Simplify(context.Background(), Request{Text: "And God said", Language: "nl"})
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if got != "God sprak." {
		t.Errorf("Simplify = %q, want %q", got, "God sprak.")
	}
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), GeminiOptions{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestOpenAISimplify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload.Model != "gpt-test" {
			t.Errorf("model = %q, want gpt-test", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" || payload.Messages[1].Content != "Let there be light" {
			t.Errorf("messages = %+v", payload.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Light came."}}]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAI(OpenAIOptions{
		APIKey:     "sk-test",
		Model:      "gpt-test",
		BaseURL:    srv.URL + "/v1/",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	got, err := o.Simplify(context.Background(), Request{Text: "Let there be light", Language: "en"})
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if got != "Light came." {
		t.Errorf("Simplify = %q, want %q", got, "Light came.")
	}
}

func TestOpenAIUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	o, err := NewOpenAI(OpenAIOptions{APIKey: "sk-bad", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if _, err := o.Simplify(context.Background(), Request{Text: "hello"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenAIEmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	o, _ := NewOpenAI(OpenAIOptions{APIKey: "sk", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
	if _, err := o.Simplify(context.Background(), Request{Text: "hello"}); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("err = %v, want ErrEmptyAnswer", err)
	}
}

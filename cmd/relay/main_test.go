package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/verse-reader/speech-relay/internal/cache"
	"github.com/verse-reader/speech-relay/internal/config"
	"github.com/verse-reader/speech-relay/internal/googletts"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in).Level(); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestReadText(t *testing.T) {
	if got, err := readText("  hello  ", nil); err != nil || got != "hello" {
		t.Errorf("readText(flag) = %q, %v", got, err)
	}
	if got, err := readText("-", strings.NewReader("from stdin\n")); err != nil || got != "from stdin" {
		t.Errorf("readText(stdin) = %q, %v", got, err)
	}
	if _, err := readText("   ", nil); err == nil {
		t.Error("expected error for blank text")
	}
	if _, err := readText(strings.Repeat("a", config.DefaultMaxTextBytes+1), nil); err == nil {
		t.Error("expected error for oversized text")
	}
}

func TestPrintVoices(t *testing.T) {
	var buf bytes.Buffer
	stub := googletts.NewStubSynthesizer(discardLogger())
	if err := printVoices(context.Background(), &buf, stub, "nl-NL"); err != nil {
		t.Fatalf("printVoices: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "NAME") || !strings.Contains(out, "nl-NL-Stub-A") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestNewSynthesizerStub(t *testing.T) {
	synth, closer, err := newSynthesizer(context.Background(), config.Config{UseStubSynthesizer: true}, discardLogger())
	if err != nil {
		t.Fatalf("newSynthesizer: %v", err)
	}
	if closer != nil {
		t.Error("stub should not need closing")
	}
	if _, ok := synth.(*googletts.StubSynthesizer); !ok {
		t.Errorf("synthesizer = %T, want stub", synth)
	}
}

func TestNewSimplifier(t *testing.T) {
	ctx := context.Background()
	s, err := newSimplifier(ctx, config.Config{}, discardLogger())
	if err != nil || s != nil {
		t.Errorf("disabled provider: got %v, %v", s, err)
	}

	s, err = newSimplifier(ctx, config.Config{SimplifyProvider: config.ProviderStub}, discardLogger())
	if err != nil || s == nil || s.Name() != "stub" {
		t.Errorf("stub provider: got %v, %v", s, err)
	}

	s, err = newSimplifier(ctx, config.Config{SimplifyProvider: config.ProviderOpenAI, OpenAIAPIKey: "sk-test"}, discardLogger())
	if err != nil || s == nil || s.Name() != "openai" {
		t.Errorf("openai provider: got %v, %v", s, err)
	}

	if _, err := newSimplifier(ctx, config.Config{SimplifyProvider: "llama"}, discardLogger()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, closer := newStore(ctx, config.Config{}, discardLogger())
	if store != nil || closer != nil {
		t.Error("no cache configured, expected nil store")
	}

	store, _ = newStore(ctx, config.Config{CacheDir: t.TempDir(), CacheMaxSizeMB: 1}, discardLogger())
	if _, ok := store.(*cache.Disk); !ok {
		t.Errorf("store = %T, want *cache.Disk", store)
	}

	mr := miniredis.RunT(t)
	store, closer = newStore(ctx, config.Config{
		RedisURL:       "redis://" + mr.Addr(),
		CacheDir:       t.TempDir(),
		CacheMaxSizeMB: 1,
	}, discardLogger())
	if _, ok := store.(*cache.Redis); !ok {
		t.Errorf("store = %T, want *cache.Redis when both are configured", store)
	}
	if closer == nil {
		t.Error("redis store should be closable")
	} else {
		closer.Close()
	}

	store, _ = newStore(ctx, config.Config{RedisURL: "redis://127.0.0.1:1"}, discardLogger())
	if store != nil {
		t.Errorf("unreachable redis should disable the cache, got %T", store)
	}
}

func TestNewStoreReportsDiskEntries(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{CacheDir: t.TempDir(), CacheMaxSizeMB: 1}

	first, _ := newStore(ctx, cfg, discardLogger())
	if first == nil {
		t.Fatal("expected disk store")
	}
	if err := first.Put(ctx, cache.Key(cache.KeyParams{Text: "hallo"}), []byte("mp3")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	if store, _ := newStore(ctx, cfg, logger); store == nil {
		t.Fatal("expected disk store on reopen")
	}
	if !strings.Contains(buf.String(), "entries=1") {
		t.Errorf("startup log should report the reloaded entry:\n%s", buf.String())
	}
}

func TestNewSimplifierDisabledIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s, err := newSimplifier(context.Background(), config.Config{SimplifyProvider: config.ProviderNone}, logger)
	if err != nil || s != nil {
		t.Fatalf("got %v, %v", s, err)
	}
	if !strings.Contains(buf.String(), "text simplification disabled") {
		t.Errorf("missing disabled log line:\n%s", buf.String())
	}
}

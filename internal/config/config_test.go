package config

import (
	"testing"
	"time"
)

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := Config{ListenAddr: "127.0.0.1:10000"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VoiceGender != DefaultVoiceGender {
		t.Errorf("VoiceGender = %q, want %q", cfg.VoiceGender, DefaultVoiceGender)
	}
	if cfg.AudioEncoding != DefaultAudioEncoding {
		t.Errorf("AudioEncoding = %q, want %q", cfg.AudioEncoding, DefaultAudioEncoding)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %s, want %s", cfg.RequestTimeout, DefaultRequestTimeout)
	}
	if cfg.RateLimitBurst != 0 {
		t.Errorf("RateLimitBurst = %d, want 0 while rate limiting is off", cfg.RateLimitBurst)
	}
}

func TestValidateRequiresListenAddr(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing listen address")
	}
}

func TestValidateSpeakingRateRange(t *testing.T) {
	tests := []struct {
		name    string
		val     float64
		wantErr bool
	}{
		{"unset", 0, false},
		{"slow", 0.25, false},
		{"normal", 1.0, false},
		{"fast", 4.0, false},
		{"too_slow", 0.1, true},
		{"too_fast", 4.5, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{ListenAddr: "127.0.0.1:10000", SpeakingRate: tt.val}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("SpeakingRate=%f: err=%v, wantErr=%v", tt.val, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNormalisesEnums(t *testing.T) {
	cfg := Config{ListenAddr: "127.0.0.1:10000", VoiceGender: "female", AudioEncoding: "linear16"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VoiceGender != "FEMALE" || cfg.AudioEncoding != "LINEAR16" {
		t.Errorf("got gender %q encoding %q", cfg.VoiceGender, cfg.AudioEncoding)
	}

	bad := Config{ListenAddr: "127.0.0.1:10000", VoiceGender: "robot"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown voice gender")
	}
	bad = Config{ListenAddr: "127.0.0.1:10000", AudioEncoding: "flac"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown audio encoding")
	}
}

func TestValidateCacheMaxSizeMB(t *testing.T) {
	cfg := Config{ListenAddr: "127.0.0.1:10000", CacheMaxSizeMB: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative CacheMaxSizeMB")
	}

	cfg.CacheMaxSizeMB = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("CacheMaxSizeMB=0 should be valid (disabled): %v", err)
	}

	cfg.CacheMaxSizeMB = 200
	if err := cfg.Validate(); err != nil {
		t.Fatalf("CacheMaxSizeMB=200 should be valid: %v", err)
	}

	cfg.CacheTTL = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative CacheTTL")
	}
}

func TestValidateRateLimit(t *testing.T) {
	cfg := Config{ListenAddr: "127.0.0.1:10000", RateLimitRPS: 5}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RateLimitBurst != DefaultRateLimitBurst {
		t.Errorf("RateLimitBurst = %d, want %d", cfg.RateLimitBurst, DefaultRateLimitBurst)
	}

	cfg = Config{ListenAddr: "127.0.0.1:10000", RateLimitRPS: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative RateLimitRPS")
	}
}

func TestValidateMaxTextBytes(t *testing.T) {
	cfg := Config{ListenAddr: "127.0.0.1:10000", MaxTextBytes: -5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative MaxTextBytes")
	}
}

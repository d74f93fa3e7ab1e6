package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Loader loads configuration from environment variables. Tests can set
// Environ to inject a deterministic map instead of the process environment.
type Loader struct {
	Environ map[string]string

	// DotEnvFiles are read (when present) before the environment; real
	// environment variables win over values from these files.
	DotEnvFiles []string
}

// overrides lists the individual variables that can override the JSON blob.
// Nil pointers mean "not set".
type overrides struct {
	ListenAddr         *string        `env:"RELAY_LISTEN_ADDR"`
	Port               *string        `env:"PORT"`
	LogLevel           *string        `env:"RELAY_LOG_LEVEL"`
	CredentialsJSON    *string        `env:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`
	CredentialsFile    *string        `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	TTSEndpoint        *string        `env:"RELAY_TTS_ENDPOINT"`
	VoiceName          *string        `env:"RELAY_VOICE_NAME"`
	VoiceGender        *string        `env:"RELAY_VOICE_GENDER"`
	AudioEncoding      *string        `env:"RELAY_AUDIO_ENCODING"`
	SpeakingRate       *float64       `env:"RELAY_SPEAKING_RATE"`
	DefaultLanguage    *string        `env:"RELAY_DEFAULT_LANGUAGE"`
	UseStubSynthesizer *bool          `env:"RELAY_USE_STUB_SYNTHESIZER"`
	SimplifyProvider   *string        `env:"RELAY_SIMPLIFY_PROVIDER"`
	GeminiAPIKey       *string        `env:"GEMINI_API_KEY"`
	GeminiModel        *string        `env:"RELAY_GEMINI_MODEL"`
	OpenAIAPIKey       *string        `env:"OPENAI_API_KEY"`
	OpenAIModel        *string        `env:"RELAY_OPENAI_MODEL"`
	CacheDir           *string        `env:"RELAY_CACHE_DIR"`
	DataDir            *string        `env:"RELAY_DATA_DIR"`
	CacheMaxSizeMB     *int           `env:"RELAY_CACHE_MAX_SIZE_MB"`
	RedisURL           *string        `env:"RELAY_REDIS_URL"`
	CacheTTL           *time.Duration `env:"RELAY_CACHE_TTL"`
	AllowedOrigins     []string       `env:"RELAY_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitRPS       *float64       `env:"RELAY_RATE_LIMIT_RPS"`
	RateLimitBurst     *int           `env:"RELAY_RATE_LIMIT_BURST"`
	MaxTextBytes       *int           `env:"RELAY_MAX_TEXT_BYTES"`
	RequestTimeout     *time.Duration `env:"RELAY_REQUEST_TIMEOUT"`
}

// Load retrieves the relay configuration and validates it. Precedence, lowest
// first: defaults, the RELAY_CONFIG JSON blob, individual variables.
func (l Loader) Load() (Config, error) {
	environ, err := l.environment()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:       DefaultListenAddr,
		CacheMaxSizeMB:   DefaultCacheMaxSizeMB,
		OpenAIMaxRetries: DefaultOpenAIRetries,
	}

	if raw := strings.TrimSpace(environ["RELAY_CONFIG"]); raw != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	var ov overrides
	if err := env.ParseWithOptions(&ov, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	ov.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) environment() (map[string]string, error) {
	environ := make(map[string]string)
	for _, path := range l.DotEnvFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		for k, v := range values {
			environ[k] = v
		}
	}

	if l.Environ != nil {
		for k, v := range l.Environ {
			environ[k] = v
		}
		return environ, nil
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return environ, nil
}

func (o overrides) apply(cfg *Config) {
	// PORT is what hosting platforms inject; an explicit address still wins.
	if port := trimmed(o.Port); port != "" {
		cfg.ListenAddr = net.JoinHostPort("0.0.0.0", port)
	}
	overrideString(o.ListenAddr, &cfg.ListenAddr)
	overrideString(o.LogLevel, &cfg.LogLevel)
	overrideString(o.CredentialsJSON, &cfg.CredentialsJSON)
	overrideString(o.CredentialsFile, &cfg.CredentialsFile)
	overrideString(o.TTSEndpoint, &cfg.TTSEndpoint)
	overrideString(o.VoiceName, &cfg.VoiceName)
	overrideString(o.VoiceGender, &cfg.VoiceGender)
	overrideString(o.AudioEncoding, &cfg.AudioEncoding)
	overrideString(o.DefaultLanguage, &cfg.DefaultLanguage)
	overrideString(o.SimplifyProvider, &cfg.SimplifyProvider)
	overrideString(o.GeminiAPIKey, &cfg.GeminiAPIKey)
	overrideString(o.GeminiModel, &cfg.GeminiModel)
	overrideString(o.OpenAIAPIKey, &cfg.OpenAIAPIKey)
	overrideString(o.OpenAIModel, &cfg.OpenAIModel)
	overrideString(o.CacheDir, &cfg.CacheDir)
	overrideString(o.RedisURL, &cfg.RedisURL)
	if dataDir := trimmed(o.DataDir); dataDir != "" && cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(dataDir, "cache")
	}

	if o.SpeakingRate != nil {
		cfg.SpeakingRate = *o.SpeakingRate
	}
	if o.UseStubSynthesizer != nil {
		cfg.UseStubSynthesizer = *o.UseStubSynthesizer
	}
	if o.CacheMaxSizeMB != nil {
		cfg.CacheMaxSizeMB = *o.CacheMaxSizeMB
	}
	if o.CacheTTL != nil {
		cfg.CacheTTL = *o.CacheTTL
	}
	if len(o.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = trimAll(o.AllowedOrigins)
	}
	if o.RateLimitRPS != nil {
		cfg.RateLimitRPS = *o.RateLimitRPS
	}
	if o.RateLimitBurst != nil {
		cfg.RateLimitBurst = *o.RateLimitBurst
	}
	if o.MaxTextBytes != nil {
		cfg.MaxTextBytes = *o.MaxTextBytes
	}
	if o.RequestTimeout != nil {
		cfg.RequestTimeout = *o.RequestTimeout
	}
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		ListenAddr         string   `json:"listen_addr"`
		LogLevel           string   `json:"log_level"`
		CredentialsFile    string   `json:"credentials_file"`
		TTSEndpoint        string   `json:"tts_endpoint"`
		VoiceName          string   `json:"voice_name"`
		VoiceGender        string   `json:"voice_gender"`
		AudioEncoding      string   `json:"audio_encoding"`
		SpeakingRate       *float64 `json:"speaking_rate"`
		DefaultLanguage    string   `json:"default_language"`
		UseStubSynthesizer *bool    `json:"use_stub_synthesizer"`
		SimplifyProvider   string   `json:"simplify_provider"`
		GeminiAPIKey       string   `json:"gemini_api_key"`
		GeminiModel        string   `json:"gemini_model"`
		GeminiBaseURL      string   `json:"gemini_base_url"`
		OpenAIAPIKey       string   `json:"openai_api_key"`
		OpenAIModel        string   `json:"openai_model"`
		OpenAIBaseURL      string   `json:"openai_base_url"`
		OpenAIMaxRetries   *int     `json:"openai_max_retries"`
		CacheDir           string   `json:"cache_dir"`
		CacheMaxSizeMB     *int     `json:"cache_max_size_mb"`
		RedisURL           string   `json:"redis_url"`
		CacheTTL           string   `json:"cache_ttl"`
		AllowedOrigins     []string `json:"allowed_origins"`
		RateLimitRPS       *float64 `json:"rate_limit_rps"`
		RateLimitBurst     *int     `json:"rate_limit_burst"`
		MaxTextBytes       *int     `json:"max_text_bytes"`
		RequestTimeout     string   `json:"request_timeout"`
	}
	var payload jsonConfig
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode RELAY_CONFIG: %w", err)
	}

	setString(payload.ListenAddr, &cfg.ListenAddr)
	setString(payload.LogLevel, &cfg.LogLevel)
	setString(payload.CredentialsFile, &cfg.CredentialsFile)
	setString(payload.TTSEndpoint, &cfg.TTSEndpoint)
	setString(payload.VoiceName, &cfg.VoiceName)
	setString(payload.VoiceGender, &cfg.VoiceGender)
	setString(payload.AudioEncoding, &cfg.AudioEncoding)
	setString(payload.DefaultLanguage, &cfg.DefaultLanguage)
	setString(payload.SimplifyProvider, &cfg.SimplifyProvider)
	setString(payload.GeminiAPIKey, &cfg.GeminiAPIKey)
	setString(payload.GeminiModel, &cfg.GeminiModel)
	setString(payload.GeminiBaseURL, &cfg.GeminiBaseURL)
	setString(payload.OpenAIAPIKey, &cfg.OpenAIAPIKey)
	setString(payload.OpenAIModel, &cfg.OpenAIModel)
	setString(payload.OpenAIBaseURL, &cfg.OpenAIBaseURL)
	setString(payload.CacheDir, &cfg.CacheDir)
	setString(payload.RedisURL, &cfg.RedisURL)

	if payload.SpeakingRate != nil {
		cfg.SpeakingRate = *payload.SpeakingRate
	}
	if payload.UseStubSynthesizer != nil {
		cfg.UseStubSynthesizer = *payload.UseStubSynthesizer
	}
	if payload.OpenAIMaxRetries != nil {
		cfg.OpenAIMaxRetries = *payload.OpenAIMaxRetries
	}
	if payload.CacheMaxSizeMB != nil {
		cfg.CacheMaxSizeMB = *payload.CacheMaxSizeMB
	}
	if payload.CacheTTL != "" {
		d, err := time.ParseDuration(payload.CacheTTL)
		if err != nil {
			return fmt.Errorf("config: cache_ttl: %w", err)
		}
		cfg.CacheTTL = d
	}
	if len(payload.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = trimAll(payload.AllowedOrigins)
	}
	if payload.RateLimitRPS != nil {
		cfg.RateLimitRPS = *payload.RateLimitRPS
	}
	if payload.RateLimitBurst != nil {
		cfg.RateLimitBurst = *payload.RateLimitBurst
	}
	if payload.MaxTextBytes != nil {
		cfg.MaxTextBytes = *payload.MaxTextBytes
	}
	if payload.RequestTimeout != "" {
		d, err := time.ParseDuration(payload.RequestTimeout)
		if err != nil {
			return fmt.Errorf("config: request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func setString(value string, target *string) {
	if value != "" {
		*target = value
	}
}

func overrideString(value *string, target *string) {
	if v := trimmed(value); v != "" {
		*target = v
	}
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

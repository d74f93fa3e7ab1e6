package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	// DefaultListenAddr matches the port the relay has always been deployed on.
	DefaultListenAddr      = "0.0.0.0:10000"
	DefaultLogLevel        = "info"
	DefaultLanguage        = "en"
	DefaultVoiceGender     = "NEUTRAL"
	DefaultAudioEncoding   = "MP3"
	DefaultCacheMaxSizeMB  = 200
	DefaultMaxTextBytes    = 5000 // Cloud Text-to-Speech input limit
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRateLimitBurst  = 10
	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenAIRetries   = 2
	DefaultShutdownTimeout = 5 * time.Second
)

// Simplification providers.
const (
	ProviderNone   = ""
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

// Config captures bootstrap configuration extracted from environment variables
// or the injected JSON payload (`RELAY_CONFIG`).
type Config struct {
	ListenAddr string
	LogLevel   string

	// Cloud Text-to-Speech
	CredentialsJSON    string
	CredentialsFile    string
	TTSEndpoint        string
	VoiceName          string
	VoiceGender        string
	AudioEncoding      string
	SpeakingRate       float64
	DefaultLanguage    string
	UseStubSynthesizer bool

	// Simplification
	SimplifyProvider string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIMaxRetries int

	// Cache; Redis wins when both are configured.
	CacheDir       string
	CacheMaxSizeMB int
	RedisURL       string
	CacheTTL       time.Duration

	// HTTP surface
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxTextBytes   int
	RequestTimeout time.Duration
}

var (
	validGenders   = []string{"NEUTRAL", "MALE", "FEMALE", "SSML_VOICE_GENDER_UNSPECIFIED"}
	validEncodings = []string{"MP3", "OGG_OPUS", "LINEAR16", "MULAW", "ALAW"}
)

// Validate applies defaults and raises an error when fields are inconsistent.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = DefaultLanguage
	}

	if c.VoiceGender == "" {
		c.VoiceGender = DefaultVoiceGender
	}
	c.VoiceGender = strings.ToUpper(c.VoiceGender)
	if !slices.Contains(validGenders, c.VoiceGender) {
		return fmt.Errorf("config: voice_gender must be one of %s, got %q", strings.Join(validGenders, ", "), c.VoiceGender)
	}
	if c.AudioEncoding == "" {
		c.AudioEncoding = DefaultAudioEncoding
	}
	c.AudioEncoding = strings.ToUpper(c.AudioEncoding)
	if !slices.Contains(validEncodings, c.AudioEncoding) {
		return fmt.Errorf("config: audio_encoding must be one of %s, got %q", strings.Join(validEncodings, ", "), c.AudioEncoding)
	}
	if c.SpeakingRate != 0 && (c.SpeakingRate < 0.25 || c.SpeakingRate > 4.0) {
		return fmt.Errorf("config: speaking_rate must be between 0.25 and 4.0, got %f", c.SpeakingRate)
	}

	c.SimplifyProvider = strings.ToLower(strings.TrimSpace(c.SimplifyProvider))
	switch c.SimplifyProvider {
	case ProviderNone, ProviderStub:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("config: gemini_api_key is required when simplify_provider is gemini")
		}
		if c.GeminiModel == "" {
			c.GeminiModel = DefaultGeminiModel
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: openai_api_key is required when simplify_provider is openai")
		}
		if c.OpenAIModel == "" {
			c.OpenAIModel = DefaultOpenAIModel
		}
	default:
		return fmt.Errorf("config: unknown simplify_provider %q", c.SimplifyProvider)
	}
	if c.OpenAIMaxRetries < 0 {
		return fmt.Errorf("config: openai_max_retries must be >= 0, got %d", c.OpenAIMaxRetries)
	}

	if c.CacheMaxSizeMB < 0 {
		return fmt.Errorf("config: cache_max_size_mb must be >= 0, got %d", c.CacheMaxSizeMB)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: cache_ttl must be >= 0, got %s", c.CacheTTL)
	}

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("config: rate_limit_rps must be >= 0, got %f", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		c.RateLimitBurst = DefaultRateLimitBurst
	}
	if c.MaxTextBytes == 0 {
		c.MaxTextBytes = DefaultMaxTextBytes
	}
	if c.MaxTextBytes < 0 {
		return fmt.Errorf("config: max_text_bytes must be > 0, got %d", c.MaxTextBytes)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	return nil
}

// SimplifyEnabled reports whether a simplification backend is configured.
func (c Config) SimplifyEnabled() bool {
	return c.SimplifyProvider != ProviderNone
}

package googletts

import (
	"mime"
	"strings"
)

const (
	// DefaultGender is the SSML voice gender used when none is configured.
	DefaultGender = "NEUTRAL"
	// DefaultEncoding is the audio encoding used when none is configured.
	DefaultEncoding = "MP3"
)

// LanguageCode maps the short language codes sent by the reader app to
// BCP-47 voice locales. Full tags pass through; unknown short codes fall back
// to Dutch.
func LanguageCode(lang string) string {
	lang = strings.TrimSpace(lang)
	switch strings.ToLower(lang) {
	case "en", "":
		return "en-US"
	case "nl":
		return "nl-NL"
	}
	if strings.Contains(lang, "-") {
		return lang
	}
	return "nl-NL"
}

// MIMEType returns the content type for an audio encoding name.
func MIMEType(encoding string) string {
	switch strings.ToUpper(encoding) {
	case "MP3", "":
		return "audio/mpeg"
	case "OGG_OPUS":
		return "audio/ogg"
	case "LINEAR16":
		return "audio/wav"
	case "MULAW", "ALAW":
		return "audio/basic"
	}
	return "application/octet-stream"
}

// FileExtension returns the file extension (with dot) for an audio encoding.
func FileExtension(encoding string) string {
	switch strings.ToUpper(encoding) {
	case "MP3", "":
		return ".mp3"
	case "OGG_OPUS":
		return ".ogg"
	case "LINEAR16":
		return ".wav"
	}
	if exts, err := mime.ExtensionsByType(MIMEType(encoding)); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

package simplify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyText is returned when there is nothing to simplify.
	ErrEmptyText = errors.New("simplify: text is required")
	// ErrEmptyAnswer is returned when the model produced no text.
	ErrEmptyAnswer = errors.New("simplify: model returned no text")
	// ErrNoProvider is returned by callers that have no backend configured.
	ErrNoProvider = errors.New("simplify: no provider configured")
)

// Reading levels understood by the prompt builder.
const (
	LevelEasy  = "easy"
	LevelChild = "child"
)

// Request describes a simplification call.
type Request struct {
	Text     string
	Language string
	Level    string
}

// Simplifier rewrites text into plainer language.
type Simplifier interface {
	Simplify(ctx context.Context, req Request) (string, error)
	Name() string
}

var languageNames = map[string]string{
	"en": "English",
	"nl": "Dutch",
	"de": "German",
	"fr": "French",
}

// Instruction builds the system prompt for a language and reading level.
func Instruction(language, level string) string {
	name := languageName(language)

	var audience string
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelChild:
		audience = "a child of about eight years old"
	default:
		audience = "a reader with basic literacy"
	}

	return fmt.Sprintf(
		"Rewrite the text you are given in simple %s for %s. "+
			"Keep the meaning and the order of events. Use short sentences and common words. "+
			"Do not add commentary, headings or quotation marks. Reply with the rewritten text only.",
		name, audience,
	)
}

func languageName(language string) string {
	code := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexByte(code, '-'); i > 0 {
		code = code[:i]
	}
	if name, ok := languageNames[code]; ok {
		return name
	}
	if code == "" {
		return "English"
	}
	// Unknown codes are passed through; models understand ISO codes well enough.
	return code
}

func validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	return nil
}

func clean(answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// Store is a best-effort byte cache. Implementations never fail a lookup:
// any backend problem is reported as a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte) error
}

// KeyParams lists every input that changes the synthesized output.
type KeyParams struct {
	Text         string
	LanguageCode string
	VoiceName    string
	Gender       string
	Encoding     string
	SpeakingRate float64
	Marks        bool
}

// Key produces a deterministic SHA-256 hex key from synthesis parameters.
func Key(p KeyParams) string {
	h := sha256.New()
	fmt.Fprintf(h, "text=%s\nlang=%s\nvoice=%s\ngender=%s\nencoding=%s\n",
		p.Text, p.LanguageCode, p.VoiceName, p.Gender, p.Encoding)
	if p.SpeakingRate != 0 {
		fmt.Fprintf(h, "speaking_rate=%f\n", p.SpeakingRate)
	}
	if p.Marks {
		fmt.Fprint(h, "marks=ssml\n")
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

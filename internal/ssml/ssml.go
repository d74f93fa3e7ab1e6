package ssml

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
)

// wordPattern matches a run of word characters. RE2's \w is ASCII-only, so
// letters and marks are spelled out to keep accented words intact.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]+`)

// Timepoint is a mark emission time reported by the TTS engine.
type Timepoint struct {
	MarkName string  `json:"mark_name"`
	Seconds  float64 `json:"time_seconds"`
}

// WordTiming pairs a word with the time its mark was reached.
type WordTiming struct {
	Index   int     `json:"index"`
	Word    string  `json:"word"`
	Seconds float64 `json:"time_seconds"`
}

// Words splits text into the words that receive marks. Punctuation and
// whitespace are dropped.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// Marked renders words as an SSML document with one mark before every word.
// Mark names are the word indexes.
func Marked(words []string) string {
	var b strings.Builder
	b.WriteString("<speak>")
	for i, w := range words {
		b.WriteString(`<mark name="`)
		b.WriteString(strconv.Itoa(i))
		b.WriteString(`"/>`)
		xml.EscapeText(&b, []byte(w))
		b.WriteByte(' ')
	}
	b.WriteString("</speak>")
	return b.String()
}

// Align matches timepoints to words by mark name. Timepoints whose name is not
// a valid word index are skipped; words without a timepoint are omitted.
func Align(words []string, timepoints []Timepoint) []WordTiming {
	out := make([]WordTiming, 0, len(timepoints))
	for _, tp := range timepoints {
		idx, err := strconv.Atoi(tp.MarkName)
		if err != nil || idx < 0 || idx >= len(words) {
			continue
		}
		out = append(out, WordTiming{Index: idx, Word: words[idx], Seconds: tp.Seconds})
	}
	return out
}

package ssml

import (
	"reflect"
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "In the beginning", []string{"In", "the", "beginning"}},
		{"punctuation", "God said, \"Let there be light.\"", []string{"God", "said", "Let", "there", "be", "light"}},
		{"dutch accents", "Eén dag, één nacht", []string{"Eén", "dag", "één", "nacht"}},
		{"digits", "Genesis 1:3", []string{"Genesis", "1", "3"}},
		{"empty", "  ...  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Words(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestMarked(t *testing.T) {
	got := Marked([]string{"Let", "there", "be"})
	want := `<speak><mark name="0"/>Let <mark name="1"/>there <mark name="2"/>be </speak>`
	if got != want {
		t.Errorf("Marked = %q, want %q", got, want)
	}
}

func TestMarkedEmpty(t *testing.T) {
	if got := Marked(nil); got != "<speak></speak>" {
		t.Errorf("Marked(nil) = %q", got)
	}
}

func TestAlign(t *testing.T) {
	words := []string{"a", "b", "c"}
	tps := []Timepoint{
		{MarkName: "0", Seconds: 0.1},
		{MarkName: "2", Seconds: 0.9},
		{MarkName: "bogus", Seconds: 1.0},
		{MarkName: "7", Seconds: 2.0},
	}
	got := Align(words, tps)
	want := []WordTiming{
		{Index: 0, Word: "a", Seconds: 0.1},
		{Index: 2, Word: "c", Seconds: 0.9},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Align = %+v, want %+v", got, want)
	}
}

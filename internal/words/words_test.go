package words

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

func TestLoadAndGet(t *testing.T) {
	texts := []string{"Hello", "world."}
	bounds := []ttypes.Rect{ttypes.NewRect(0, 5, 1), ttypes.NewRect(6, 12, 1)}

	idx, err := Load(texts, bounds)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if idx.Size() != 2 {
		t.Fatalf("Size = %d, want 2", idx.Size())
	}

	w, err := idx.Get(1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}
	if w.Index != 1 || w.Text != "world." || w.Bounds.CenterX != 9 {
		t.Errorf("Get(1) = %+v", w)
	}

	for _, i := range []int{-1, 2, 100} {
		if _, err := idx.Get(i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Get(%d) error = %v, want ErrOutOfRange", i, err)
		}
	}
}

func TestLoadMismatch(t *testing.T) {
	_, err := Load([]string{"a", "b"}, []ttypes.Rect{{}})
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("expected ErrLayoutMismatch, got %v", err)
	}
}

func TestNilIndexIsEmpty(t *testing.T) {
	var idx *Index
	if idx.Size() != 0 {
		t.Error("nil index should have size 0")
	}
	if _, ok := idx.Text(0); ok {
		t.Error("nil index should have no text")
	}
	if Empty().Size() != 0 {
		t.Error("Empty() should have size 0")
	}
}

func TestSplitToWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"spaces only", "   \n ", []string{}},
		{"simple", "Hello world", []string{"Hello", "world"}},
		{"newlines and runs", "one  two\nthree\n\nfour ", []string{"one", "two", "three", "four"}},
		{"tabs are kept", "a\tb c", []string{"a\tb", "c"}},
		{"cyrillic", "Здравей свят", []string{"Здравей", "свят"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitToWords(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitToWords(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReconstruct(t *testing.T) {
	got := Reconstruct([]string{" Hello", "world ", "again"})
	if got != "Hello world again" {
		t.Errorf("Reconstruct = %q", got)
	}
}

func TestLastRuneAndEndsSentence(t *testing.T) {
	if LastRune("you?  \n") != '?' {
		t.Error("LastRune should skip trailing whitespace")
	}
	if LastRune("   ") != 0 {
		t.Error("LastRune of blank should be 0")
	}
	if !EndsSentence("край.", DefaultTerminators) {
		t.Error("expected sentence end")
	}
	if EndsSentence("word,", DefaultTerminators) {
		t.Error("comma does not end a sentence")
	}
}

func TestStopPause(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
	}{
		{"end.", ShortPause},
		{"what?", ShortPause},
		{"wow!", ShortPause},
		{"pause,", ShortPause},
		{"word", LongPause},
		{"", LongPause},
	}
	for _, tt := range tests {
		if got := StopPause(tt.text); got != tt.want {
			t.Errorf("StopPause(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	if got := StopOffset("word", 100*time.Millisecond); got != 0 {
		t.Errorf("StopOffset should clamp at zero, got %v", got)
	}
	if got := StopOffset("end.", time.Second); got != 850*time.Millisecond {
		t.Errorf("StopOffset = %v, want 850ms", got)
	}
}

func TestHasLetters(t *testing.T) {
	for in, want := range map[string]bool{
		"abc":   true,
		"Щ":     true,
		"123":   false,
		"--!?":  false,
		"4ever": true,
	} {
		if got := HasLetters(in); got != want {
			t.Errorf("HasLetters(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ttypes.Language
	}{
		{
			name: "fully bulgarian",
			text: "Паяците, известни още като същински паяци, са разред безгръбначни хищни животни от клас Паякообразни.",
			want: ttypes.LanguageBulgarian,
		},
		{
			name: "mostly bulgarian",
			text: "Паяците, известни още като същински паяци, are spineless predatory animals.",
			want: ttypes.LanguageBulgarian,
		},
		{
			name: "fully english",
			text: "Spiders (order Araneae) are air-breathing arthropods that have eight legs.",
			want: ttypes.LanguageEnglish,
		},
		{
			name: "mostly english",
			text: "Spiders (order Araneae) are air-breathing arthropods that имат 8 крака.",
			want: ttypes.LanguageEnglish,
		},
		{
			name: "tie favors cyrillic",
			text: "bd бд",
			want: ttypes.LanguageBulgarian,
		},
		{
			name: "ambiguous glyphs ignored",
			text: "ace oxy",
			want: ttypes.LanguageBulgarian,
		},
		{
			name: "only first 1000 runes count",
			text: strings.Repeat("б", 1000) + strings.Repeat("z", 5000),
			want: ttypes.LanguageBulgarian,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage = %s, want %s", got, tt.want)
			}
		})
	}
}

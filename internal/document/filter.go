package document

import (
	"regexp"
	"strings"

	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
)

var (
	multiSpace = regexp.MustCompile(` +`)

	// lookalikes maps Latin letters tesseract confuses with Cyrillic ones.
	lookalikes = strings.NewReplacer(
		"B", "в",
		"H", "н",
		"k", "к", "K", "к",
		"m", "м",
		"n", "н",
		"p", "р", "P", "р",
		"x", "х", "X", "х",
		"y", "у",
	)

	misreadDigits = strings.NewReplacer("6", "в", "8", "в")

	unusual = strings.NewReplacer(
		"©", "", "|", "",
		"[", "", "]", "",
		"{", "", "}", "",
		"<", "", ">", "",
	)
)

// FilterOCR cleans up raw recognizer output. Runs of spaces collapse and
// hyphenated line breaks are joined before the remaining newlines become
// spaces. Bulgarian text also gets its Latin look-alikes and misread digits
// repaired. Stray symbols are dropped last.
func FilterOCR(raw string) string {
	lang := words.DetectLanguage(raw)

	s := multiSpace.ReplaceAllString(strings.TrimSpace(raw), " ")
	s = strings.ReplaceAll(s, "-\n", "")
	s = strings.ReplaceAll(s, "\n", " ")
	if lang == ttypes.LanguageBulgarian {
		s = RepairDigits(ToCyrillic(s))
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(unusual.Replace(s), " "))
}

// FilterWord applies FilterOCR rules that make sense for a single recognized
// word. Empty results mean the word was noise: a box with neither letters
// nor digits has nothing to read aloud.
func FilterWord(w string, lang ttypes.Language) string {
	w = strings.TrimSpace(w)
	if lang == ttypes.LanguageBulgarian {
		w = RepairDigits(ToCyrillic(w))
	}
	w = unusual.Replace(w)
	if !words.HasLetters(w) && !strings.ContainsAny(w, "0123456789") {
		return ""
	}
	return w
}

// ToCyrillic replaces Latin letters that look like Cyrillic ones. Not every
// Latin letter has a counterpart, so mixed words may remain.
func ToCyrillic(s string) string {
	return lookalikes.Replace(s)
}

// RepairDigits replaces 6 and 8 with в inside words that mix digits with
// other characters. Plain numbers are left alone.
func RepairDigits(text string) string {
	ws := words.SplitToWords(text)
	for i, w := range ws {
		if mixesDigits(w) {
			ws[i] = misreadDigits.Replace(w)
		}
	}
	return words.Reconstruct(ws)
}

func mixesDigits(w string) bool {
	var digit, other bool
	for _, r := range w {
		if '0' <= r && r <= '9' {
			digit = true
		} else {
			other = true
		}
	}
	return digit && other
}

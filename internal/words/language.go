package words

import "github.com/dgnsrekt/spotlight/internal/ttypes"

// languageSampleSize is how many runes DetectLanguage inspects.
const languageSampleSize = 1000

// ambiguousGlyphs look the same in Latin and Cyrillic and are not counted.
var ambiguousGlyphs = map[rune]struct{}{
	'a': {}, 'c': {}, 'e': {}, 'o': {}, 'p': {}, 'x': {}, 'y': {},
	'а': {}, 'с': {}, 'е': {}, 'о': {}, 'р': {}, 'х': {}, 'у': {},
}

// DetectLanguage guesses the script of text from its first 1000 runes.
// Cyrillic wins ties, so empty text is treated as Bulgarian.
func DetectLanguage(text string) ttypes.Language {
	var latin, cyrillic, seen int
	for _, r := range text {
		if seen == languageSampleSize {
			break
		}
		seen++

		if _, ok := ambiguousGlyphs[r]; ok {
			continue
		}
		switch {
		case isLatin(r):
			latin++
		case isCyrillic(r):
			cyrillic++
		}
	}

	if cyrillic >= latin {
		return ttypes.LanguageBulgarian
	}
	return ttypes.LanguageEnglish
}

func isLatin(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isCyrillic(r rune) bool {
	return ('а' <= r && r <= 'я') || ('А' <= r && r <= 'Я')
}

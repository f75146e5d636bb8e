package reconcile

import (
	"strings"
	"unicode"
)

// Tokens splits text into its set of lowercase word tokens. Letters and
// digits form words; each CJK character is a token on its own. Non-CJK
// tokens of a single rune are dropped.
func Tokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	var word []rune
	flush := func() {
		if len(word) > 1 {
			set[string(word)] = struct{}{}
		}
		word = word[:0]
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case isCJK(r):
			flush()
			set[string(r)] = struct{}{}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
		default:
			flush()
		}
	}
	flush()
	return set
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

// Similarity is the Jaccard index of the token sets of a and b. It is 0
// when either text has no tokens.
func Similarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

package normalize

import (
	"regexp"
	"strings"
)

// keywordSet matches any of its keywords case-insensitively. ASCII keywords
// must sit on word boundaries so "lead" does not fire on "leadership";
// other keywords (CJK) match anywhere.
type keywordSet struct {
	re *regexp.Regexp
}

func newKeywordSet(keywords ...string) keywordSet {
	var ascii, other []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw == "" {
			continue
		}
		if isASCII(kw) {
			ascii = append(ascii, regexp.QuoteMeta(kw))
		} else {
			other = append(other, regexp.QuoteMeta(kw))
		}
	}
	var alts []string
	if len(ascii) > 0 {
		alts = append(alts, `\b(?:`+strings.Join(ascii, "|")+`)\b`)
	}
	if len(other) > 0 {
		alts = append(alts, `(?:`+strings.Join(other, "|")+`)`)
	}
	if len(alts) == 0 {
		return keywordSet{}
	}
	return keywordSet{re: regexp.MustCompile(`(?i)` + strings.Join(alts, "|"))}
}

func (k keywordSet) Match(s string) bool {
	return k.re != nil && k.re.MatchString(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

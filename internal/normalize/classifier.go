package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

type category struct {
	name     string
	keywords keywordSet
}

// categories are checked in order; the first match wins.
var categories = []category{
	{"Data", newKeywordSet("data scientist", "data engineer", "data analyst", "analytics", "machine learning", "ml engineer", "ai engineer", "deep learning", "nlp", "数据", "算法")},
	{"Engineering", newKeywordSet("engineer", "engineering", "developer", "software", "backend", "back-end", "frontend", "front-end", "full stack", "fullstack", "devops", "sre", "infrastructure", "programmer", "architect", "qa", "工程师", "开发", "研发")},
	{"Design", newKeywordSet("designer", "design", "ux", "ui", "user research", "设计")},
	{"Product", newKeywordSet("product manager", "product owner", "product lead", "产品")},
	{"Marketing", newKeywordSet("marketing", "growth", "seo", "content", "brand", "community", "social media", "市场", "运营")},
	{"Sales", newKeywordSet("sales", "account executive", "business development", "account manager", "partnerships", "销售", "商务")},
	{"Support", newKeywordSet("support", "customer success", "customer service", "客服")},
	{"Operations", newKeywordSet("operations", "recruiter", "recruiting", "talent", "people", "hr", "finance", "accountant", "legal", "office manager", "人事", "财务")},
}

var (
	internLevel    = newKeywordSet("intern", "internship", "co-op", "实习")
	juniorLevel    = newKeywordSet("junior", "jr", "entry level", "entry-level", "graduate", "new grad", "associate", "初级")
	seniorLevel    = newKeywordSet("senior", "sr", "staff", "principal", "高级", "资深")
	leadLevel      = newKeywordSet("lead", "tech lead", "team lead", "head of", "engineering manager", "主管", "负责人")
	executiveLevel = newKeywordSet("director", "vp", "vice president", "chief", "cto", "ceo", "cfo", "总监")

	yearsRegex = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years|yrs|年)`)
)

// descriptionHead is how much of the description Classify looks at.
const descriptionHead = 500

// Experience levels produced by KeywordClassifier.
const (
	LevelIntern    = "Intern"
	LevelJunior    = "Junior"
	LevelMid       = model.DefaultExperienceLevel
	LevelSenior    = "Senior"
	LevelLead      = "Lead"
	LevelExecutive = "Executive"
)

// timezoneHints pair case-sensitive abbreviations with case-insensitive
// phrases. Abbreviations are case-sensitive so "est" in French text or
// "ist" in German text does not match.
var timezoneHints = []struct {
	zone    string
	abbrev  *regexp.Regexp
	phrases keywordSet
}{
	{"PT", regexp.MustCompile(`\bP[SD]T\b`), newKeywordSet("pacific time", "pacific timezone")},
	{"MT", regexp.MustCompile(`\bM[SD]T\b`), newKeywordSet("mountain time")},
	{"CT", regexp.MustCompile(`\bC[SD]T\b`), newKeywordSet("central time")},
	{"ET", regexp.MustCompile(`\bE[SD]T\b`), newKeywordSet("eastern time", "eastern timezone")},
	{"CET", regexp.MustCompile(`\bCES?T\b`), newKeywordSet("central european time")},
	{"GMT", regexp.MustCompile(`\b(?:GMT|BST)\b`), newKeywordSet("uk time")},
	{"UTC+8", regexp.MustCompile(`\bSGT\b`), newKeywordSet("beijing time", "china standard time", "北京时间")},
	{"JST", regexp.MustCompile(`\bJST\b`), newKeywordSet("japan standard time")},
	{"IST", nil, newKeywordSet("india standard time")},
}

var utcOffsetRegex = regexp.MustCompile(`(?i)\b(?:utc|gmt)\s?([+\-−])\s?(\d{1,2})(?::?(\d{2}))?\b`)

// DefaultOverseas are location or title phrases that restrict a posting to
// on-site or country-locked candidates.
var DefaultOverseas = []string{
	"us only", "usa only", "us citizens only", "us citizen", "must reside in the us",
	"must be based in the us", "must be located in the us", "eu only", "uk only",
	"canada only", "onsite only", "on-site only", "no remote", "security clearance",
	"仅限美国",
}

// KeywordClassifier implements model.Classifier with keyword tables. It is
// safe for concurrent use.
type KeywordClassifier struct {
	overseas keywordSet
}

// NewKeywordClassifier creates a classifier. A nil overseas list means
// DefaultOverseas; an empty non-nil list disables the overseas check.
func NewKeywordClassifier(overseas []string) *KeywordClassifier {
	if overseas == nil {
		overseas = DefaultOverseas
	}
	return &KeywordClassifier{overseas: newKeywordSet(overseas...)}
}

// Classify returns the first category whose keywords appear in the title,
// then in the opening of the description. Empty means no category matched.
func (k *KeywordClassifier) Classify(title, description string) string {
	if r := []rune(description); len(r) > descriptionHead {
		description = string(r[:descriptionHead])
	}
	for _, text := range []string{title, description} {
		for _, c := range categories {
			if c.keywords.Match(text) {
				return c.name
			}
		}
	}
	return ""
}

// ExperienceLevel reads seniority from the title, then from the number of
// years the description asks for.
func (k *KeywordClassifier) ExperienceLevel(title, description string) string {
	switch {
	case internLevel.Match(title):
		return LevelIntern
	case executiveLevel.Match(title):
		return LevelExecutive
	case seniorLevel.Match(title):
		return LevelSenior
	case leadLevel.Match(title):
		return LevelLead
	case juniorLevel.Match(title):
		return LevelJunior
	}

	if m := yearsRegex.FindStringSubmatch(description); m != nil {
		years, _ := strconv.Atoi(m[1])
		switch {
		case years >= 5:
			return LevelSenior
		case years <= 1:
			return LevelJunior
		default:
			return LevelMid
		}
	}
	return ""
}

// ExtractTimezone returns an explicit UTC offset or a known zone
// abbreviation mentioned in text, or "".
func (k *KeywordClassifier) ExtractTimezone(text string) string {
	if m := utcOffsetRegex.FindStringSubmatch(text); m != nil {
		sign := m[1]
		if sign == "−" {
			sign = "-"
		}
		hours, _ := strconv.Atoi(m[2])
		if hours <= 14 {
			if m[3] != "" && m[3] != "00" {
				return fmt.Sprintf("UTC%s%d:%s", sign, hours, m[3])
			}
			return fmt.Sprintf("UTC%s%d", sign, hours)
		}
	}
	for _, tz := range timezoneHints {
		if (tz.abbrev != nil && tz.abbrev.MatchString(text)) || tz.phrases.Match(text) {
			return tz.zone
		}
	}
	return ""
}

// IsExplicitlyOverseas reports whether text contains an exclusion phrase.
func (k *KeywordClassifier) IsExplicitlyOverseas(text string) bool {
	return k.overseas.Match(strings.ReplaceAll(text, "U.S.", "US"))
}

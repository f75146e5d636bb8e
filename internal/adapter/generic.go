package adapter

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/careercrawl/internal/model"
)

// occupationKeywords must appear in a link's text for it to count as a job.
var occupationKeywords = []string{
	"engineer", "developer", "designer", "manager", "analyst", "scientist",
	"specialist", "intern", "architect", "consultant", "coordinator",
	"director", "associate", "administrator", "representative", "officer",
	"assistant", "writer", "editor", "recruiter", "marketer", "marketing",
	"sales", "support", "operations", "product", "accountant", "technician",
	"researcher", "programmer", "lead", "head of", "counsel", "strategist",
	"advocate", "executive", "devops", "sre", "qa", "tester",
	"工程师", "经理", "设计师", "开发", "运营", "产品", "专员", "实习", "总监", "研究员",
}

// negativeKeywords mark navigation and marketing links that happen to
// contain an occupation word ("Meet our engineers", "Product blog").
var negativeKeywords = []string{
	"view all", "see all", "all jobs", "all openings", "learn more", "read more",
	"blog", "about us", "our team", "meet the", "meet our", "privacy", "cookie",
	"log in", "login", "sign in", "sign up", "subscribe", "newsletter",
	"press", "news", "events", "contact", "terms", "pricing", "documentation",
	"case study", "webinar", "podcast", "download",
}

var (
	jobPathRegex  = regexp.MustCompile(`(?i)/(job|jobs|career|careers|position|positions|opening|openings|vacancy|vacancies|opportunity|opportunities|role|roles|posting|postings|requisition|requisitions|o|j)/[^?#\s]+`)
	jobQueryRegex = regexp.MustCompile(`(?i)[?&](gh_jid|jobid|job_id|jid|posting_id)=`)
	atsPathRegex  = regexp.MustCompile(`(?i)(ashbyhq\.com|lever\.co|greenhouse\.io|workable\.com|recruitee\.com|smartrecruiters\.com|myworkdayjobs\.com)/[^?#\s]+/[^?#\s]+`)
)

// GenericStrategy scores anchors on the listing page. A link is accepted only
// when its text names an occupation, avoids the negative list and its URL
// looks like a posting.
type GenericStrategy struct{}

func NewGenericStrategy() *GenericStrategy { return &GenericStrategy{} }

func (s *GenericStrategy) Name() string       { return "generic" }
func (s *GenericStrategy) Kind() StrategyKind { return KindGeneric }

func (s *GenericStrategy) Extract(_ context.Context, page Page) (Result, error) {
	doc, err := parseDocument(page.HTML)
	if err != nil {
		return Result{}, err
	}

	var jobs []model.CandidateJob
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := resolveURL(page.URL, href)
		if link == "" {
			return
		}

		title := anchorTitle(a)
		if !IsJobLink(title, link) {
			return
		}

		jobs = append(jobs, model.CandidateJob{
			Title:    title,
			URL:      link,
			Location: nearbyLocation(a),
			Platform: model.PlatformGeneric,
		})
	})
	return Result{Jobs: jobs}, nil
}

// IsJobLink applies the three link tests.
func IsJobLink(title, link string) bool {
	n := len([]rune(title))
	if n < 4 || n > 120 {
		return false
	}
	lower := strings.ToLower(title)
	if !containsKeyword(lower, occupationKeywords) {
		return false
	}
	if containsAny(lower, negativeKeywords) {
		return false
	}
	return jobPathRegex.MatchString(link) || jobQueryRegex.MatchString(link) || atsPathRegex.MatchString(link)
}

// containsKeyword matches ASCII keywords on word boundaries so that "lead"
// does not fire on "leadership" and "qa" not on "aqua". Non-ASCII keywords
// match as substrings.
func containsKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if !isASCII(kw) {
			if strings.Contains(s, kw) {
				return true
			}
			continue
		}
		for idx := 0; ; {
			i := strings.Index(s[idx:], kw)
			if i < 0 {
				break
			}
			start, end := idx+i, idx+i+len(kw)
			if boundary(s, start-1) && boundary(s, end) {
				return true
			}
			idx = start + 1
		}
	}
	return false
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// anchorTitle prefers a heading inside the anchor, then its text, then the
// title or aria-label attribute.
func anchorTitle(a *goquery.Selection) string {
	if h := strings.TrimSpace(a.Find("h1,h2,h3,h4,h5,[class*=title]").First().Text()); h != "" {
		return strings.Join(strings.Fields(h), " ")
	}
	if t := strings.Join(strings.Fields(a.Text()), " "); t != "" {
		return t
	}
	for _, attr := range []string{"title", "aria-label"} {
		if v, ok := a.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func nearbyLocation(a *goquery.Selection) string {
	for _, sel := range []*goquery.Selection{a, a.Parent()} {
		if loc := strings.TrimSpace(sel.Find("[class*=location]").First().Text()); loc != "" {
			return strings.Join(strings.Fields(loc), " ")
		}
	}
	return ""
}

package adapter

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

// detectRule maps a predicate over (host, html) to a platform.
type detectRule struct {
	kind    model.PlatformKind
	matches func(host, html string) bool
}

func hostHas(substrs ...string) func(host, html string) bool {
	return func(host, _ string) bool {
		for _, s := range substrs {
			if strings.Contains(host, s) {
				return true
			}
		}
		return false
	}
}

func htmlMatches(re *regexp.Regexp) func(host, html string) bool {
	return func(_, html string) bool { return html != "" && re.MatchString(html) }
}

var (
	ashbyEmbedRegex     = regexp.MustCompile(`(?i)jobs\.ashbyhq\.com/[A-Za-z0-9._%-]+`)
	greenhouseEmbedHTML = regexp.MustCompile(`(?i)(boards|job-boards)\.greenhouse\.io/(embed/job_board|[A-Za-z0-9_-]+)`)
	leverEmbedRegex     = regexp.MustCompile(`(?i)jobs\.(eu\.)?lever\.co/[A-Za-z0-9._-]+`)
	workableEmbedRegex  = regexp.MustCompile(`(?i)apply\.workable\.com/[A-Za-z0-9_-]+`)
	appDataRegex        = regexp.MustCompile(`window\.__appData\s*=`)
	nextDataRegex       = regexp.MustCompile(`<script[^>]+id=["']__NEXT_DATA__["']`)
	jsonLDJobPosting    = regexp.MustCompile(`(?is)<script[^>]+application/ld\+json[^>]*>(?:[^<]|<[^/])*?"JobPosting"`)
)

// detectRules is the priority-ordered chain. URL rules come first so that
// a hosted board is recognised without fetching it.
var detectRules = []detectRule{
	{model.PlatformAshby, hostHas("ashbyhq.com")},
	{model.PlatformGreenhouse, hostHas("greenhouse.io")},
	{model.PlatformLever, hostHas("lever.co")},
	{model.PlatformWorkable, hostHas("workable.com")},
	{model.PlatformWorkday, hostHas("myworkdayjobs.com")},
	{model.PlatformGem, hostHas(".gem.com")},
	{model.PlatformSmartRecruiters, hostHas("smartrecruiters.com")},
	{model.PlatformRecruitee, hostHas("recruitee.com")},

	// Boards embedded in a company's own careers page.
	{model.PlatformAshby, htmlMatches(ashbyEmbedRegex)},
	{model.PlatformGreenhouse, htmlMatches(greenhouseEmbedHTML)},
	{model.PlatformLever, htmlMatches(leverEmbedRegex)},
	{model.PlatformWorkable, htmlMatches(workableEmbedRegex)},

	{model.PlatformAshby, htmlMatches(appDataRegex)},
	{model.PlatformNextJS, htmlMatches(nextDataRegex)},
	{model.PlatformJSONLD, htmlMatches(jsonLDJobPosting)},
}

// Detect identifies the platform behind a careers page. html may be empty,
// in which case only URL rules can fire and the result is unknown when none
// does. With html the fallback is generic.
func Detect(rawURL, html string) model.PlatformKind {
	host := ""
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		host = strings.ToLower(u.Host)
	}
	for _, r := range detectRules {
		if r.matches(host, html) {
			return r.kind
		}
	}
	if html == "" {
		return model.PlatformUnknown
	}
	return model.PlatformGeneric
}

// Package normalize turns extracted candidates into canonical records:
// it infers locations, assigns taxonomy fields and drops postings that are
// overseas-restricted or older than the retention window.
package normalize

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/amishk599/careercrawl/internal/model"
)

// DefaultRetention is how old a posting may be before it is dropped.
const DefaultRetention = 30 * 24 * time.Hour

const maxLocationRunes = 80

var (
	titleSuffixRegex = regexp.MustCompile(`^(.+?)\s+[-–]\s+([^-–]+)$`)
	titleParenRegex  = regexp.MustCompile(`^(.+?)\s*\(([^()]+)\)$`)
	locationLine     = regexp.MustCompile(`(?im)^\s*(?:location|job location|工作地点|地点)\s*[:：]\s*(.+?)\s*$`)

	genderMarker = regexp.MustCompile(`(?i)^\s*[mfwdx]\s*/\s*[mfwdx]\s*(?:/\s*[mfwdx])?\s*$`)
	remoteWords  = newKeywordSet("remote", "anywhere", "work from home", "wfh", "distributed", "远程")
)

// Stats counts what NormalizeAll kept and why it dropped the rest.
type Stats struct {
	Kept            int
	DroppedFiltered int
	DroppedOverseas int
	DroppedStale    int
}

// Normalizer applies classification and retention rules to candidates.
type Normalizer struct {
	classifier model.Classifier
	logger     *slog.Logger
	retention  time.Duration
	allowList  map[string]bool
	filter     *TitleFilter
	now        func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithRetention overrides DefaultRetention. Zero or negative disables the
// retention check.
func WithRetention(d time.Duration) Option {
	return func(n *Normalizer) { n.retention = d }
}

// WithAllowList keeps stale postings for the given company ids.
func WithAllowList(companyIDs []string) Option {
	return func(n *Normalizer) {
		for _, id := range companyIDs {
			n.allowList[id] = true
		}
	}
}

// WithTitleFilter drops candidates whose title does not match f.
func WithTitleFilter(f *TitleFilter) Option {
	return func(n *Normalizer) { n.filter = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer.
func New(classifier model.Classifier, logger *slog.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		classifier: classifier,
		logger:     logger,
		retention:  DefaultRetention,
		allowList:  make(map[string]bool),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns a normalized copy of c, or nil when the candidate must
// be dropped.
func (n *Normalizer) Normalize(target model.CrawlTarget, c *model.CandidateJob) *model.CandidateJob {
	if c == nil {
		return nil
	}
	out, _ := n.normalize(target, c)
	return out
}

type dropReason int

const (
	kept dropReason = iota
	droppedFiltered
	droppedOverseas
	droppedStale
)

func (n *Normalizer) normalize(target model.CrawlTarget, c *model.CandidateJob) (*model.CandidateJob, dropReason) {
	if !n.filter.Match(c) {
		return nil, droppedFiltered
	}

	out := *c
	out.Title = strings.TrimSpace(out.Title)
	out.Location = strings.TrimSpace(out.Location)
	if out.Location == "" {
		out.Location = InferLocation(out.Title, out.Description)
	}

	if n.classifier.IsExplicitlyOverseas(out.Location) || n.classifier.IsExplicitlyOverseas(out.Title) {
		return nil, droppedOverseas
	}

	if n.stale(target, out.PublishedAt) {
		return nil, droppedStale
	}

	if out.Category == "" {
		out.Category = n.classifier.Classify(out.Title, out.Description)
	}
	if out.Category == "" {
		out.Category = model.DefaultCategory
	}
	if out.ExperienceLevel == "" {
		out.ExperienceLevel = n.classifier.ExperienceLevel(out.Title, out.Description)
	}
	if out.ExperienceLevel == "" {
		out.ExperienceLevel = model.DefaultExperienceLevel
	}
	if out.Timezone == "" {
		out.Timezone = n.classifier.ExtractTimezone(out.Location + "\n" + out.Description)
	}
	if !out.IsRemote {
		out.IsRemote = remoteWords.Match(out.Location) || remoteWords.Match(out.Title) ||
			lo.SomeBy(out.Tags, remoteWords.Match)
	}
	return &out, kept
}

func (n *Normalizer) stale(target model.CrawlTarget, published *time.Time) bool {
	if published == nil || n.retention <= 0 {
		return false
	}
	if target.KeepStale || n.allowList[target.CompanyID] {
		return false
	}
	return n.now().Sub(*published) > n.retention
}

// NormalizeAll normalizes every candidate and returns the survivors in
// input order.
func (n *Normalizer) NormalizeAll(target model.CrawlTarget, jobs []model.CandidateJob) ([]model.CandidateJob, Stats) {
	var stats Stats
	out := make([]model.CandidateJob, 0, len(jobs))
	for i := range jobs {
		job, reason := n.normalize(target, &jobs[i])
		switch reason {
		case kept:
			stats.Kept++
			out = append(out, *job)
		case droppedFiltered:
			stats.DroppedFiltered++
		case droppedOverseas:
			stats.DroppedOverseas++
			n.logger.Debug("dropping overseas posting", "company", target.CompanyName, "title", jobs[i].Title)
		case droppedStale:
			stats.DroppedStale++
			n.logger.Debug("dropping stale posting", "company", target.CompanyName, "title", jobs[i].Title)
		}
	}
	return out, stats
}

// InferLocation reads a location from a strict title suffix such as
// "Engineer - Berlin" or "Engineer (Remote)", then from a "Location: X" line
// in the description. Suffixes that look like part of the role are
// rejected.
func InferLocation(title, description string) string {
	for _, re := range []*regexp.Regexp{titleSuffixRegex, titleParenRegex} {
		if m := re.FindStringSubmatch(title); m != nil {
			if loc := strings.TrimSpace(m[2]); plausibleLocation(loc) {
				return loc
			}
		}
	}
	if m := locationLine.FindStringSubmatch(description); m != nil {
		return truncate(strings.TrimSpace(m[1]), maxLocationRunes)
	}
	return ""
}

func plausibleLocation(s string) bool {
	if s == "" || len([]rune(s)) > maxLocationRunes || genderMarker.MatchString(s) {
		return false
	}
	if remoteWords.Match(s) {
		return true
	}
	return !isRoleText(s)
}

func isRoleText(s string) bool {
	for _, c := range categories {
		if c.keywords.Match(s) {
			return true
		}
	}
	for _, set := range []keywordSet{internLevel, juniorLevel, seniorLevel, leadLevel, executiveLevel} {
		if set.Match(s) {
			return true
		}
	}
	return roleWords.Match(s)
}

var roleWords = newKeywordSet("manager", "specialist", "coordinator", "analyst", "consultant",
	"contract", "part-time", "full-time", "temporary", "ii", "iii", "iv")

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

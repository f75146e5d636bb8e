package normalize

import "github.com/amishk599/careercrawl/internal/model"

// TitleFilter keeps jobs whose title contains any of its keywords
// (case-insensitive, word-bounded for ASCII). An empty keyword list keeps
// every job.
type TitleFilter struct {
	keywords keywordSet
	empty    bool
}

// NewTitleFilter returns a filter over the given title keywords.
func NewTitleFilter(keywords []string) *TitleFilter {
	set := newKeywordSet(keywords...)
	return &TitleFilter{keywords: set, empty: set.re == nil}
}

// Match reports whether the job passes the filter.
func (f *TitleFilter) Match(job *model.CandidateJob) bool {
	return f == nil || f.empty || f.keywords.Match(job.Title)
}

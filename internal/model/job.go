package model

import (
	"context"
	"time"
)

// Source types a persisted job can carry.
const (
	SourceManual   = "manual"
	SourceOfficial = "official"
	SourceRSS      = "rss"
	SourceTrusted  = "trusted"
)

// Defaults applied when the classifier yields nothing.
const (
	DefaultCategory        = "Other"
	DefaultExperienceLevel = "Mid"
)

// CrawlTarget identifies one company careers page to crawl.
type CrawlTarget struct {
	CompanyID   string
	CompanyName string
	CareersURL  string
	KeepStale   bool // retention allow-list: keep postings older than the window
}

// CandidateJob is one extracted posting prior to persistence.
type CandidateJob struct {
	ID              string     // deterministic from URL unless migrated
	Title           string     // job title
	URL             string     // canonical posting URL
	Location        string     // free-form location string
	EmploymentType  string     // full-time, contract, ...
	Description     string     // plain text, may be empty until enriched
	Requirements    []string   // mined from detail page
	Benefits        []string   // mined from detail page
	Tags            []string   // department, team, workplace type
	PublishedAt     *time.Time // nullable (not all sources provide this)
	ApplyURL        string     // separate apply link when the source has one
	SourceType      string     // official, trusted, ...
	Platform        PlatformKind
	Category        string
	ExperienceLevel string
	Timezone        string
	IsRemote        bool
}

// PersistedJob is the canonical stored record for a job.
type PersistedJob struct {
	CandidateJob

	CompanyID        string
	CompanyName      string
	IsManuallyEdited bool
	IsApproved       bool
	IsFeatured       bool
	Translations     map[string]string
	UpdatedAt        time.Time
}

// Protected reports whether reconciliation must never delete this record.
func (p PersistedJob) Protected() bool {
	return p.IsManuallyEdited || p.IsFeatured || p.SourceType == SourceManual
}

// CompanyInfo is company metadata found alongside a listing, when present.
type CompanyInfo struct {
	Name        string
	Description string
	Logo        string
	Website     string
}

// Classifier assigns taxonomy fields from free text. Implementations must be
// safe for concurrent use.
type Classifier interface {
	Classify(title, description string) string
	ExperienceLevel(title, description string) string
	ExtractTimezone(text string) string // empty when none detected
	IsExplicitlyOverseas(text string) bool
}

// DescriptionExtractor pulls a job description out of arbitrary page text.
type DescriptionExtractor interface {
	ExtractDescription(ctx context.Context, text string) (string, error)
}

// Notifier reports newly inserted jobs for a company.
type Notifier interface {
	Notify(companyName string, jobs []CandidateJob) error
}

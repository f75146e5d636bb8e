package reconcile

import (
	"maps"
	"slices"
	"time"

	"github.com/amishk599/careercrawl/internal/model"
)

// sameRecord reports whether two records are equal in every stored field
// except UpdatedAt. Nil and empty collections compare equal and times are
// compared at second precision, matching what the SQL stores round-trip.
func sameRecord(a, b model.PersistedJob) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.URL == b.URL &&
		a.Location == b.Location &&
		a.EmploymentType == b.EmploymentType &&
		a.Description == b.Description &&
		slices.Equal(a.Requirements, b.Requirements) &&
		slices.Equal(a.Benefits, b.Benefits) &&
		slices.Equal(a.Tags, b.Tags) &&
		sameTime(a.PublishedAt, b.PublishedAt) &&
		a.ApplyURL == b.ApplyURL &&
		a.SourceType == b.SourceType &&
		a.Platform == b.Platform &&
		a.Category == b.Category &&
		a.ExperienceLevel == b.ExperienceLevel &&
		a.Timezone == b.Timezone &&
		a.IsRemote == b.IsRemote &&
		a.CompanyID == b.CompanyID &&
		a.CompanyName == b.CompanyName &&
		a.IsManuallyEdited == b.IsManuallyEdited &&
		a.IsApproved == b.IsApproved &&
		a.IsFeatured == b.IsFeatured &&
		maps.Equal(a.Translations, b.Translations)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

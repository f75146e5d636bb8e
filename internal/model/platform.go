package model

// PlatformKind identifies which ATS produced a careers page.
type PlatformKind string

const (
	PlatformAshby           PlatformKind = "ashby"
	PlatformGreenhouse      PlatformKind = "greenhouse"
	PlatformLever           PlatformKind = "lever"
	PlatformWorkable        PlatformKind = "workable"
	PlatformWorkday         PlatformKind = "workday"
	PlatformGem             PlatformKind = "gem"
	PlatformSmartRecruiters PlatformKind = "smartrecruiters"
	PlatformRecruitee       PlatformKind = "recruitee"
	PlatformNextJS          PlatformKind = "nextjs"  // hydration payload, no known ATS
	PlatformJSONLD          PlatformKind = "jsonld"  // JobPosting graph, no known ATS
	PlatformGeneric         PlatformKind = "generic" // link heuristics only
	PlatformUnknown         PlatformKind = "unknown"
)

// IsATS reports whether the kind names a hosted ATS rather than a page shape.
func (k PlatformKind) IsATS() bool {
	switch k {
	case PlatformAshby, PlatformGreenhouse, PlatformLever, PlatformWorkable,
		PlatformWorkday, PlatformGem, PlatformSmartRecruiters, PlatformRecruitee:
		return true
	}
	return false
}

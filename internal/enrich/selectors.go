package enrich

import (
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

// platformSelectors are tried in order on detail pages of a known ATS.
var platformSelectors = map[model.PlatformKind][]string{
	model.PlatformGreenhouse: {
		".job__description.body",
		".job__description",
		".job-description__content",
		"#content",
		".job-post-container",
	},
	model.PlatformLever: {
		".posting-page .section-wrapper.page-full-width",
		".posting-description",
		".section-wrapper.page-full-width",
		".content",
	},
	model.PlatformWorkday: {
		"[data-automation-id='jobPostingDescription']",
		"[data-automation-id='jobDescription']",
		".gwt-HTML",
	},
	model.PlatformAshby: {
		".ashby-job-posting-right-pane",
		"[class*='_descriptionText']",
		"[class*='_description_']",
	},
	model.PlatformWorkable: {
		"[data-ui='job-description']",
		"[data-ui='job-breakdown']",
	},
	model.PlatformSmartRecruiters: {
		".job-sections",
		"[itemprop='description']",
	},
	model.PlatformRecruitee: {
		".job-description",
		"[data-testid='job-description']",
	},
	model.PlatformGem: {
		"[class*='JobPostDescription']",
		".job-post-description",
	},
}

// genericSelectors run on every page after the platform ones.
var genericSelectors = []string{
	".job-description",
	".job-content",
	"#job-description",
	"#job-content",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"[itemprop='description']",
	"main",
	"article",
	".content",
	"#content",
}

var commonNoise = []string{
	"nav", "footer", "header", "script", "style", "noscript", "svg", "iframe",
	"form",
	"#application-form",
	".application-form",
	".application--container",
	".apply-button-container",
	"[data-testid='application-form']",
	".voluntary-disclosure",
	".eeo-statement",
	".eeo-section",
	".legal-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
}

var platformNoise = map[model.PlatformKind][]string{
	model.PlatformGreenhouse: {".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	model.PlatformLever:      {".apply-section", ".lever-application-form", ".posting-apply"},
	model.PlatformWorkday:    {"[data-automation-id='applyButton']", ".application-section"},
}

// noiseSelector joins the selectors removed before reading visible text.
func noiseSelector(platform model.PlatformKind) string {
	all := append(append([]string{}, commonNoise...), platformNoise[platform]...)
	return strings.Join(all, ", ")
}

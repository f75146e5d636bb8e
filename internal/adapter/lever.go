package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

var leverSlugRegex = regexp.MustCompile(`(?i)jobs\.(?:eu\.)?lever\.co/([A-Za-z0-9._-]+)`)

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverList is one titled bullet list ("Requirements", "What we offer").
type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Description      string          `json:"description"`
	Lists            []leverList     `json:"lists"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverStrategy reads the Lever public postings API.
type LeverStrategy struct {
	client Client
}

// NewLeverStrategy creates the Lever API strategy.
func NewLeverStrategy(client Client) *LeverStrategy {
	return &LeverStrategy{client: client}
}

func (s *LeverStrategy) Name() string       { return "lever-api" }
func (s *LeverStrategy) Kind() StrategyKind { return KindAPI }

// Extract retrieves all postings for the company named in the page URL.
func (s *LeverStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	slug := matchToken(leverSlugRegex, page)
	if slug == "" {
		return Result{}, fmt.Errorf("lever fetch for %s: %w", page.URL, errNoBoardToken)
	}

	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, slug)
	var leverJobs []leverJob
	if err := getJSON(ctx, s.client, url, &leverJobs); err != nil {
		return Result{}, fmt.Errorf("lever fetch for %s: %w", slug, err)
	}

	jobs := make([]model.CandidateJob, 0, len(leverJobs))
	for _, lj := range leverJobs {
		jobs = append(jobs, lj.candidate())
	}
	return Result{Jobs: jobs}, nil
}

func (lj leverJob) candidate() model.CandidateJob {
	// Prefer allLocations if available, fallback to location
	location := lj.Categories.Location
	if len(lj.Categories.AllLocations) > 0 {
		location = strings.Join(lj.Categories.AllLocations, ", ")
	}

	desc := lj.DescriptionPlain
	if desc == "" {
		desc = ExtractParagraphs(lj.Description)
	}

	job := model.CandidateJob{
		Title:          lj.Text,
		URL:            lj.HostedURL,
		ApplyURL:       lj.ApplyURL,
		Location:       location,
		EmploymentType: lj.Categories.Commitment,
		Description:    desc,
		Tags:           nonEmpty(lj.Categories.Department, lj.Categories.Team, lj.WorkplaceType),
		IsRemote:       strings.EqualFold(lj.WorkplaceType, "remote"),
		Platform:       model.PlatformLever,
	}
	// createdAt is unix milliseconds.
	if lj.CreatedAt > 0 {
		job.PublishedAt = unixTime(lj.CreatedAt)
	}

	for _, l := range lj.Lists {
		items := listItems(l.Content)
		switch heading := strings.ToLower(l.Text); {
		case containsAny(heading, requirementHeadings):
			job.Requirements = append(job.Requirements, items...)
		case containsAny(heading, benefitHeadings):
			job.Benefits = append(job.Benefits, items...)
		}
	}
	return job
}

// Heading keywords that mark requirement and benefit lists.
var (
	requirementHeadings = []string{"requirement", "qualification", "you have", "what you'll need", "what you need", "skills", "about you", "must have"}
	benefitHeadings     = []string{"benefit", "perk", "we offer", "what you'll get", "what you get", "compensation"}
)

var liRegex = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)

// listItems returns the plain text of each <li> in an HTML fragment.
func listItems(fragment string) []string {
	var out []string
	for _, m := range liRegex.FindAllStringSubmatch(fragment, -1) {
		if t := ExtractText(m[1]); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

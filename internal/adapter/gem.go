package adapter

import (
	"context"
	"fmt"
	"regexp"

	"github.com/amishk599/careercrawl/internal/model"
)

const gemBaseURL = "https://api.gem.com/job_board/v0"

var gemBoardRegex = regexp.MustCompile(`(?i)jobs\.gem\.com/([A-Za-z0-9_-]+)`)

type gemJob struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Location       gemLocation `json:"location"`
	AbsoluteURL    string      `json:"absolute_url"`
	FirstPublished string      `json:"first_published_at"`
	UpdatedAt      string      `json:"updated_at"`
	Content        string      `json:"content"`
	ContentPlain   string      `json:"content_plain"`
	EmploymentType string      `json:"employment_type"`
	Departments    []struct {
		Name string `json:"name"`
	} `json:"departments"`
}

type gemLocation struct {
	Name string `json:"name"`
}

// GemStrategy reads the Gem public job board API.
type GemStrategy struct {
	client Client
}

// NewGemStrategy creates the Gem API strategy.
func NewGemStrategy(client Client) *GemStrategy {
	return &GemStrategy{client: client}
}

func (s *GemStrategy) Name() string       { return "gem-api" }
func (s *GemStrategy) Kind() StrategyKind { return KindAPI }

// Extract retrieves all posts on the board. Gem returns content inline, so
// most jobs arrive with a description.
func (s *GemStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	token := matchToken(gemBoardRegex, page)
	if token == "" {
		return Result{}, fmt.Errorf("gem fetch for %s: %w", page.URL, errNoBoardToken)
	}

	url := fmt.Sprintf("%s/%s/job_posts/", gemBaseURL, token)
	var gemJobs []gemJob
	if err := getJSON(ctx, s.client, url, &gemJobs); err != nil {
		return Result{}, fmt.Errorf("gem fetch for %s: %w", token, err)
	}

	jobs := make([]model.CandidateJob, 0, len(gemJobs))
	for _, gj := range gemJobs {
		job := model.CandidateJob{
			Title:          gj.Title,
			Location:       gj.Location.Name,
			URL:            gj.AbsoluteURL,
			EmploymentType: gj.EmploymentType,
			Platform:       model.PlatformGem,
		}
		for _, d := range gj.Departments {
			job.Tags = append(job.Tags, nonEmpty(d.Name)...)
		}

		job.PublishedAt = ParseTime(gj.FirstPublished)
		if job.PublishedAt == nil {
			job.PublishedAt = ParseTime(gj.UpdatedAt)
		}
		desc := gj.ContentPlain
		if desc == "" && gj.Content != "" {
			desc = ExtractParagraphs(gj.Content)
		}
		job.Description = desc

		jobs = append(jobs, job)
	}
	return Result{Jobs: jobs}, nil
}

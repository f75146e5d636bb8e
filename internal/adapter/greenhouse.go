package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/amishk599/careercrawl/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// Board links look like boards.greenhouse.io/acme, job-boards.greenhouse.io/acme
// or an embed script with ?for=acme.
var (
	greenhouseEmbedRegex = regexp.MustCompile(`(?i)greenhouse\.io/embed/job_board(?:/js)?\?for=([A-Za-z0-9_-]+)`)
	greenhouseBoardRegex = regexp.MustCompile(`(?i)(?:job-)?boards(?:-api)?\.greenhouse\.io/(?:v1/boards/)?([A-Za-z0-9_-]+)`)
)

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	FirstPub    string             `json:"first_published"`
	Content     string             `json:"content"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseStrategy reads the Greenhouse public boards API.
type GreenhouseStrategy struct {
	client Client
}

// NewGreenhouseStrategy creates the Greenhouse API strategy.
func NewGreenhouseStrategy(client Client) *GreenhouseStrategy {
	return &GreenhouseStrategy{client: client}
}

func (s *GreenhouseStrategy) Name() string       { return "greenhouse-api" }
func (s *GreenhouseStrategy) Kind() StrategyKind { return KindAPI }

// Extract retrieves every job on the board, with content, in one call.
func (s *GreenhouseStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	token := greenhouseToken(page)
	if token == "" || token == "embed" {
		return Result{}, fmt.Errorf("greenhouse fetch for %s: %w", page.URL, errNoBoardToken)
	}

	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, token)
	var resp greenhouseResponse
	if err := getJSON(ctx, s.client, url, &resp); err != nil {
		return Result{}, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	jobs := make([]model.CandidateJob, 0, len(resp.Jobs))
	for _, gj := range resp.Jobs {
		job := model.CandidateJob{
			Title:       gj.Title,
			Location:    gj.Location.Name,
			URL:         gj.AbsoluteURL,
			Description: ExtractParagraphs(gj.Content),
			Platform:    model.PlatformGreenhouse,
		}
		if job.URL == "" {
			job.URL = fmt.Sprintf("https://boards.greenhouse.io/%s/jobs/%s", token, strconv.FormatInt(gj.ID, 10))
		}
		for _, d := range gj.Departments {
			job.Tags = append(job.Tags, nonEmpty(d.Name)...)
		}
		// first_published is the posting date; updated_at moves on every edit.
		job.PublishedAt = ParseTime(gj.FirstPub)
		if job.PublishedAt == nil {
			job.PublishedAt = ParseTime(gj.UpdatedAt)
		}
		jobs = append(jobs, job)
	}
	return Result{Jobs: jobs}, nil
}

func greenhouseToken(page Page) string {
	if t := matchToken(greenhouseEmbedRegex, page); t != "" {
		return t
	}
	return matchToken(greenhouseBoardRegex, page)
}

package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

const (
	workableBaseURL  = "https://apply.workable.com"
	workableMaxPages = 20
)

var workableSlugRegex = regexp.MustCompile(`(?i)apply\.workable\.com/(?:api/v\d/accounts/)?([A-Za-z0-9_-]+)`)

type workableRequest struct {
	Query      string   `json:"query"`
	Location   []string `json:"location"`
	Department []string `json:"department"`
	Worktype   []string `json:"worktype"`
	Remote     []string `json:"remote"`
	Token      string   `json:"token,omitempty"`
}

type workableLocation struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

func (l workableLocation) String() string {
	return strings.Join(nonEmpty(l.City, l.Region, l.Country), ", ")
}

type workableJob struct {
	Shortcode  string           `json:"shortcode"`
	Title      string           `json:"title"`
	Remote     bool             `json:"remote"`
	Location   workableLocation `json:"location"`
	Published  string           `json:"published"`
	Type       string           `json:"type"`
	Department []string         `json:"department"`
	Workplace  string           `json:"workplace"`
}

type workableResponse struct {
	Total    int           `json:"total"`
	Results  []workableJob `json:"results"`
	NextPage string        `json:"nextPage"`
}

// WorkableStrategy pages through the Workable account jobs endpoint.
type WorkableStrategy struct {
	client Client
}

// NewWorkableStrategy creates the Workable API strategy.
func NewWorkableStrategy(client Client) *WorkableStrategy {
	return &WorkableStrategy{client: client}
}

func (s *WorkableStrategy) Name() string       { return "workable-api" }
func (s *WorkableStrategy) Kind() StrategyKind { return KindAPI }

// Extract follows nextPage tokens until the account is exhausted.
func (s *WorkableStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	slug := matchToken(workableSlugRegex, page)
	if slug == "" || slug == "api" {
		return Result{}, fmt.Errorf("workable fetch for %s: %w", page.URL, errNoBoardToken)
	}

	endpoint := fmt.Sprintf("%s/api/v3/accounts/%s/jobs", workableBaseURL, slug)
	req := workableRequest{Location: []string{}, Department: []string{}, Worktype: []string{}, Remote: []string{}}

	var jobs []model.CandidateJob
	for i := 0; i < workableMaxPages; i++ {
		var resp workableResponse
		if err := postJSON(ctx, s.client, endpoint, req, &resp); err != nil {
			if len(jobs) > 0 {
				break
			}
			return Result{}, fmt.Errorf("workable fetch for %s: %w", slug, err)
		}
		for _, wj := range resp.Results {
			jobs = append(jobs, model.CandidateJob{
				Title:          wj.Title,
				URL:            fmt.Sprintf("%s/%s/j/%s/", workableBaseURL, slug, wj.Shortcode),
				Location:       wj.Location.String(),
				EmploymentType: wj.Type,
				Tags:           nonEmpty(append(wj.Department, wj.Workplace)...),
				PublishedAt:    ParseTime(wj.Published),
				IsRemote:       wj.Remote || strings.EqualFold(wj.Workplace, "remote"),
				Platform:       model.PlatformWorkable,
			})
		}
		if resp.NextPage == "" || len(resp.Results) == 0 {
			break
		}
		req.Token = resp.NextPage
	}
	return Result{Jobs: jobs}, nil
}

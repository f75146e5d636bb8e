package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

const (
	smartRecruitersBaseURL  = "https://api.smartrecruiters.com/v1/companies"
	smartRecruitersPageSize = 100
	smartRecruitersMaxPages = 10
)

var smartRecruitersRegex = regexp.MustCompile(`(?i)(?:jobs|careers)\.smartrecruiters\.com/([A-Za-z0-9_-]+)`)

type smartRecruitersPosting struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ReleasedDate string `json:"releasedDate"`
	Location     struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	TypeOfEmployment struct {
		Label string `json:"label"`
	} `json:"typeOfEmployment"`
	Department struct {
		Label string `json:"label"`
	} `json:"department"`
}

type smartRecruitersResponse struct {
	TotalFound int                      `json:"totalFound"`
	Content    []smartRecruitersPosting `json:"content"`
}

// SmartRecruitersStrategy pages through the SmartRecruiters postings API.
type SmartRecruitersStrategy struct {
	client Client
}

func NewSmartRecruitersStrategy(client Client) *SmartRecruitersStrategy {
	return &SmartRecruitersStrategy{client: client}
}

func (s *SmartRecruitersStrategy) Name() string       { return "smartrecruiters-api" }
func (s *SmartRecruitersStrategy) Kind() StrategyKind { return KindAPI }

func (s *SmartRecruitersStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	company := matchToken(smartRecruitersRegex, page)
	if company == "" {
		return Result{}, fmt.Errorf("smartrecruiters fetch for %s: %w", page.URL, errNoBoardToken)
	}

	var jobs []model.CandidateJob
	for i := 0; i < smartRecruitersMaxPages; i++ {
		url := fmt.Sprintf("%s/%s/postings?limit=%d&offset=%d", smartRecruitersBaseURL, company, smartRecruitersPageSize, i*smartRecruitersPageSize)
		var resp smartRecruitersResponse
		if err := getJSON(ctx, s.client, url, &resp); err != nil {
			if len(jobs) > 0 {
				break
			}
			return Result{}, fmt.Errorf("smartrecruiters fetch for %s: %w", company, err)
		}
		for _, p := range resp.Content {
			loc := p.Location
			jobs = append(jobs, model.CandidateJob{
				Title:          p.Name,
				URL:            fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", company, p.ID),
				Location:       strings.Join(nonEmpty(loc.City, loc.Region, strings.ToUpper(loc.Country)), ", "),
				EmploymentType: p.TypeOfEmployment.Label,
				Tags:           nonEmpty(p.Department.Label),
				PublishedAt:    ParseTime(p.ReleasedDate),
				IsRemote:       loc.Remote,
				Platform:       model.PlatformSmartRecruiters,
			})
		}
		if len(resp.Content) < smartRecruitersPageSize || len(jobs) >= resp.TotalFound {
			break
		}
	}
	return Result{Jobs: jobs}, nil
}

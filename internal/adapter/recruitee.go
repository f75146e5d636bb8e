package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

var recruiteeSlugRegex = regexp.MustCompile(`(?i)([A-Za-z0-9-]+)\.recruitee\.com`)

type recruiteeOffer struct {
	Title          string   `json:"title"`
	CareersURL     string   `json:"careers_url"`
	CareersApply   string   `json:"careers_apply_url"`
	Location       string   `json:"location"`
	Remote         bool     `json:"remote"`
	EmploymentType string   `json:"employment_type_code"`
	Description    string   `json:"description"`
	Requirements   string   `json:"requirements"`
	PublishedAt    string   `json:"published_at"`
	Department     string   `json:"department"`
	Tags           []string `json:"tags"`
}

type recruiteeResponse struct {
	Offers []recruiteeOffer `json:"offers"`
}

// RecruiteeStrategy reads the public offers feed of a Recruitee careers site.
type RecruiteeStrategy struct {
	client Client
}

func NewRecruiteeStrategy(client Client) *RecruiteeStrategy {
	return &RecruiteeStrategy{client: client}
}

func (s *RecruiteeStrategy) Name() string       { return "recruitee-api" }
func (s *RecruiteeStrategy) Kind() StrategyKind { return KindAPI }

func (s *RecruiteeStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	slug := strings.ToLower(matchToken(recruiteeSlugRegex, page))
	if slug == "" || slug == "www" {
		return Result{}, fmt.Errorf("recruitee fetch for %s: %w", page.URL, errNoBoardToken)
	}

	url := fmt.Sprintf("https://%s.recruitee.com/api/offers/", slug)
	var resp recruiteeResponse
	if err := getJSON(ctx, s.client, url, &resp); err != nil {
		return Result{}, fmt.Errorf("recruitee fetch for %s: %w", slug, err)
	}

	jobs := make([]model.CandidateJob, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		desc := ExtractParagraphs(o.Description)
		if req := ExtractParagraphs(o.Requirements); req != "" {
			desc = strings.TrimSpace(desc + "\n" + req)
		}
		jobs = append(jobs, model.CandidateJob{
			Title:          o.Title,
			URL:            o.CareersURL,
			ApplyURL:       o.CareersApply,
			Location:       o.Location,
			EmploymentType: o.EmploymentType,
			Description:    desc,
			Requirements:   listItems(o.Requirements),
			Tags:           nonEmpty(append([]string{o.Department}, o.Tags...)...),
			PublishedAt:    ParseTime(o.PublishedAt),
			IsRemote:       o.Remote,
			Platform:       model.PlatformRecruitee,
		})
	}
	return Result{Jobs: jobs}, nil
}

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/careercrawl/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

var ashbyBoardRegex = regexp.MustCompile(`(?i)jobs\.ashbyhq\.com/([A-Za-z0-9._%-]+)`)

// errNoBoardToken is returned when a strategy cannot derive its board id.
var errNoBoardToken = errors.New("no board token")

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	Title              string `json:"title"`
	Department         string `json:"department"`
	Team               string `json:"team"`
	EmploymentType     string `json:"employmentType"`
	Location           string `json:"location"`
	SecondaryLocations []struct {
		Location string `json:"location"`
	} `json:"secondaryLocations"`
	IsRemote         bool   `json:"isRemote"`
	WorkplaceType    string `json:"workplaceType"`
	JobURL           string `json:"jobUrl"`
	ApplyURL         string `json:"applyUrl"`
	PublishedAt      string `json:"publishedAt"`
	IsListed         bool   `json:"isListed"`
	DescriptionPlain string `json:"descriptionPlain"`
	DescriptionHTML  string `json:"descriptionHtml"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyStrategy reads the Ashby public job board API.
type AshbyStrategy struct {
	client Client
}

// NewAshbyStrategy creates the Ashby API strategy.
func NewAshbyStrategy(client Client) *AshbyStrategy {
	return &AshbyStrategy{client: client}
}

func (s *AshbyStrategy) Name() string       { return "ashby-api" }
func (s *AshbyStrategy) Kind() StrategyKind { return KindAPI }

// Extract retrieves all listed jobs from the board named in the page URL or
// an embedded board link.
func (s *AshbyStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	board := matchToken(ashbyBoardRegex, page)
	if board == "" {
		return Result{}, fmt.Errorf("ashby fetch for %s: %w", page.URL, errNoBoardToken)
	}

	url := fmt.Sprintf("%s/%s?includeCompensation=true", ashbyBaseURL, board)
	var resp ashbyResponse
	if err := getJSON(ctx, s.client, url, &resp); err != nil {
		return Result{}, fmt.Errorf("ashby fetch for %s: %w", board, err)
	}

	jobs := make([]model.CandidateJob, 0, len(resp.Jobs))
	for _, aj := range resp.Jobs {
		if !aj.IsListed {
			continue
		}
		jobs = append(jobs, aj.candidate())
	}
	return Result{Jobs: jobs}, nil
}

func (aj ashbyJob) candidate() model.CandidateJob {
	location := aj.Location
	for _, sl := range aj.SecondaryLocations {
		if sl.Location != "" {
			location += "; " + sl.Location
		}
	}

	desc := aj.DescriptionPlain
	if desc == "" && aj.DescriptionHTML != "" {
		desc = ExtractParagraphs(aj.DescriptionHTML)
	}

	return model.CandidateJob{
		Title:          aj.Title,
		URL:            aj.JobURL,
		ApplyURL:       aj.ApplyURL,
		Location:       location,
		EmploymentType: aj.EmploymentType,
		Description:    desc,
		Tags:           nonEmpty(aj.Department, aj.Team, aj.WorkplaceType),
		PublishedAt:    ParseTime(aj.PublishedAt),
		IsRemote:       aj.IsRemote || strings.EqualFold(aj.WorkplaceType, "remote"),
		Platform:       model.PlatformAshby,
	}
}

// matchToken finds the first capture of re in the page URL, then in the HTML.
func matchToken(re *regexp.Regexp, page Page) string {
	for _, src := range []string{page.URL, page.HTML} {
		if m := re.FindStringSubmatch(src); m != nil {
			return strings.TrimSuffix(m[1], ".")
		}
	}
	return ""
}

// getJSON GETs url and decodes the body into v.
func getJSON(ctx context.Context, c Client, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return decodeBody(resp, v)
}

// postJSON POSTs body to url and decodes the response into v.
func postJSON(ctx context.Context, c Client, url string, body, v any) error {
	resp, err := c.PostJSON(ctx, url, body)
	if err != nil {
		return err
	}
	return decodeBody(resp, v)
}

func decodeBody(resp *Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w: %w", resp.URL, model.ErrParse, err)
	}
	return nil
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

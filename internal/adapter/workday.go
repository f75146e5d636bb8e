package adapter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/careercrawl/internal/model"
)

const (
	workdayPageSize = 20
	workdayMaxPages = 50
)

var localeSegment = regexp.MustCompile(`^[a-z]{2}(-[A-Za-z]{2})?$`)

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	BulletFields  []string `json:"bulletFields"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// workdaySite is a parsed Workday career site URL.
type workdaySite struct {
	host   string // acme.wd5.myworkdayjobs.com
	tenant string // acme
	site   string // External
}

func (w workdaySite) apiBase() string {
	return fmt.Sprintf("https://%s/wday/cxs/%s/%s", w.host, w.tenant, w.site)
}

func (w workdaySite) jobURL(externalPath string) string {
	return fmt.Sprintf("https://%s/%s%s", w.host, w.site, externalPath)
}

// parseWorkdaySite derives tenant and site from
// https://{tenant}.wd{n}.myworkdayjobs.com/[{locale}/]{site}.
func parseWorkdaySite(rawURL string) (workdaySite, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.Contains(strings.ToLower(u.Host), "myworkdayjobs.com") {
		return workdaySite{}, false
	}
	host := strings.ToLower(u.Host)
	tenant, _, _ := strings.Cut(host, ".")

	parts := pathSegments(u)
	if len(parts) > 0 && localeSegment.MatchString(parts[0]) {
		parts = parts[1:]
	}
	// Already an API URL.
	if len(parts) >= 4 && parts[0] == "wday" && parts[1] == "cxs" {
		return workdaySite{host: host, tenant: parts[2], site: parts[3]}, true
	}
	if len(parts) == 0 {
		return workdaySite{}, false
	}
	return workdaySite{host: host, tenant: tenant, site: parts[0]}, true
}

// WorkdayStrategy pages through a Workday career site's listing endpoint.
type WorkdayStrategy struct {
	client Client
	now    func() time.Time
}

// NewWorkdayStrategy creates the Workday API strategy.
func NewWorkdayStrategy(client Client) *WorkdayStrategy {
	return &WorkdayStrategy{client: client, now: time.Now}
}

func (s *WorkdayStrategy) Name() string       { return "workday-api" }
func (s *WorkdayStrategy) Kind() StrategyKind { return KindAPI }

// Extract paginates through POST /jobs. Listing data carries title, path,
// location text and a relative posting date; descriptions are left to the
// detail enricher.
func (s *WorkdayStrategy) Extract(ctx context.Context, page Page) (Result, error) {
	site, ok := parseWorkdaySite(page.URL)
	if !ok {
		return Result{}, fmt.Errorf("workday listing for %s: %w", page.URL, errNoBoardToken)
	}

	var jobs []model.CandidateJob
	offset := 0
	for pageNum := 0; pageNum < workdayMaxPages; pageNum++ {
		body := workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
			SearchText:    "",
		}

		var listResp workdayListingResponse
		if err := postJSON(ctx, s.client, site.apiBase()+"/jobs", body, &listResp); err != nil {
			if len(jobs) > 0 {
				// Keep what earlier pages returned.
				break
			}
			return Result{}, fmt.Errorf("workday listing fetch for %s: %w", site.tenant, err)
		}

		for _, l := range listResp.JobPostings {
			jobs = append(jobs, model.CandidateJob{
				Title:       l.Title,
				URL:         site.jobURL(l.ExternalPath),
				Location:    l.LocationsText,
				PublishedAt: parsePostedOn(l.PostedOn, s.now()),
				Tags:        nonEmpty(l.BulletFields...),
				Platform:    model.PlatformWorkday,
			})
		}

		offset += workdayPageSize
		if len(listResp.JobPostings) == 0 || offset >= listResp.Total {
			break
		}
	}
	return Result{Jobs: jobs}, nil
}

var daysAgoRegex = regexp.MustCompile(`^Posted (\d+)\+? Days? Ago$`)

// parsePostedOn converts a Workday relative date string to an approximate timestamp.
func parsePostedOn(postedOn string, now time.Time) *time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch postedOn {
	case "Posted Today":
		return &today
	case "Posted Yesterday":
		t := today.AddDate(0, 0, -1)
		return &t
	}

	// "Posted 30+ Days Ago" maps to 30 days, which is a lower bound.
	if n, ok := parseDaysAgo(postedOn); ok {
		t := today.AddDate(0, 0, -n)
		return &t
	}
	return nil
}

func parseDaysAgo(s string) (int, bool) {
	matches := daysAgoRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/careercrawl/internal/model"
)

// MaxVisitDepth bounds the recursive search through hydration payloads.
const MaxVisitDepth = 12

// Global assignments that carry a page's data as a JSON literal.
var globalMarkers = []string{
	"window.__appData",
	"window.__INITIAL_STATE__",
	"window.__PRELOADED_STATE__",
}

// parseDocument parses HTML with goquery, wrapping failures as parse errors.
func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w: %w", model.ErrParse, err)
	}
	return doc, nil
}

// JSONLDPostings returns every JobPosting object in the document's
// ld+json scripts, looking through arrays, @graph and itemListElement.
func JSONLDPostings(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			return
		}
		collectPostings(v, 0, &out)
	})
	return out
}

func collectPostings(v any, depth int, out *[]map[string]any) {
	if depth > 4 {
		return
	}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			collectPostings(item, depth+1, out)
		}
	case map[string]any:
		if isType(val["@type"], "JobPosting") {
			*out = append(*out, val)
			return
		}
		if g, ok := val["@graph"]; ok {
			collectPostings(g, depth+1, out)
		}
		if items, ok := val["itemListElement"]; ok {
			collectPostings(items, depth+1, out)
		}
		if item, ok := val["item"]; ok {
			collectPostings(item, depth+1, out)
		}
	}
}

func isType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

// NextDataPayload decodes the Next.js __NEXT_DATA__ script, if present.
func NextDataPayload(doc *goquery.Document) (any, bool) {
	text := strings.TrimSpace(doc.Find(`script#__NEXT_DATA__`).First().Text())
	if text == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	return v, true
}

// GlobalPayload decodes the first `window.X = {...}` assignment found in the
// raw HTML. Decoding stops after one JSON value, so trailing `;` or template
// syntax after the literal is ignored.
func GlobalPayload(html string) (any, string, bool) {
	for _, marker := range globalMarkers {
		idx := strings.Index(html, marker)
		if idx < 0 {
			continue
		}
		rest := html[idx+len(marker):]
		eq := strings.Index(rest, "=")
		if eq < 0 {
			continue
		}
		rest = strings.TrimLeft(rest[eq+1:], " \t\r\n")
		if !strings.HasPrefix(rest, "{") && !strings.HasPrefix(rest, "[") {
			continue
		}
		var v any
		if err := json.NewDecoder(strings.NewReader(rest)).Decode(&v); err != nil {
			continue
		}
		return v, marker, true
	}
	return nil, "", false
}

// Visit walks v depth-first up to maxDepth, calling fn on every map. When fn
// returns false the map's children are not visited.
func Visit(v any, maxDepth int, fn func(m map[string]any) bool) {
	visit(v, 0, maxDepth, fn)
}

func visit(v any, depth, maxDepth int, fn func(map[string]any) bool) {
	if depth > maxDepth {
		return
	}
	switch val := v.(type) {
	case map[string]any:
		if !fn(val) {
			return
		}
		for _, child := range val {
			visit(child, depth+1, maxDepth, fn)
		}
	case []any:
		for _, child := range val {
			visit(child, depth+1, maxDepth, fn)
		}
	}
}

// Key sets used to read loosely shaped job objects.
var (
	titleKeys       = []string{"title", "jobTitle", "name", "text"}
	urlKeys         = []string{"url", "absolute_url", "absoluteUrl", "jobUrl", "hostedUrl", "externalUrl", "canonicalUrl", "applyUrl", "href", "link"}
	slugKeys        = []string{"slug", "path", "externalPath", "id"}
	locationKeys    = []string{"location", "locationName", "locationsText", "city", "jobLocation"}
	descriptionKeys = []string{"descriptionPlain", "description", "descriptionHtml", "content", "body"}
	publishedKeys   = []string{"publishedAt", "publishedDate", "datePosted", "createdAt", "postedAt", "updatedAt"}
	employmentKeys  = []string{"employmentType", "commitment", "workType"}
	jobHintKeys     = []string{"location", "locationName", "locationsText", "department", "departmentName", "team", "teamName", "employmentType", "commitment", "datePosted", "publishedAt", "publishedDate", "jobId", "requisitionId"}
)

// LooksLikeJob is the default predicate for hydration objects: a short title
// string, an address for the posting and at least one job-only field.
func LooksLikeJob(m map[string]any) bool {
	title := firstString(m, titleKeys...)
	if n := len([]rune(title)); n < 3 || n > 200 {
		return false
	}
	if firstString(m, urlKeys...) == "" && firstString(m, slugKeys...) == "" {
		return false
	}
	for _, k := range jobHintKeys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// jobFromMap builds a candidate from a loosely shaped object. Relative paths,
// slugs and ids are resolved against base.
func jobFromMap(m map[string]any, base string, platform model.PlatformKind) (model.CandidateJob, bool) {
	title := firstString(m, titleKeys...)
	link := firstString(m, urlKeys...)
	if link == "" {
		if slug := firstString(m, slugKeys...); slug != "" {
			link = joinPath(base, slug)
		}
	} else {
		link = resolveURL(base, link)
	}
	if title == "" || link == "" {
		return model.CandidateJob{}, false
	}

	job := model.CandidateJob{
		Title:          strings.TrimSpace(title),
		URL:            link,
		Location:       locationString(firstValue(m, locationKeys...)),
		EmploymentType: stringOrJoined(firstValue(m, employmentKeys...)),
		Platform:       platform,
	}
	if d := firstString(m, descriptionKeys...); d != "" {
		job.Description = ExtractParagraphs(d)
	}
	job.PublishedAt = ParseTime(firstValue(m, publishedKeys...))
	job.Tags = nonEmpty(firstString(m, "department", "departmentName"), firstString(m, "team", "teamName"))
	if remote, ok := m["isRemote"].(bool); ok {
		job.IsRemote = remote
	}
	return job, true
}

func joinPath(base, slug string) string {
	if strings.HasPrefix(slug, "http://") || strings.HasPrefix(slug, "https://") {
		return slug
	}
	if strings.HasPrefix(slug, "/") {
		return resolveURL(base, slug)
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + slug
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString returns the first key whose value is a non-empty string or number.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func stringOrJoined(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var parts []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// locationString flattens the location shapes seen in the wild: plain
// strings, {name}, {city, country} and schema.org Place/PostalAddress.
func locationString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var parts []string
		for _, e := range t {
			if s := locationString(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if addr, ok := t["address"]; ok {
			return locationString(addr)
		}
		if name := firstString(t, "name", "locationName"); name != "" {
			return name
		}
		country := firstString(t, "country", "addressCountry")
		if c, ok := t["addressCountry"].(map[string]any); ok {
			country = firstString(c, "name")
		}
		return strings.Join(nonEmpty(
			firstString(t, "city", "addressLocality"),
			firstString(t, "region", "addressRegion"),
			country,
		), ", ")
	}
	return ""
}

// JSONLDStrategy reads JobPosting objects from ld+json scripts.
type JSONLDStrategy struct{}

func NewJSONLDStrategy() *JSONLDStrategy { return &JSONLDStrategy{} }

func (s *JSONLDStrategy) Name() string       { return "jsonld" }
func (s *JSONLDStrategy) Kind() StrategyKind { return KindEmbedded }

func (s *JSONLDStrategy) Extract(_ context.Context, page Page) (Result, error) {
	doc, err := parseDocument(page.HTML)
	if err != nil {
		return Result{}, err
	}
	postings := JSONLDPostings(doc)

	var res Result
	for _, p := range postings {
		job, ok := JobFromPosting(p, page.URL, len(postings) == 1)
		if !ok {
			continue
		}
		res.Jobs = append(res.Jobs, job)
		if res.Company == nil {
			res.Company = CompanyFromPosting(p)
		}
	}
	return res, nil
}

// JobFromPosting converts a schema.org JobPosting. A posting without a url
// takes pageURL when it is the only one on the page.
func JobFromPosting(p map[string]any, pageURL string, single bool) (model.CandidateJob, bool) {
	link := firstString(p, "url", "sameAs")
	if link == "" && single {
		link = pageURL
	}
	link = resolveURL(pageURL, link)
	title := firstString(p, "title", "name")
	if title == "" || link == "" {
		return model.CandidateJob{}, false
	}

	job := model.CandidateJob{
		Title:          title,
		URL:            link,
		Location:       locationString(p["jobLocation"]),
		EmploymentType: stringOrJoined(p["employmentType"]),
		Description:    ExtractParagraphs(firstString(p, "description")),
		PublishedAt:    ParseTime(p["datePosted"]),
		Platform:       model.PlatformJSONLD,
	}
	if t, _ := p["jobLocationType"].(string); strings.EqualFold(t, "TELECOMMUTE") {
		job.IsRemote = true
		if job.Location == "" {
			job.Location = "Remote"
		}
	}
	return job, true
}

// CompanyFromPosting reads hiringOrganization, or nil when absent.
func CompanyFromPosting(p map[string]any) *model.CompanyInfo {
	org, ok := p["hiringOrganization"].(map[string]any)
	if !ok {
		if name, ok := p["hiringOrganization"].(string); ok && name != "" {
			return &model.CompanyInfo{Name: name}
		}
		return nil
	}
	info := &model.CompanyInfo{
		Name:        firstString(org, "name"),
		Description: ExtractText(firstString(org, "description")),
		Website:     firstString(org, "sameAs", "url"),
	}
	switch logo := org["logo"].(type) {
	case string:
		info.Logo = logo
	case map[string]any:
		info.Logo = firstString(logo, "url", "contentUrl")
	}
	if info.Name == "" {
		return nil
	}
	return info
}

// NextDataStrategy searches the Next.js hydration payload for job arrays.
type NextDataStrategy struct {
	looksLikeJob func(map[string]any) bool
}

// NewNextDataStrategy creates the strategy; a nil predicate means LooksLikeJob.
func NewNextDataStrategy(looksLikeJob func(map[string]any) bool) *NextDataStrategy {
	if looksLikeJob == nil {
		looksLikeJob = LooksLikeJob
	}
	return &NextDataStrategy{looksLikeJob: looksLikeJob}
}

func (s *NextDataStrategy) Name() string       { return "nextdata" }
func (s *NextDataStrategy) Kind() StrategyKind { return KindEmbedded }

func (s *NextDataStrategy) Extract(_ context.Context, page Page) (Result, error) {
	doc, err := parseDocument(page.HTML)
	if err != nil {
		return Result{}, err
	}
	payload, ok := NextDataPayload(doc)
	if !ok {
		return Result{}, nil
	}
	return Result{Jobs: visitJobs(payload, page.URL, model.PlatformNextJS, s.looksLikeJob)}, nil
}

func visitJobs(payload any, base string, platform model.PlatformKind, looksLikeJob func(map[string]any) bool) []model.CandidateJob {
	var jobs []model.CandidateJob
	Visit(payload, MaxVisitDepth, func(m map[string]any) bool {
		if !looksLikeJob(m) {
			return true
		}
		if job, ok := jobFromMap(m, base, platform); ok {
			jobs = append(jobs, job)
		}
		return false
	})
	return jobs
}

// AppDataStrategy reads a global `window.__appData = {...}` assignment, the
// shape Ashby-hosted boards render.
type AppDataStrategy struct {
	looksLikeJob func(map[string]any) bool
}

func NewAppDataStrategy() *AppDataStrategy {
	return &AppDataStrategy{looksLikeJob: LooksLikeJob}
}

func (s *AppDataStrategy) Name() string       { return "appdata" }
func (s *AppDataStrategy) Kind() StrategyKind { return KindEmbedded }

func (s *AppDataStrategy) Extract(_ context.Context, page Page) (Result, error) {
	payload, _, ok := GlobalPayload(page.HTML)
	if !ok {
		return Result{}, nil
	}
	root, _ := payload.(map[string]any)

	var res Result
	if org, ok := root["organization"].(map[string]any); ok {
		if name := firstString(org, "name"); name != "" {
			res.Company = &model.CompanyInfo{
				Name:    name,
				Website: firstString(org, "publicWebsite", "website"),
				Logo:    firstString(org, "logoImageUrl", "logo"),
			}
		}
	}

	platform := page.Platform
	if platform == "" || platform == model.PlatformUnknown {
		platform = model.PlatformGeneric
	}
	if board, ok := root["jobBoard"].(map[string]any); ok {
		if postings, ok := board["jobPostings"].([]any); ok {
			for _, p := range postings {
				m, ok := p.(map[string]any)
				if !ok {
					continue
				}
				if listed, ok := m["isListed"].(bool); ok && !listed {
					continue
				}
				if job, ok := jobFromMap(m, page.URL, platform); ok {
					res.Jobs = append(res.Jobs, job)
				}
			}
			return res, nil
		}
	}

	res.Jobs = visitJobs(payload, page.URL, platform, s.looksLikeJob)
	return res, nil
}

package enrich

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/ai"
	"github.com/amishk599/careercrawl/internal/model"
)

// Cascade level names, stored in Detail.Source.
const (
	SourceJSONLD    = "jsonld"
	SourceNextData  = "nextdata"
	SourceAppData   = "appdata"
	SourceMeta      = "meta"
	SourcePlatform  = "platform_selector"
	SourceGeneric   = "generic_selector"
	SourceAI        = "ai"
	maxAIInputRunes = 30000
)

// descriptionKeys are the payload fields a hydration description hides in.
var descriptionKeys = map[string]bool{
	"description":      true,
	"descriptionHtml":  true,
	"descriptionPlain": true,
	"jobDescription":   true,
	"content":          true,
	"body":             true,
}

// Extract runs the description cascade over an already fetched page. Each
// level runs only if the previous ones found no usable description.
// Requirements and benefits are mined from the page regardless of level.
func (e *Enricher) Extract(ctx context.Context, pageURL, html string) Detail {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Debug("detail parse failed", "url", pageURL, "error", err)
		return Detail{}
	}

	var d Detail
	best := func(text, source string) bool {
		text = strings.TrimSpace(text)
		if len(text) > len(d.Description) {
			d.Description, d.Source = text, source
		}
		return usable(d.Description)
	}

	d.Requirements, d.Benefits = MineLists(doc)

	// 1. JSON-LD JobPosting.
	if postings := adapter.JSONLDPostings(doc); len(postings) > 0 {
		p := postings[0]
		d.Company = adapter.CompanyFromPosting(p)
		d.PublishedAt = adapter.ParseTime(p["datePosted"])
		if apply, ok := p["url"].(string); ok && apply != "" && model.NormalizeURL(apply) != model.NormalizeURL(pageURL) {
			d.ApplyURL = apply
		}
		desc, _ := p["description"].(string)
		if best(adapter.ExtractParagraphs(desc), SourceJSONLD) && d.Company != nil {
			return finish(d)
		}
	}

	// 2. Next.js hydration payload.
	if !usable(d.Description) {
		if payload, ok := adapter.NextDataPayload(doc); ok {
			best(deepDescription(payload), SourceNextData)
		}
	}

	// 3. Global app-data object.
	if !usable(d.Description) {
		if payload, _, ok := adapter.GlobalPayload(html); ok {
			best(deepDescription(payload), SourceAppData)
		}
	}

	// 4. Meta description.
	if !usable(d.Description) {
		for _, sel := range []string{`meta[property="og:description"]`, `meta[name="description"]`} {
			if content, ok := doc.Find(sel).First().Attr("content"); ok && best(adapter.ExtractText(content), SourceMeta) {
				break
			}
		}
	}

	// 5 and 6 read visible text, so strip noise first.
	platform := adapter.Detect(pageURL, html)
	if !usable(d.Description) {
		clean := doc.Clone()
		clean.Find(noiseSelector(platform)).Remove()
		if text := firstSelectorText(clean, platformSelectors[platform]); text != "" {
			best(text, SourcePlatform)
		}
		if !usable(d.Description) {
			if text := firstSelectorText(clean, genericSelectors); text != "" {
				best(text, SourceGeneric)
			}
		}
	}

	// 7. AI extraction.
	if !usable(d.Description) && e.ai != nil {
		if text := e.aiDescription(ctx, pageURL, doc); text != "" {
			best(text, SourceAI)
		}
	}

	return finish(d)
}

func (e *Enricher) aiDescription(ctx context.Context, pageURL string, doc *goquery.Document) string {
	body := SimplifiedBody(doc)
	if body == "" {
		return ""
	}
	out, err := e.ai.ExtractDescription(ctx, body)
	if err != nil {
		if errors.Is(err, model.ErrAIUnavailable) {
			e.logger.Debug("ai extraction unavailable", "url", pageURL, "error", err)
		} else {
			e.logger.Warn("ai extraction failed", "url", pageURL, "error", err)
		}
		return ""
	}
	if ai.IsNoDescription(out) {
		return ""
	}
	return out
}

// SimplifiedBody returns the visible text of the page with chrome removed,
// capped for the AI request.
func SimplifiedBody(doc *goquery.Document) string {
	clean := doc.Clone()
	clean.Find("script, style, noscript, nav, footer, header, svg, iframe, form").Remove()
	text := cleanWhitespace(clean.Find("body").Text())
	return truncateRunes(text, maxAIInputRunes)
}

func usable(s string) bool {
	return len(s) > MinUsableDescription
}

func finish(d Detail) Detail {
	d.Description = truncateRunes(d.Description, MaxDescriptionRunes)
	return d
}

// deepDescription returns the longest description-like string field in a
// hydration payload.
func deepDescription(payload any) string {
	var longest string
	adapter.Visit(payload, adapter.MaxVisitDepth, func(m map[string]any) bool {
		for k, v := range m {
			s, ok := v.(string)
			if !ok || !descriptionKeys[k] {
				continue
			}
			if text := adapter.ExtractParagraphs(s); len(text) > len(longest) {
				longest = text
			}
		}
		return true
	})
	return longest
}

func firstSelectorText(root *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		s := root.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if text := cleanWhitespace(s.Text()); usable(text) {
			return text
		}
	}
	return ""
}

// cleanWhitespace trims every line and drops the empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

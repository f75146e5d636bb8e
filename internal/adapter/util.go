package adapter

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	blockTagRegex  = regexp.MustCompile(`(?i)</?(p|div|br|li|ul|ol|h[1-6]|tr|section)[^>]*>`)
	blankLineRegex = regexp.MustCompile(`\n\s*\n+`)
)

// ExtractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), strips all tags, unescapes the remaining
// text entities, then collapses whitespace.
func ExtractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := html.UnescapeString(htmlTagRegex.ReplaceAllString(unescaped, " "))
	return strings.Join(strings.Fields(plain), " ")
}

// ExtractParagraphs is ExtractText that keeps block boundaries as newlines.
func ExtractParagraphs(content string) string {
	unescaped := html.UnescapeString(content)
	withBreaks := blockTagRegex.ReplaceAllString(unescaped, "\n")
	plain := html.UnescapeString(htmlTagRegex.ReplaceAllString(withBreaks, " "))

	lines := strings.Split(plain, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	out := blankLineRegex.ReplaceAllString(strings.Join(lines, "\n"), "\n")
	return strings.TrimSpace(out)
}

// resolveURL resolves href against base. It returns "" for hrefs that are
// not navigable (javascript:, mailto:, fragments).
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
}

// ParseTime accepts the date shapes ATS payloads use: RFC3339 variants,
// bare dates and unix seconds or milliseconds.
func ParseTime(v any) *time.Time {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unixTime(n)
		}
	case float64:
		return unixTime(int64(val))
	case int64:
		return unixTime(val)
	}
	return nil
}

func unixTime(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var t time.Time
	if n > 1e12 {
		t = time.UnixMilli(n).UTC()
	} else {
		t = time.Unix(n, 0).UTC()
	}
	return &t
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(u *url.URL) []string {
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// firstSegment returns the first path segment of rawURL, or "".
func firstSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := pathSegments(u)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

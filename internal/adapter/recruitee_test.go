package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecruiteeExtract(t *testing.T) {
	var gotHost, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost, gotPath = r.Host, r.URL.Path
		jsonHandler(`{"offers": [{
			"title": "Frontend Developer",
			"careers_url": "https://acme.recruitee.com/o/frontend-developer",
			"location": "Amsterdam, Netherlands",
			"remote": false,
			"employment_type_code": "fulltime",
			"description": "<p>Ship UI.</p>",
			"requirements": "<ul><li>React</li><li>TypeScript</li></ul>",
			"published_at": "2026-02-02 10:00:00 UTC",
			"department": "Engineering"
		}]}`)(w, r)
	}))
	defer srv.Close()

	s := NewRecruiteeStrategy(newTestClient(srv))
	res, err := s.Extract(context.Background(), Page{URL: "https://acme.recruitee.com/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/offers/" || gotHost != "acme.recruitee.com" {
		t.Errorf("unexpected request host=%s path=%s", gotHost, gotPath)
	}
	if len(res.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(res.Jobs))
	}
	j := res.Jobs[0]
	if len(j.Requirements) != 2 {
		t.Errorf("expected 2 requirements, got %v", j.Requirements)
	}
	if j.Description != "Ship UI.\nReact\nTypeScript" {
		t.Errorf("unexpected description %q", j.Description)
	}
}

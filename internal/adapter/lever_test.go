package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLeverExtract_Success(t *testing.T) {
	payload := `[
		{
			"id": "abc-123",
			"text": "Senior Backend Engineer",
			"descriptionPlain": "Join the payments team.",
			"lists": [
				{"text": "Requirements", "content": "<li>5+ years of Go</li><li>Postgres</li>"},
				{"text": "What we offer", "content": "<li>Equity</li>"},
				{"text": "About the team", "content": "<li>ignored</li>"}
			],
			"categories": {
				"team": "Payments",
				"department": "Engineering",
				"location": "Berlin",
				"commitment": "Full-time",
				"allLocations": ["Berlin", "Remote - EU"]
			},
			"createdAt": 1770000000000,
			"workplaceType": "remote",
			"hostedUrl": "https://jobs.lever.co/acme/abc-123",
			"applyUrl": "https://jobs.lever.co/acme/abc-123/apply"
		}
	]`
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		jsonHandler(payload)(w, r)
	}))
	defer srv.Close()

	s := NewLeverStrategy(newTestClient(srv))
	res, err := s.Extract(context.Background(), Page{URL: "https://jobs.lever.co/acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotURL != "/v0/postings/acme?mode=json" {
		t.Errorf("unexpected request URL %s", gotURL)
	}
	if len(res.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(res.Jobs))
	}

	j := res.Jobs[0]
	if j.Location != "Berlin, Remote - EU" {
		t.Errorf("expected allLocations joined, got %q", j.Location)
	}
	if j.EmploymentType != "Full-time" || !j.IsRemote {
		t.Errorf("unexpected commitment/remote: %+v", j)
	}
	if len(j.Requirements) != 2 || j.Requirements[0] != "5+ years of Go" {
		t.Errorf("unexpected requirements %v", j.Requirements)
	}
	if len(j.Benefits) != 1 || j.Benefits[0] != "Equity" {
		t.Errorf("unexpected benefits %v", j.Benefits)
	}
	want := time.UnixMilli(1770000000000).UTC()
	if j.PublishedAt == nil || !j.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", j.PublishedAt, want)
	}
	if j.ApplyURL != "https://jobs.lever.co/acme/abc-123/apply" {
		t.Errorf("unexpected apply url %s", j.ApplyURL)
	}
}

func TestLeverExtract_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewLeverStrategy(newTestClient(srv))
	if _, err := s.Extract(context.Background(), Page{URL: "https://jobs.lever.co/gone"}); err == nil {
		t.Fatal("expected error for HTTP 404, got nil")
	}
}

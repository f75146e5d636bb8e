package model

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing slash", "https://jobs.example.com/role/123/", "https://jobs.example.com/role/123"},
		{"query string", "https://jobs.example.com/role/123?utm_source=x", "https://jobs.example.com/role/123"},
		{"fragment", "https://jobs.example.com/role/123#apply", "https://jobs.example.com/role/123"},
		{"www and case", "HTTPS://WWW.Example.com/Role", "https://example.com/Role"},
		{"not a url", "  Not A URL/ ", "not a url"},
		{"identity query kept", "https://acme.com/careers/?utm_source=x&gh_jid=101#top", "https://acme.com/careers?gh_jid=101"},
		{"identity key lowercased", "https://acme.com/jobs?JobID=7&ref=li", "https://acme.com/jobs?jobid=7"},
		{"empty identity dropped", "https://acme.com/jobs?job_id=", "https://acme.com/jobs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJobID_StableAcrossEquivalentURLs(t *testing.T) {
	a := JobID("https://jobs.example.com/role/123")
	b := JobID("https://jobs.example.com/role/123/?ref=board")
	if a != b {
		t.Errorf("JobID differs for equivalent URLs: %s vs %s", a, b)
	}
	if c := JobID("https://jobs.example.com/role/124"); c == a {
		t.Errorf("JobID collided for different URLs: %s", c)
	}
	if JobID("https://acme.com/careers?gh_jid=101") == JobID("https://acme.com/careers?gh_jid=102") {
		t.Error("JobID collided for query-identified postings")
	}
	if a[:4] != "job_" {
		t.Errorf("JobID = %s, want job_ prefix", a)
	}
}

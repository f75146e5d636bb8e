package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/careercrawl/internal/model"
)

func TestLogNotifier_Notify_zeroJobs(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.Notify("Acme", nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify("Acme", []model.CandidateJob{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogNotifier_Notify_multipleJobs(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	published := time.Now().Add(-30 * time.Minute)
	jobs := []model.CandidateJob{
		{Title: "Engineer", Location: "Remote", URL: "https://example.com/1", PublishedAt: &published, IsRemote: true},
		{Title: "Developer", Location: "Berlin", URL: "https://example.com/2"},
	}
	if err := n.Notify("Acme", jobs); err != nil {
		t.Errorf("Notify(jobs) = %v, want nil", err)
	}

	out := buf.String()
	if got := strings.Count(out, `msg="new job"`); got != 2 {
		t.Errorf("logged %d jobs, want 2:\n%s", got, out)
	}
	for _, want := range []string{"company=Acme", "count=2", "url=https://example.com/2", "remote=true", "published_at="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

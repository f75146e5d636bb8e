// Package notifier reports newly inserted jobs.
package notifier

import (
	"log/slog"

	"github.com/amishk599/careercrawl/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly inserted jobs to the given logger as structured
// messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with company, title, category, location, URL and
// published_at. It never fails.
func (n *LogNotifier) Notify(companyName string, jobs []model.CandidateJob) error {
	if len(jobs) == 0 {
		return nil
	}
	n.logger.Info("new jobs", "company", companyName, "count", len(jobs))
	for _, j := range jobs {
		args := []any{"company", companyName, "title", j.Title, "category", j.Category, "location", j.Location, "url", j.URL}
		if j.IsRemote {
			args = append(args, "remote", true)
		}
		if j.PublishedAt != nil {
			args = append(args, "published_at", *j.PublishedAt)
		}
		n.logger.Info("new job", args...)
	}
	return nil
}

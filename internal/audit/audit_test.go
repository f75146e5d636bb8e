package audit

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/careercrawl/internal/crawler"
	"github.com/amishk599/careercrawl/internal/model"
	"github.com/amishk599/careercrawl/internal/reconcile"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPicker_NavigateAndSelect(t *testing.T) {
	var m tea.Model = newPicker([]model.CrawlTarget{
		{CompanyID: "a", CompanyName: "Acme", CareersURL: "https://jobs.ashbyhq.com/acme"},
		{CompanyID: "b", CompanyName: "Beta", CareersURL: "https://boards.greenhouse.io/beta", KeepStale: true},
	})

	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("up"))
	m, _ = m.Update(key("j"))
	if got := m.(pickerModel).cursor; got != 1 {
		t.Fatalf("cursor = %d, want 1", got)
	}
	view := m.View()
	for _, want := range []string{"Beta (greenhouse)", "boards.greenhouse.io", "keep-stale", "(2)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd := m.Update(key("enter"))
	if got := m.(pickerModel).chosen; got != 1 {
		t.Errorf("chosen = %d, want 1", got)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
}

func TestPicker_Quit(t *testing.T) {
	var m tea.Model = newPicker([]model.CrawlTarget{{CompanyName: "Acme"}})
	m, _ = m.Update(key("q"))
	if got := m.(pickerModel).chosen; got != quit {
		t.Errorf("chosen = %d, want %d", got, quit)
	}
}

func TestPicker_Scrolls(t *testing.T) {
	var targets []model.CrawlTarget
	for i := 0; i < visibleRows+5; i++ {
		targets = append(targets, model.CrawlTarget{CompanyName: fmt.Sprintf("Company %02d", i)})
	}
	var m tea.Model = newPicker(targets)
	m, _ = m.Update(key("G"))

	p := m.(pickerModel)
	if p.cursor != len(targets)-1 || p.offset != 5 {
		t.Fatalf("cursor=%d offset=%d", p.cursor, p.offset)
	}
	if view := m.View(); strings.Contains(view, "Company 00") || !strings.Contains(view, "Company 19") {
		t.Errorf("unexpected window:\n%s", view)
	}

	m, _ = m.Update(key("g"))
	if p := m.(pickerModel); p.cursor != 0 || p.offset != 0 {
		t.Errorf("after home cursor=%d offset=%d", p.cursor, p.offset)
	}
}

func TestLoader_DoneQuits(t *testing.T) {
	var m tea.Model = loaderModel{companyName: "Acme"}
	if !strings.Contains(m.View(), "Crawling Acme") {
		t.Errorf("view = %q", m.View())
	}
	m, cmd := m.Update(crawlDoneMsg{result: crawler.CompanyResult{CompanyName: "Acme", Status: crawler.StatusSuccess}})
	final := m.(loaderModel)
	if !final.done || final.result.Status != crawler.StatusSuccess || cmd == nil {
		t.Errorf("loader after done = %+v", final)
	}
	if final.View() != "" {
		t.Errorf("finished loader should render nothing, got %q", final.View())
	}
}

func TestReport(t *testing.T) {
	res := crawler.CompanyResult{
		CompanyName: "Acme",
		Status:      crawler.StatusSuccess,
		Platform:    model.PlatformAshby,
		Extracted:   3,
		Plan: reconcile.Plan{
			Upserts: []reconcile.Upsert{
				{Kind: reconcile.KindInsert, Job: model.PersistedJob{CandidateJob: model.CandidateJob{ID: "job_new", Title: "Backend Engineer", Location: "Berlin"}}},
				{Kind: reconcile.KindMigrate, Job: model.PersistedJob{CandidateJob: model.CandidateJob{ID: "job_1", Title: "Senior Backend Engineer"}}},
			},
			Deletes: []string{"job_old"},
		},
	}

	out := Report(res)
	for _, want := range []string{"Acme", "ashby", "insert", "Backend Engineer", "Berlin", "migrate", "job_1", "delete", "job_old"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	failed := Report(crawler.CompanyResult{CompanyName: "Acme", Status: crawler.StatusFailed, Err: errors.New("listing blocked")})
	if !strings.Contains(failed, "listing blocked") {
		t.Errorf("report missing error:\n%s", failed)
	}

	empty := Report(crawler.CompanyResult{CompanyName: "Acme", Status: crawler.StatusSuccess})
	if !strings.Contains(empty, "no changes") {
		t.Errorf("report missing no-changes line:\n%s", empty)
	}
}

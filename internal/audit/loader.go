package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/careercrawl/internal/crawler"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type crawlDoneMsg struct {
	result crawler.CompanyResult
	err    error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	companyName string
	crawlFn     func(ctx context.Context) (crawler.CompanyResult, error)
	timeout     time.Duration
	started     time.Time
	frame       int
	result      crawler.CompanyResult
	err         error
	done        bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doCrawl(), m.tick())
}

func (m loaderModel) doCrawl() tea.Cmd {
	crawlFn, timeout := m.crawlFn, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := crawlFn(ctx)
		return crawlDoneMsg{result: res, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case crawlDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = errors.New("cancelled")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	elapsed := ""
	if !m.started.IsZero() {
		elapsed = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(fmt.Sprintf(" %ds / %ds", int(time.Since(m.started).Seconds()), int(m.timeout.Seconds())))
	}
	return fmt.Sprintf("%s Crawling %s...%s\n", spinner, m.companyName, elapsed)
}

// RunLoader shows a spinner while crawlFn runs under timeout. It renders
// inline (no alt screen).
func RunLoader(companyName string, timeout time.Duration, crawlFn func(ctx context.Context) (crawler.CompanyResult, error)) (crawler.CompanyResult, error) {
	m := loaderModel{
		companyName: companyName,
		crawlFn:     crawlFn,
		timeout:     timeout,
		started:     time.Now(),
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return crawler.CompanyResult{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}

package audit

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/model"
)

// visibleRows is how many companies the picker shows at once.
const visibleRows = 15

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(1, 0, 1, 2)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 0, 0, 2)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = dimStyle.
			Padding(1, 0, 0, 2)
)

const (
	notChosen = -1
	quit      = -2
)

type pickerModel struct {
	companies []model.CrawlTarget
	cursor    int
	offset    int // first visible row
	chosen    int
}

func newPicker(companies []model.CrawlTarget) pickerModel {
	return pickerModel{companies: companies, chosen: notChosen}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.chosen = quit
		return m, tea.Quit
	case "enter":
		m.chosen = m.cursor
		if len(m.companies) == 0 {
			m.chosen = quit
		}
		return m, tea.Quit
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.companies) - 1
	}
	m.cursor = max(0, min(m.cursor, len(m.companies)-1))
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+visibleRows {
		m.offset = m.cursor - visibleRows + 1
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Crawl Audit: select a company (%d)", len(m.companies))))
	b.WriteString("\n")

	end := min(m.offset+visibleRows, len(m.companies))
	for i := m.offset; i < end; i++ {
		c := m.companies[i]
		label := fmt.Sprintf("%s (%s)", c.CompanyName, adapter.Detect(c.CareersURL, ""))
		detail := "  " + careersHost(c.CareersURL)
		if c.KeepStale {
			detail += "  keep-stale"
		}
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+label) + dimStyle.Render(detail) + "\n")
		} else {
			b.WriteString(rowStyle.Render(label) + dimStyle.Render(detail) + "\n")
		}
	}

	b.WriteString(hintStyle.Render("↑/↓/j/k navigate  g/G first/last  enter crawl (no writes)  q quit"))
	return b.String()
}

func careersHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// RunCompanyPicker shows an interactive company selector.
// Returns the index of the chosen company, or a negative value if the user quit.
func RunCompanyPicker(companies []model.CrawlTarget) (int, error) {
	result, err := tea.NewProgram(newPicker(companies)).Run()
	if err != nil {
		return notChosen, err
	}
	return result.(pickerModel).chosen, nil
}

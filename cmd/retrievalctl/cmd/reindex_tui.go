package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// reindexProgressMsg carries one ingestCompany stage update into the
// bubbletea program (grounded on the teacher's indexingModel/progressUpdateMsg
// split in internal/ui/tui.go).
type reindexProgressMsg struct {
	company string
	stage   string
	current int
	total   int
}

type reindexDoneMsg struct {
	company string
	chunks  int
	err     error
}

type reindexCompleteMsg struct{}

// reindexModel is the bubbletea model driving the reindex progress TUI.
type reindexModel struct {
	companies []string
	index     int

	stage       string
	current     int
	total       int
	chunks      map[string]int
	failed      map[string]error
	done        bool

	spinner     spinner.Model
	progressBar progress.Model
}

func newReindexModel(companies []string) *reindexModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	p := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))

	return &reindexModel{
		companies:   companies,
		chunks:      make(map[string]int),
		failed:      make(map[string]error),
		spinner:     s,
		progressBar: p,
	}
}

func (m *reindexModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *reindexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case reindexProgressMsg:
		m.stage, m.current, m.total = msg.stage, msg.current, msg.total
		return m, nil

	case reindexDoneMsg:
		if msg.err != nil {
			m.failed[msg.company] = msg.err
		} else {
			m.chunks[msg.company] = msg.chunks
		}
		m.index++
		return m, nil

	case reindexCompleteMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *reindexModel) View() string {
	var b strings.Builder

	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("retrievalctl reindex — %d/%d companies", m.index, len(m.companies)))
	b.WriteString(header + "\n\n")

	if m.done {
		b.WriteString(m.renderSummary())
		return b.String()
	}

	var company string
	if m.index < len(m.companies) {
		company = m.companies[m.index]
	}

	fmt.Fprintf(&b, "%s %s (%s)\n", m.spinner.View(), company, m.stage)
	if m.total > 0 {
		fmt.Fprintf(&b, "%s %d/%d\n", m.progressBar.ViewAs(float64(m.current)/float64(m.total)), m.current, m.total)
	}
	b.WriteString("\nq to quit\n")
	return b.String()
}

func (m *reindexModel) renderSummary() string {
	success := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failure := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	var b strings.Builder
	for _, c := range m.companies {
		if err, ok := m.failed[c]; ok {
			b.WriteString(failure.Render(fmt.Sprintf("✗ %s: %v\n", c, err)))
			continue
		}
		b.WriteString(success.Render(fmt.Sprintf("✓ %s: %d chunks\n", c, m.chunks[c])))
	}
	return b.String()
}

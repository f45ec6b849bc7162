// Package monitor renders a live view of a running scheduler: a full
// bubbletea dashboard for an interactive terminal, and a plain aligned
// summary line for anything else (piped output, CI logs).
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cml-go/cml/internal/metric"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle = lipgloss.NewStyle().Bold(true)
)

type tickMsg time.Time

// Model is a bubbletea model polling a scheduler's metrics on a fixed
// interval.
type Model struct {
	metrics  *metric.Scheduler
	interval time.Duration
	parked   progress.Model
	printer  *message.Printer
	last     metric.Snapshot
	ticks    int
}

// New builds a dashboard model that refreshes hz times per second.
func New(m *metric.Scheduler, hz int) Model {
	if hz <= 0 {
		hz = 4
	}
	return Model{
		metrics:  m,
		interval: time.Second / time.Duration(hz),
		parked:   progress.New(progress.WithDefaultGradient()),
		printer:  message.NewPrinter(language.English),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" || msg.String() == "esc" {
			return m, tea.Quit
		}
	case tickMsg:
		m.last = m.metrics.Snapshot()
		m.ticks++
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	s := m.last
	total := s.WorkersActive + s.WorkersParked
	frac := 0.0
	if total > 0 {
		frac = float64(s.WorkersParked) / float64(total)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("cml scheduler"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("workers parked "))
	b.WriteString(m.parked.ViewAs(frac))
	b.WriteString("\n\n")
	b.WriteString(row("active", valueStyle.Render(fmt.Sprint(s.WorkersActive))))
	b.WriteString(row("parked", valueStyle.Render(fmt.Sprint(s.WorkersParked))))
	b.WriteString(row("jobs spawned", valueStyle.Render(m.printer.Sprintf("%d", s.JobsSpawned))))
	b.WriteString(row("jobs completed", valueStyle.Render(m.printer.Sprintf("%d", s.JobsCompleted))))
	b.WriteString(row("jobs failed", valueStyle.Render(m.printer.Sprintf("%d", s.JobsFailed))))
	b.WriteString(row("shared stack depth", valueStyle.Render(fmt.Sprint(s.SharedDepth))))
	b.WriteString(row("picks committed", valueStyle.Render(m.printer.Sprintf("%d", s.PicksCommitted))))
	b.WriteString(row("nacks fired", valueStyle.Render(fmt.Sprint(s.NacksFired))))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("press q to quit"))
	return b.String()
}

func row(label, value string) string {
	padded := label + strings.Repeat(" ", max(0, 20-runewidth.StringWidth(label)))
	return labelStyle.Render(padded) + value + "\n"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run blocks running the dashboard until the user quits.
func Run(m *metric.Scheduler, hz int) error {
	p := tea.NewProgram(New(m, hz))
	_, err := p.Run()
	return err
}

// PlainSummary renders one aligned, non-interactive summary line, for
// output that is not a TTY.
func PlainSummary(s metric.Snapshot) string {
	printer := message.NewPrinter(language.English)
	return printer.Sprintf(
		"workers=%d/%d parked  jobs=%d/%d/%d spawned/done/failed  shared=%d  picks=%d  nacks=%d",
		s.WorkersParked, s.WorkersActive+s.WorkersParked,
		s.JobsSpawned, s.JobsCompleted, s.JobsFailed,
		s.SharedDepth, s.PicksCommitted, s.NacksFired,
	)
}

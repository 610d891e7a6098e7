package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fibiter/internal/config"
	"github.com/agbru/fibiter/internal/format"
	"github.com/agbru/fibiter/internal/orchestration"
)

// maxLogEntries bounds the memory used by the term log.
const maxLogEntries = 5000

// LogsModel is the scrollable term log on the left of the dashboard.
type LogsModel struct {
	lines  []string
	offset int // first visible line when not following
	follow bool
	keymap KeyMap
	width  int
	height int
}

func NewLogsModel() LogsModel {
	return LogsModel{follow: true, keymap: DefaultKeyMap()}
}

func (l *LogsModel) SetSize(w, h int) {
	l.width = w
	l.height = h
}

func (l *LogsModel) visibleRows() int {
	return max(l.height-2, 1)
}

func (l *LogsModel) add(line string) {
	l.lines = append(l.lines, line)
	if over := len(l.lines) - maxLogEntries; over > 0 {
		l.lines = l.lines[over:]
		l.offset = max(l.offset-over, 0)
	}
}

// AddExecutionConfig writes the run parameters at the top of the log.
func (l *LogsModel) AddExecutionConfig(cfg config.AppConfig) {
	count := "unbounded"
	if cfg.Count > 0 {
		count = fmt.Sprintf("%d terms", cfg.Count)
	}
	l.add(metricLabelStyle.Render(fmt.Sprintf("Backend %s, start F(%d), %s, interval %s",
		cfg.Numeric, cfg.Start, count, cfg.Interval)))
}

// AddTerm appends one term line.
func (l *LogsModel) AddTerm(msg TermMsg) {
	l.add(fmt.Sprintf("%s %s %s",
		logIndexStyle.Render(fmt.Sprintf("F(%d)", msg.Index)),
		logValueStyle.Render("= "+msg.Value),
		logDigitsStyle.Render(fmt.Sprintf("[%d]", msg.Digits))))
}

// AddSummary appends the end-of-run line.
func (l *LogsModel) AddSummary(s orchestration.Summary) {
	l.add(logSuccessStyle.Render(fmt.Sprintf("Done: %d terms in %s, largest %d digits",
		s.Count, format.FormatExecutionDuration(s.Duration), s.MaxDigits)))
}

// AddError appends a failure line.
func (l *LogsModel) AddError(err error) {
	l.add(logErrorStyle.Render("Error: " + err.Error()))
}

// Reset clears the log.
func (l *LogsModel) Reset() {
	l.lines = nil
	l.offset = 0
	l.follow = true
}

// Update scrolls the log. Scrolling back to the bottom resumes following.
func (l *LogsModel) Update(msg tea.KeyMsg) {
	rows := l.visibleRows()
	maxOffset := max(len(l.lines)-rows, 0)
	if l.follow {
		l.offset = maxOffset
	}
	switch {
	case key.Matches(msg, l.keymap.Up):
		l.offset--
	case key.Matches(msg, l.keymap.Down):
		l.offset++
	case key.Matches(msg, l.keymap.PageUp):
		l.offset -= rows
	case key.Matches(msg, l.keymap.PageDown):
		l.offset += rows
	}
	l.offset = min(max(l.offset, 0), maxOffset)
	l.follow = l.offset == maxOffset
}

// visible returns the lines that fit in rows.
func (l LogsModel) visible(rows int) []string {
	if len(l.lines) <= rows {
		return l.lines
	}
	start := len(l.lines) - rows
	if !l.follow {
		start = min(l.offset, start)
	}
	return l.lines[start : start+rows]
}

// renderToHeight renders the panel with the given outer height so that it
// lines up with the right column.
func (l LogsModel) renderToHeight(h int) string {
	rows := max(h-2, 1)
	lines := l.visible(rows)
	inner := max(l.width-4, 1)
	out := make([]string, len(lines))
	for i, line := range lines {
		if lipgloss.Width(line) > inner {
			line = lipgloss.NewStyle().MaxWidth(inner).Render(line)
		}
		out[i] = " " + line
	}
	return panelStyle.
		Width(max(l.width-2, 0)).
		Height(rows).
		Render(strings.Join(out, "\n"))
}

func (l LogsModel) View() string {
	return l.renderToHeight(l.height)
}

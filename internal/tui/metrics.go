package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fibiter/internal/format"
)

// MetricsModel displays generation throughput and runtime memory.
type MetricsModel struct {
	terms        uint64
	lastIndex    uint64
	maxDigits    int
	rate         float64 // terms per second, smoothed
	windowTerms  uint64
	windowStart  time.Time
	heapAlloc    uint64
	sys          uint64
	numGC        uint32
	pauseTotalNs uint64
	numGoroutine int
	width        int
	height       int
}

func NewMetricsModel() MetricsModel {
	return MetricsModel{windowStart: time.Now()}
}

func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// AddTerm counts one term.
func (m *MetricsModel) AddTerm(msg TermMsg) {
	m.terms++
	m.windowTerms++
	m.lastIndex = msg.Index
	m.maxDigits = max(m.maxDigits, msg.Digits)
}

// UpdateRate folds the terms seen since the last call into the smoothed
// rate. It is called on every tick.
func (m *MetricsModel) UpdateRate(now time.Time) {
	dt := now.Sub(m.windowStart).Seconds()
	if dt < 0.05 {
		return
	}
	instant := float64(m.windowTerms) / dt
	if m.rate > 0 {
		m.rate = 0.7*m.rate + 0.3*instant
	} else {
		m.rate = instant
	}
	m.windowTerms = 0
	m.windowStart = now
}

func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.heapAlloc = msg.HeapAlloc
	m.sys = msg.Sys
	m.numGC = msg.NumGC
	m.pauseTotalNs = msg.PauseTotalNs
	m.numGoroutine = msg.NumGoroutine
}

func (m MetricsModel) View() string {
	var rows strings.Builder

	heapStr := metricValueStyle.Render(format.FormatBytes(m.heapAlloc) + " / " + format.FormatBytes(m.sys))
	gcStr := metricValueStyle.Render(fmt.Sprintf("%d (%.1fms)", m.numGC, float64(m.pauseTotalNs)/1e6))
	pipe := metricLabelStyle.Render(" | ")
	fmt.Fprintf(&rows, "  %s %s%s%s %s",
		metricLabelStyle.Render("Heap:"), heapStr, pipe, metricLabelStyle.Render("GC:"), gcStr)

	colWidth := (m.width - 6) / 2
	leftCol := []string{
		formatMetricCol("Terms:", fmt.Sprintf("%d", m.terms), colWidth),
		formatMetricCol("Rate:", fmt.Sprintf("%.1f/s", m.rate), colWidth),
	}
	rightCol := []string{
		formatMetricCol("Last index:", fmt.Sprintf("%d", m.lastIndex), colWidth),
		formatMetricCol("Max digits:", format.FormatNumberString(fmt.Sprintf("%d", m.maxDigits)), colWidth),
	}
	for i := range leftCol {
		rows.WriteString("\n")
		rows.WriteString(leftCol[i])
		rows.WriteString(rightCol[i])
	}
	rows.WriteString("\n")
	rows.WriteString(formatMetricCol("Goroutines:", fmt.Sprintf("%d", m.numGoroutine), colWidth))

	return panelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(rows.String())
}

func formatMetricCol(label, value string, colWidth int) string {
	cell := fmt.Sprintf(" %s %s",
		metricLabelStyle.Render(fmt.Sprintf("%-12s", label)),
		metricValueStyle.Render(value))
	if visible := lipgloss.Width(cell); visible < colWidth {
		cell += strings.Repeat(" ", colWidth-visible)
	}
	return cell
}

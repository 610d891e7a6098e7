package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fibiter/internal/format"
)

// HeaderModel renders the top bar: title, version, backend and elapsed time.
type HeaderModel struct {
	startTime time.Time
	endTime   time.Time
	version   string
	backend   string
	width     int
}

func NewHeaderModel(version, backend string) HeaderModel {
	return HeaderModel{
		startTime: time.Now(),
		version:   version,
		backend:   backend,
	}
}

// SetDone freezes the elapsed timer.
func (h *HeaderModel) SetDone() {
	h.endTime = time.Now()
}

// Reset restarts the elapsed timer.
func (h *HeaderModel) Reset() {
	h.startTime = time.Now()
	h.endTime = time.Time{}
}

func (h *HeaderModel) SetWidth(w int) {
	h.width = w
}

// Elapsed returns the running time, frozen once SetDone was called.
func (h HeaderModel) Elapsed() time.Duration {
	if !h.endTime.IsZero() {
		return h.endTime.Sub(h.startTime)
	}
	return time.Since(h.startTime)
}

func (h HeaderModel) View() string {
	titleText := "fibiter"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	pipe := versionStyle.Render(" | ")
	left := titleStyle.Render(titleText) + pipe +
		versionStyle.Render("backend: "+h.backend) + pipe +
		elapsedStyle.Render(fmt.Sprintf("Elapsed: %s", format.FormatExecutionDuration(h.Elapsed())))

	gap := max(h.width-2-lipgloss.Width(left), 0)
	return headerStyle.Width(h.width).Render(left + spaces(gap))
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%*s", n, "")
}

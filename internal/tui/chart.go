package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/agbru/fibiter/internal/format"
)

// sampleHistory is the number of CPU and memory samples kept.
const sampleHistory = 120

// ChartModel plots digit growth and system usage.
type ChartModel struct {
	digits   *RingBuffer
	cpu      *RingBuffer
	mem      *RingBuffer
	progress float64
	eta      time.Duration
	done     bool
	elapsed  time.Duration
	width    int
	height   int
}

func NewChartModel() ChartModel {
	return ChartModel{
		digits: NewRingBuffer(sampleHistory),
		cpu:    NewRingBuffer(sampleHistory),
		mem:    NewRingBuffer(sampleHistory),
	}
}

// SetSize resizes the panel and the digit history to twice the plot width,
// since each braille cell holds two points.
func (c *ChartModel) SetSize(w, h int) {
	c.width = w
	c.height = h
	c.digits.Resize(max((w-4)*2, 1))
}

// AddTerm records the digit count of a new term.
func (c *ChartModel) AddTerm(digits int) {
	c.digits.Push(float64(digits))
}

func (c *ChartModel) UpdateProgress(progress float64, eta time.Duration) {
	c.progress = progress
	c.eta = eta
}

func (c *ChartModel) UpdateSysStats(cpuPct, memPct float64) {
	c.cpu.Push(cpuPct)
	c.mem.Push(memPct)
}

func (c *ChartModel) SetDone(elapsed time.Duration) {
	c.done = true
	c.elapsed = elapsed
	c.progress = 1
}

func (c *ChartModel) Reset() {
	c.digits.Reset()
	c.cpu.Reset()
	c.mem.Reset()
	c.progress = 0
	c.eta = 0
	c.done = false
	c.elapsed = 0
}

// scaled maps the digit history onto 0..100 relative to its maximum.
func (c ChartModel) scaled() []float64 {
	values := c.digits.Slice()
	top := c.digits.Max()
	if top <= 0 {
		return values
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / top * 100
	}
	return out
}

func (c ChartModel) View() string {
	inner := max(c.width-4, 1)
	// Borders, title, progress bar and two sparkline rows.
	chartRows := max(c.height-2-4, 1)

	var b strings.Builder
	fmt.Fprintf(&b, " %s %s\n", metricLabelStyle.Render("Digits"),
		metricValueStyle.Render(fmt.Sprintf("%.0f", c.digits.Last())))
	for _, row := range RenderBrailleChart(c.scaled(), inner, chartRows) {
		b.WriteString(" " + chartBarStyle.Render(row) + "\n")
	}
	if c.digits.Len() == 0 {
		for range chartRows {
			b.WriteString(" " + chartEmptyStyle.Render(strings.Repeat("·", inner)) + "\n")
		}
	}

	status := format.FormatETA(c.eta)
	if c.done {
		status = "done in " + format.FormatExecutionDuration(c.elapsed)
	}
	barWidth := max(inner-24, 4)
	fmt.Fprintf(&b, " %s %s\n", chartBarStyle.Render(format.ProgressBar(c.progress, barWidth)),
		metricLabelStyle.Render(fmt.Sprintf("%5.1f%% %s", c.progress*100, status)))

	spark := max(inner-14, 1)
	fmt.Fprintf(&b, " %s %s %s\n", metricLabelStyle.Render("CPU"),
		cpuSparklineStyle.Render(RenderSparkline(tail(c.cpu.Slice(), spark))),
		metricValueStyle.Render(fmt.Sprintf("%5.1f%%", c.cpu.Last())))
	fmt.Fprintf(&b, " %s %s %s", metricLabelStyle.Render("MEM"),
		memSparklineStyle.Render(RenderSparkline(tail(c.mem.Slice(), spark))),
		metricValueStyle.Render(fmt.Sprintf("%5.1f%%", c.mem.Last())))

	return panelStyle.
		Width(max(c.width-2, 0)).
		Height(max(c.height-2, 0)).
		Render(b.String())
}

func tail(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

package tui

import (
	"context"
	"errors"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fibiter/internal/config"
	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/metrics"
	"github.com/agbru/fibiter/internal/orchestration"
	"github.com/agbru/fibiter/internal/sysmon"
)

// SourceFunc builds a fresh source for every (re)started run.
type SourceFunc func() (fibonacci.Source, error)

// ExecutionState holds the run-related fields of a session.
type ExecutionState struct {
	ctx        context.Context
	cancel     context.CancelFunc
	newSource  SourceFunc
	generation uint64
	done       bool
	exitCode   int
}

// LayoutManager holds terminal dimensions and derives the panel sizes.
type LayoutManager struct {
	width  int
	height int
}

func (l LayoutManager) bodyHeight() int {
	return max(l.height-headerHeight-footerHeight, minBodyHeight)
}

func (l LayoutManager) logsWidth() int {
	return l.width * LogsPanelWidthPercent / 100
}

func (l LayoutManager) rightWidth() int {
	return l.width - l.logsWidth()
}

func (l LayoutManager) metricsHeight() int {
	return min(MetricsPanelHeight, l.bodyHeight()/2)
}

func (l LayoutManager) chartHeight() int {
	return l.bodyHeight() - l.metricsHeight()
}

// Model is the root bubbletea model of the dashboard.
type Model struct {
	header  HeaderModel
	logs    LogsModel
	metrics MetricsModel
	chart   ChartModel
	footer  FooterModel

	keymap KeyMap

	ExecutionState
	LayoutManager

	parentCtx context.Context
	config    config.AppConfig
	ref       *programRef
	collector *metrics.MemoryCollector
	sampler   *sysmon.Sampler
	paused    bool
}

// NewModel creates the dashboard model. newSource is called once per run.
func NewModel(parentCtx context.Context, newSource SourceFunc, cfg config.AppConfig, version string) Model {
	ctx, cancel := context.WithCancel(parentCtx)

	logs := NewLogsModel()
	logs.AddExecutionConfig(cfg)

	return Model{
		header:  NewHeaderModel(version, cfg.Numeric),
		logs:    logs,
		metrics: NewMetricsModel(),
		chart:   NewChartModel(),
		footer:  NewFooterModel(),
		keymap:  DefaultKeyMap(),
		ExecutionState: ExecutionState{
			ctx:       ctx,
			cancel:    cancel,
			newSource: newSource,
			exitCode:  apperrors.ExitSuccess,
		},
		parentCtx: parentCtx,
		config:    cfg,
		ref:       &programRef{},
		collector: metrics.NewMemoryCollector(),
		sampler:   sysmon.NewSampler(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		startGenerationCmd(m.ref, m.ctx, m.newSource, m.config, m.generation),
		watchContextCmd(m.ctx, m.generation),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case TermMsg:
		m.metrics.AddTerm(msg)
		if !m.paused {
			m.logs.AddTerm(msg)
			m.chart.AddTerm(msg.Digits)
		}
		return m, nil

	case ProgressMsg:
		m.chart.UpdateProgress(msg.Value, msg.ETA)
		return m, nil

	case ProgressDoneMsg:
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		m.metrics.UpdateRate(time.Time(msg))
		if !m.paused {
			return m, tea.Batch(sampleMemStatsCmd(m.collector), sampleSysStatsCmd(m.sampler), tickCmd())
		}
		return m, tickCmd()

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)
		return m, nil

	case SysStatsMsg:
		m.chart.UpdateSysStats(msg.CPUPercent, msg.MemPercent)
		return m, nil

	case GenerationCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.exitCode = msg.ExitCode
		m.header.SetDone()
		m.footer.SetDone(true)
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.logs.AddError(msg.Err)
			m.footer.SetError(true)
			return m, nil
		}
		m.logs.AddSummary(msg.Summary)
		m.chart.SetDone(m.header.Elapsed())
		return m, nil

	case ContextCancelledMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		if !m.done {
			m.done = true
			m.exitCode = apperrors.ExitCodeFor(msg.Err)
			m.header.SetDone()
			m.footer.SetDone(true)
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.SetPaused(m.paused)
		return m, nil

	case key.Matches(msg, m.keymap.Reset):
		if m.cancel != nil {
			m.cancel()
		}
		m.generation++
		m.ctx, m.cancel = context.WithCancel(m.parentCtx)

		m.header.Reset()
		m.logs.Reset()
		m.logs.AddExecutionConfig(m.config)
		m.chart.Reset()
		m.metrics = NewMetricsModel()
		m.metrics.SetSize(m.rightWidth(), m.metricsHeight())
		m.footer.SetDone(false)
		m.footer.SetError(false)
		m.footer.SetPaused(false)
		m.done = false
		m.paused = false
		m.exitCode = apperrors.ExitSuccess

		return m, tea.Batch(
			tickCmd(),
			startGenerationCmd(m.ref, m.ctx, m.newSource, m.config, m.generation),
			watchContextCmd(m.ctx, m.generation),
		)

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Down),
		key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		m.logs.Update(msg)
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	rightCol := lipgloss.JoinVertical(lipgloss.Left, m.metrics.View(), m.chart.View())
	logs := m.logs.renderToHeight(lipgloss.Height(rightCol))
	body := lipgloss.JoinHorizontal(lipgloss.Top, logs, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

const (
	headerHeight          = 1
	footerHeight          = 1
	minBodyHeight         = 8
	LogsPanelWidthPercent = 55
	MetricsPanelHeight    = 6
)

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.logs.SetSize(m.logsWidth(), m.bodyHeight())
	m.metrics.SetSize(m.rightWidth(), m.metricsHeight())
	m.chart.SetSize(m.rightWidth(), m.chartHeight())
}

// Run starts the dashboard and returns the exit code. ctx ends the
// session (signals); cfg.Timeout bounds each generation run only.
func Run(ctx context.Context, newSource SourceFunc, cfg config.AppConfig, version string) int {
	initTUIStyles()

	model := NewModel(ctx, newSource, cfg, version)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	return finalExitCode(ctx, finalModel, err)
}

// finalExitCode picks the process exit code once the program has ended.
// A finished run keeps its own code even if the session context ended
// afterwards.
func finalExitCode(ctx context.Context, final tea.Model, runErr error) int {
	m, ok := final.(Model)
	if ok && m.cancel != nil {
		m.cancel()
	}
	switch {
	case ok && m.done:
		return m.exitCode
	case ctx.Err() != nil:
		return apperrors.ExitCodeFor(ctx.Err())
	case runErr != nil:
		return apperrors.ExitErrorGeneric
	case ok:
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// unboundedCount is used when the dashboard runs without --count: the
// sequence continues until the user quits and --timeout does not apply.
const unboundedCount = ^uint64(0)

// startGenerationCmd runs the pipeline in the command goroutine and reports
// its outcome.
func startGenerationCmd(ref *programRef, ctx context.Context, newSource SourceFunc, cfg config.AppConfig, gen uint64) tea.Cmd {
	return func() tea.Msg {
		src, err := newSource()
		if err != nil {
			return GenerationCompleteMsg{Err: err, ExitCode: apperrors.ExitCodeFor(err), Generation: gen}
		}
		genCtx := ctx
		count := cfg.Count
		if count == 0 {
			count = unboundedCount
		} else if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		summary, err := orchestration.Generate(genCtx, src, orchestration.GenerateOptions{
			Count:    count,
			Interval: cfg.Interval,
			Buffer:   cfg.Buffer,
		}, &tuiSink{send: ref.Send}, &TUIProgressReporter{ref: ref}, io.Discard)

		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.TimeoutError{Operation: "generate", Limit: cfg.Timeout, Cause: err}
		}
		return GenerationCompleteMsg{Summary: summary, Err: err, ExitCode: apperrors.ExitCodeFor(err), Generation: gen}
	}
}

// tickCmd sends a TickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func sampleMemStatsCmd(c *metrics.MemoryCollector) tea.Cmd {
	return func() tea.Msg {
		s := c.Snapshot()
		return MemStatsMsg{
			HeapAlloc:    s.HeapAlloc,
			Sys:          s.Sys,
			NumGC:        s.NumGC,
			PauseTotalNs: s.PauseTotalNs,
			NumGoroutine: runtime.NumGoroutine(),
		}
	}
}

func sampleSysStatsCmd(s *sysmon.Sampler) tea.Cmd {
	return func() tea.Msg {
		st := s.Sample()
		return SysStatsMsg{CPUPercent: st.CPUPercent, MemPercent: st.MemPercent}
	}
}

// watchContextCmd reports the end of the run context.
func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err(), Generation: gen}
	}
}

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/fibiter/internal/config"
	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/orchestration"
)

func testModel(t *testing.T) Model {
	t.Helper()
	factory := fibonacci.NewDefaultFactory()
	cfg := config.AppConfig{Numeric: "big", Count: 20, Interval: time.Millisecond}
	m := NewModel(context.Background(), func() (fibonacci.Source, error) {
		return factory.New(cfg.Numeric, fibonacci.SourceOptions{})
	}, cfg, "v1.0.0")
	t.Cleanup(m.cancel)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := testModel(t)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}

func TestModel_TermsAndLayout(t *testing.T) {
	m := testModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, TermMsg{Index: 0, Value: "0", Digits: 1})
	m, _ = update(t, m, TermMsg{Index: 1, Value: "1", Digits: 1})

	if m.metrics.terms != 2 {
		t.Errorf("terms = %d, want 2", m.metrics.terms)
	}
	if m.chart.digits.Len() != 2 {
		t.Errorf("chart points = %d, want 2", m.chart.digits.Len())
	}
	view := m.View()
	for _, want := range []string{"fibiter v1.0.0", "backend: big", "F(1)", "RUNNING"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_PauseSkipsLogButCounts(t *testing.T) {
	m := testModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.paused {
		t.Fatal("space should pause")
	}
	lines := len(m.logs.lines)
	m, _ = update(t, m, TermMsg{Index: 3, Value: "2", Digits: 1})
	if len(m.logs.lines) != lines {
		t.Error("paused dashboard should not append to the log")
	}
	if m.metrics.terms != 1 {
		t.Error("paused dashboard should still count terms")
	}
}

func TestModel_GenerationComplete(t *testing.T) {
	m := testModel(t)
	m, _ = update(t, m, GenerationCompleteMsg{
		Summary:    orchestration.Summary{Count: 20, MaxDigits: 4},
		Generation: m.generation,
	})
	if !m.done || m.exitCode != apperrors.ExitSuccess {
		t.Errorf("done=%v exit=%d", m.done, m.exitCode)
	}
	if m.chart.progress != 1 {
		t.Error("chart should show completion")
	}

	stale := testModel(t)
	stale, _ = update(t, stale, GenerationCompleteMsg{Generation: stale.generation + 1})
	if stale.done {
		t.Error("messages from an older run must be ignored")
	}
}

func TestModel_GenerationError(t *testing.T) {
	m := testModel(t)
	err := apperrors.GenerationError{Source: "uint64", Cause: &apperrors.OverflowError{Index: 94, Width: 64}}
	m, _ = update(t, m, GenerationCompleteMsg{Err: err, ExitCode: apperrors.ExitErrorGeneric, Generation: m.generation})
	if !m.footer.err {
		t.Error("footer should show the error state")
	}
	if last := m.logs.lines[len(m.logs.lines)-1]; !strings.Contains(last, "uint64") {
		t.Errorf("log should mention the failing backend, got %q", last)
	}
	if m.exitCode != apperrors.ExitErrorGeneric {
		t.Errorf("exitCode = %d", m.exitCode)
	}
}

func TestModel_Restart(t *testing.T) {
	m := testModel(t)
	m, _ = update(t, m, TermMsg{Index: 0, Value: "0", Digits: 1})
	m, _ = update(t, m, GenerationCompleteMsg{Err: errors.New("boom"), ExitCode: 1, Generation: m.generation})
	oldCtx := m.ctx

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("restart should schedule a new run")
	}
	if m.generation != 1 || m.done || m.footer.err || m.metrics.terms != 0 {
		t.Errorf("restart did not reset state: gen=%d done=%v err=%v terms=%d",
			m.generation, m.done, m.footer.err, m.metrics.terms)
	}
	if oldCtx.Err() == nil {
		t.Error("restart should cancel the previous run")
	}
}

func TestModel_Quit(t *testing.T) {
	m := testModel(t)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a QuitMsg")
	}
	if m.ctx.Err() == nil {
		t.Error("quit should cancel the run")
	}
}

func TestStartGenerationCmd(t *testing.T) {
	factory := fibonacci.NewDefaultFactory()
	cfg := config.AppConfig{Numeric: "uint64", Count: 10}
	cmd := startGenerationCmd(&programRef{}, context.Background(), func() (fibonacci.Source, error) {
		return factory.New(cfg.Numeric, fibonacci.SourceOptions{})
	}, cfg, 7)

	msg, ok := cmd().(GenerationCompleteMsg)
	if !ok {
		t.Fatalf("unexpected message type")
	}
	if msg.Err != nil || msg.Generation != 7 || msg.Summary.Count != 10 || msg.Summary.Last.Int64() != 34 {
		t.Errorf("unexpected result: %+v", msg)
	}
}

func TestStartGenerationCmd_SourceError(t *testing.T) {
	cmd := startGenerationCmd(&programRef{}, context.Background(), func() (fibonacci.Source, error) {
		return nil, apperrors.NewConfigError("bad backend")
	}, config.AppConfig{Count: 1}, 0)

	msg := cmd().(GenerationCompleteMsg)
	if msg.ExitCode != apperrors.ExitErrorConfig {
		t.Errorf("ExitCode = %d, want %d", msg.ExitCode, apperrors.ExitErrorConfig)
	}
}

func TestWatchContextCmd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg := watchContextCmd(ctx, 3)().(ContextCancelledMsg)
	if msg.Generation != 3 || !errors.Is(msg.Err, context.Canceled) {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestLayoutManager(t *testing.T) {
	l := LayoutManager{width: 100, height: 40}
	if l.logsWidth()+l.rightWidth() != 100 {
		t.Error("panels should fill the width")
	}
	if l.metricsHeight()+l.chartHeight() != l.bodyHeight() {
		t.Error("right column should fill the body")
	}
	small := LayoutManager{width: 20, height: 3}
	if small.bodyHeight() != minBodyHeight {
		t.Errorf("bodyHeight = %d, want %d", small.bodyHeight(), minBodyHeight)
	}
}

func TestModel_ContextEndAfterCompletionKeepsExitCode(t *testing.T) {
	m := testModel(t)
	m, _ = update(t, m, GenerationCompleteMsg{Summary: orchestration.Summary{Count: 10}, Generation: m.generation})
	m, cmd := update(t, m, ContextCancelledMsg{Err: context.DeadlineExceeded, Generation: m.generation})
	if cmd == nil {
		t.Fatal("context end should quit")
	}
	if m.exitCode != apperrors.ExitSuccess {
		t.Errorf("exitCode = %d, want %d", m.exitCode, apperrors.ExitSuccess)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()
	if got := finalExitCode(ctx, m, nil); got != apperrors.ExitSuccess {
		t.Errorf("finalExitCode = %d, want %d", got, apperrors.ExitSuccess)
	}
}

func TestModel_InterruptBeforeCompletion(t *testing.T) {
	m := testModel(t)
	m, _ = update(t, m, ContextCancelledMsg{Err: context.Canceled, Generation: m.generation})
	if m.exitCode != apperrors.ExitErrorCanceled {
		t.Errorf("exitCode = %d, want %d", m.exitCode, apperrors.ExitErrorCanceled)
	}
}

func TestFinalExitCode(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	running := testModel(t)
	if got := finalExitCode(canceled, running, errors.New("program killed")); got != apperrors.ExitErrorCanceled {
		t.Errorf("killed mid-run: got %d, want %d", got, apperrors.ExitErrorCanceled)
	}
	if got := finalExitCode(context.Background(), running, errors.New("tty lost")); got != apperrors.ExitErrorGeneric {
		t.Errorf("program error: got %d, want %d", got, apperrors.ExitErrorGeneric)
	}
	if got := finalExitCode(context.Background(), running, nil); got != apperrors.ExitSuccess {
		t.Errorf("user quit: got %d, want %d", got, apperrors.ExitSuccess)
	}
}

func TestStartGenerationCmd_TimeoutBoundsTheRun(t *testing.T) {
	factory := fibonacci.NewDefaultFactory()
	cfg := config.AppConfig{Numeric: "big", Count: 1000, Interval: 50 * time.Millisecond, Timeout: 20 * time.Millisecond}
	cmd := startGenerationCmd(&programRef{}, context.Background(), func() (fibonacci.Source, error) {
		return factory.New(cfg.Numeric, fibonacci.SourceOptions{})
	}, cfg, 0)

	msg := cmd().(GenerationCompleteMsg)
	if msg.ExitCode != apperrors.ExitErrorTimeout {
		t.Errorf("ExitCode = %d, want %d", msg.ExitCode, apperrors.ExitErrorTimeout)
	}
	var te apperrors.TimeoutError
	if !errors.As(msg.Err, &te) || te.Limit != cfg.Timeout {
		t.Errorf("expected a TimeoutError with the configured limit, got %v", msg.Err)
	}

	m := testModel(t)
	msg.Generation = m.generation
	m, _ = update(t, m, msg)
	if !m.footer.err {
		t.Error("a timed-out run should show the error state")
	}
}

func TestStartGenerationCmd_UnboundedIgnoresTimeout(t *testing.T) {
	factory := fibonacci.NewDefaultFactory()
	cfg := config.AppConfig{Numeric: "big", Count: 0, Interval: 5 * time.Millisecond, Timeout: 10 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cmd := startGenerationCmd(&programRef{}, ctx, func() (fibonacci.Source, error) {
		return factory.New(cfg.Numeric, fibonacci.SourceOptions{})
	}, cfg, 0)

	done := make(chan GenerationCompleteMsg, 1)
	go func() { done <- cmd().(GenerationCompleteMsg) }()
	select {
	case msg := <-done:
		t.Fatalf("unbounded run ended on its own: %v", msg.Err)
	case <-time.After(100 * time.Millisecond):
	}
	cancel()
	msg := <-done
	if msg.ExitCode != apperrors.ExitErrorCanceled {
		t.Errorf("ExitCode = %d, want %d", msg.ExitCode, apperrors.ExitErrorCanceled)
	}
}

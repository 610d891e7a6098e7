package orchestration_test

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/fibiter/internal/config"
	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/orchestration"
	"github.com/agbru/fibiter/internal/orchestration/mocks"
)

func terms(start uint64, values ...int64) []fibonacci.Term {
	out := make([]fibonacci.Term, len(values))
	for i, v := range values {
		out[i] = fibonacci.Term{Index: start + uint64(i), Value: big.NewInt(v)}
	}
	return out
}

func TestSourcesToRun(t *testing.T) {
	t.Parallel()
	factory := fibonacci.NewDefaultFactory()

	all, err := orchestration.SourcesToRun(config.NumericAll, factory, fibonacci.SourceOptions{})
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name()
	}
	assert.Equal(t, factory.List(), names)

	one, err := orchestration.SourcesToRun("big", factory, fibonacci.SourceOptions{})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "big", one[0].Name())

	_, err = orchestration.SourcesToRun("abacus", factory, fibonacci.SourceOptions{})
	var cfgErr apperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestExecuteComparison_AllBackendsAgree(t *testing.T) {
	t.Parallel()
	sources, err := fibonacci.NewDefaultFactory().NewAll(fibonacci.SourceOptions{Start: 10})
	require.NoError(t, err)

	results := orchestration.ExecuteComparison(context.Background(), sources, 60, orchestration.NullProgressReporter{}, io.Discard)
	require.Len(t, results, len(sources))
	for _, r := range results {
		require.NoError(t, r.Err, r.Name)
		assert.Len(t, r.Terms, 60, r.Name)
	}
	_, found := orchestration.FindMismatch(results)
	assert.False(t, found)
}

func TestExecuteComparison_OverflowIsolatedToOneBackend(t *testing.T) {
	t.Parallel()
	sources, err := fibonacci.NewDefaultFactory().NewAll(fibonacci.SourceOptions{Start: 90})
	require.NoError(t, err)

	results := orchestration.ExecuteComparison(context.Background(), sources, 10, orchestration.NullProgressReporter{}, io.Discard)
	for _, r := range results {
		if r.Name == "uint64" {
			assert.True(t, apperrors.IsOverflow(r.Err), "uint64 should overflow, got %v", r.Err)
			assert.Len(t, r.Terms, 4)
			continue
		}
		assert.NoError(t, r.Err, r.Name)
	}

	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockResultPresenter(ctrl)
	presenter.EXPECT().PresentComparisonTable(gomock.Any(), gomock.Any())
	presenter.EXPECT().PresentSummary(gomock.Any(), gomock.Any(), gomock.Any())
	handler := mocks.NewMockErrorHandler(ctrl)

	code := orchestration.AnalyzeComparison(results, orchestration.PresentationOptions{Count: 10}, presenter, handler, io.Discard)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Error(t, results[len(results)-1].Err, "failed backends sort last")
}

func TestFindMismatch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		results []orchestration.SequenceResult
		found   bool
		index   uint64
	}{
		{
			name: "Identical sequences match",
			results: []orchestration.SequenceResult{
				{Name: "A", Terms: terms(0, 0, 1, 1, 2)},
				{Name: "B", Terms: terms(0, 0, 1, 1, 2)},
			},
		},
		{
			name: "A differing value is located",
			results: []orchestration.SequenceResult{
				{Name: "A", Terms: terms(5, 5, 8, 13)},
				{Name: "B", Terms: terms(5, 5, 8, 14)},
			},
			found: true,
			index: 7,
		},
		{
			name: "A shorter sequence mismatches after its last term",
			results: []orchestration.SequenceResult{
				{Name: "A", Terms: terms(0, 0, 1, 1)},
				{Name: "B", Terms: terms(0, 0, 1)},
			},
			found: true,
			index: 2,
		},
		{
			name: "Failed results are ignored",
			results: []orchestration.SequenceResult{
				{Name: "A", Terms: terms(0, 0, 1)},
				{Name: "B", Terms: terms(0, 7), Err: errors.New("broken")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, found := orchestration.FindMismatch(tt.results)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.index, m.Index)
				assert.Contains(t, m.String(), "disagree")
			}
		})
	}
}

func TestAnalyzeComparison(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		results        []orchestration.SequenceResult
		expectSummary  bool
		expectHandler  bool
		expectedStatus int
	}{
		{
			name: "All success",
			results: []orchestration.SequenceResult{
				{Name: "A", Terms: terms(0, 0, 1, 1), Duration: time.Millisecond},
				{Name: "B", Terms: terms(0, 0, 1, 1), Duration: 2 * time.Millisecond},
			},
			expectSummary:  true,
			expectedStatus: apperrors.ExitSuccess,
		},
		{
			name: "Mismatch",
			results: []orchestration.SequenceResult{
				{Name: "A", Terms: terms(0, 0, 1, 1)},
				{Name: "B", Terms: terms(0, 0, 1, 2)},
			},
			expectedStatus: apperrors.ExitErrorMismatch,
		},
		{
			name: "All failure",
			results: []orchestration.SequenceResult{
				{Name: "A", Err: errors.New("fail")},
				{Name: "B", Err: errors.New("fail")},
			},
			expectHandler:  true,
			expectedStatus: apperrors.ExitErrorGeneric,
		},
		{
			name: "Mixed success and failure",
			results: []orchestration.SequenceResult{
				{Name: "A", Err: errors.New("fail")},
				{Name: "B", Terms: terms(0, 0, 1)},
			},
			expectSummary:  true,
			expectedStatus: apperrors.ExitSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			presenter := mocks.NewMockResultPresenter(ctrl)
			handler := mocks.NewMockErrorHandler(ctrl)

			presenter.EXPECT().PresentComparisonTable(gomock.Any(), gomock.Any())
			if tt.expectSummary {
				presenter.EXPECT().PresentSummary(gomock.Any(), gomock.Any(), gomock.Any()).
					Do(func(s orchestration.Summary, _ orchestration.PresentationOptions, _ io.Writer) {
						assert.NotNil(t, s.Last)
					})
			}
			if tt.expectHandler {
				handler.EXPECT().HandleError(gomock.Any(), gomock.Any(), gomock.Any()).Return(apperrors.ExitErrorGeneric)
			}

			status := orchestration.AnalyzeComparison(tt.results, orchestration.PresentationOptions{}, presenter, handler, io.Discard)
			assert.Equal(t, tt.expectedStatus, status)
		})
	}
}

func TestSequenceResult_Summary(t *testing.T) {
	t.Parallel()
	r := orchestration.SequenceResult{Name: "big", Terms: terms(10, 55, 89, 144), Duration: time.Second}
	s := r.Summary()
	assert.Equal(t, uint64(3), s.Count)
	assert.Equal(t, uint64(10), s.FirstIndex)
	assert.Equal(t, uint64(12), s.LastIndex)
	assert.Equal(t, 3, s.MaxDigits)
	assert.Equal(t, "144", s.Last.String())
}

func TestProgressAggregator(t *testing.T) {
	t.Parallel()
	assert.Nil(t, orchestration.NewProgressAggregator(0))
	assert.Nil(t, orchestration.NewProgressAggregator(-1))

	agg := orchestration.NewProgressAggregator(2)
	require.NotNil(t, agg)
	assert.True(t, agg.IsMultiSource())
	assert.Equal(t, 2, agg.NumSources())

	ap := agg.Update(orchestration.ProgressUpdate{SourceIndex: 1, Value: 0.5})
	assert.Equal(t, 1, ap.SourceIndex)
	assert.InDelta(t, 0.25, ap.AverageProgress, 1e-9)
	assert.InDelta(t, 0.25, agg.CalculateAverage(), 1e-9)
	assert.False(t, orchestration.NewProgressAggregator(1).IsMultiSource())
}

package optimizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/models"
)

func TestCalculateAdaptiveComplexity(t *testing.T) {
	current := DefaultComplexity()

	tests := []struct {
		name string
		perf *models.PerformanceData
		want models.ComplexityLevel
	}{
		{"no history", nil, models.ComplexityModerate},
		{"low completion and many failures", &models.PerformanceData{CompletionRate: 0.3, RecentFailures: 8}, models.ComplexitySimple},
		{"completion at the simple boundary", &models.PerformanceData{CompletionRate: 0.4}, models.ComplexitySimple},
		{"failures alone", &models.PerformanceData{CompletionRate: 0.7, RecentFailures: 6}, models.ComplexitySimple},
		{"strong performance", &models.PerformanceData{CompletionRate: 0.9, ConsistencyScore: 0.85, RecentSuccesses: 9}, models.ComplexityComplex},
		{"strong but inconsistent", &models.PerformanceData{CompletionRate: 0.9, ConsistencyScore: 0.7, RecentSuccesses: 9}, models.ComplexityModerate},
		{"strong but few successes", &models.PerformanceData{CompletionRate: 0.9, ConsistencyScore: 0.9, RecentSuccesses: 7}, models.ComplexityModerate},
		{"middling", &models.PerformanceData{CompletionRate: 0.6, ConsistencyScore: 0.6, RecentFailures: 2}, models.ComplexityModerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateAdaptiveComplexity(tt.perf, current)
			assert.Equal(t, tt.want, got.Level)
			if tt.want == models.ComplexityModerate {
				assert.Equal(t, current, got)
			}
		})
	}
}

func TestCalculateAdaptiveComplexity_TierBounds(t *testing.T) {
	simple := CalculateAdaptiveComplexity(&models.PerformanceData{CompletionRate: 0.3, RecentFailures: 8}, DefaultComplexity())
	assert.LessOrEqual(t, simple.TaskCount, 4)
	assert.LessOrEqual(t, simple.DeepWorkBlocks, 1)
	assert.LessOrEqual(t, simple.BreakFrequencyMin, 60)
	assert.False(t, simple.Multitasking)

	complexTier := CalculateAdaptiveComplexity(&models.PerformanceData{CompletionRate: 0.9, ConsistencyScore: 0.85, RecentSuccesses: 9}, DefaultComplexity())
	assert.GreaterOrEqual(t, complexTier.TaskCount, 6)
	assert.GreaterOrEqual(t, complexTier.DeepWorkBlocks, 2)
	assert.GreaterOrEqual(t, complexTier.BreakFrequencyMin, 90)

	// An already lighter tier is not made heavier by stepping down.
	light := models.Complexity{Level: models.ComplexityModerate, TaskCount: 3, DeepWorkBlocks: 0, BreakFrequencyMin: 45}
	got := CalculateAdaptiveComplexity(&models.PerformanceData{CompletionRate: 0.2}, light)
	assert.Equal(t, 3, got.TaskCount)
	assert.Equal(t, 1, got.DeepWorkBlocks)
	assert.Equal(t, 45, got.BreakFrequencyMin)
}

func quality(v float64) *float64 { return &v }

func TestDerivePerformance(t *testing.T) {
	events := []models.BehaviorEvent{
		{Date: "2026-03-01", Type: models.ActivityDeepWork, Completed: true, FocusQuality: quality(0.8)},
		{Date: "2026-03-01", Type: models.ActivityStudy, Completed: true},
		{Date: "2026-03-01", Type: models.ActivityBreak},
		{Date: "2026-03-02", Type: models.ActivityDeepWork, Completed: true, FocusQuality: quality(0.6)},
		{Date: "2026-03-02", Type: models.ActivityStudy},
		{Date: "2026-03-03", Type: models.ActivityStudy},
		{Date: "2026-03-03", Type: models.ActivitySkillPractice},
	}

	perf := DerivePerformance(events)
	require.NotNil(t, perf)
	assert.InDelta(t, 0.5, perf.CompletionRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, perf.ConsistencyScore, 1e-9)
	assert.InDelta(t, 0.7, perf.AverageFocusQuality, 1e-9)
	assert.Equal(t, 3, perf.RecentSuccesses)
	assert.Equal(t, 3, perf.RecentFailures)
	assert.Equal(t, 3, perf.DaysObserved)
	assert.Equal(t, []models.ActivityType{models.ActivityDeepWork}, perf.PreferredActivityTypes)
}

func TestDerivePerformance_RecentWindow(t *testing.T) {
	var events []models.BehaviorEvent
	for day := 1; day <= 9; day++ {
		events = append(events, models.BehaviorEvent{
			Date:      fmt.Sprintf("2026-03-%02d", day),
			Type:      models.ActivityStudy,
			Completed: day > 2,
		})
	}

	perf := DerivePerformance(events)
	require.NotNil(t, perf)
	assert.Equal(t, 9, perf.DaysObserved)
	assert.Equal(t, 7, perf.RecentSuccesses)
	assert.Zero(t, perf.RecentFailures)
	assert.InDelta(t, 0.5, perf.AverageFocusQuality, 1e-9)
}

func TestDerivePerformance_Empty(t *testing.T) {
	assert.Nil(t, DerivePerformance(nil))
	assert.Nil(t, DerivePerformance([]models.BehaviorEvent{{Date: "2026-03-01", Type: models.ActivityBreak}}))
}

func TestEventsFromRoutines(t *testing.T) {
	routines := []models.DailyRoutine{{
		Date: "2026-03-01",
		Segments: []models.RoutineSegment{
			{Slot: models.TimeSlot{Start: "07:00", End: "08:30"}, Type: models.ActivityDeepWork, Completed: true, FocusQuality: quality(0.9)},
			{Slot: models.TimeSlot{Start: "08:30", End: "08:40"}, Type: models.ActivityBreak},
			{Slot: models.TimeSlot{Start: "08:45", End: "09:45"}, Type: models.ActivityStudy},
		},
	}}

	events := EventsFromRoutines(routines)
	require.Len(t, events, 2)
	assert.Equal(t, "07:00", events[0].Start)
	assert.True(t, events[0].Completed)
	assert.Equal(t, models.ActivityStudy, events[1].Type)
}

type stubEvents struct {
	events []models.BehaviorEvent
	err    error
	days   int
}

func (s *stubEvents) GetBehavioralAnalytics(_ context.Context, _ string, days int) ([]models.BehaviorEvent, error) {
	s.days = days
	return s.events, s.err
}

func TestPerformanceAnalyzer(t *testing.T) {
	source := &stubEvents{events: []models.BehaviorEvent{{Date: "2026-03-01", Type: models.ActivityStudy, Completed: true}}}
	perf, err := NewPerformanceAnalyzer(source).Analyze(context.Background(), "u1", 14)
	require.NoError(t, err)
	require.NotNil(t, perf)
	assert.Equal(t, 1.0, perf.CompletionRate)
	assert.Equal(t, 14, source.days)

	perf, err = NewPerformanceAnalyzer(&stubEvents{}).Analyze(context.Background(), "u1", 14)
	require.NoError(t, err)
	assert.Nil(t, perf)

	_, err = NewPerformanceAnalyzer(&stubEvents{err: errors.New("db down")}).Analyze(context.Background(), "u1", 14)
	assert.ErrorContains(t, err, "db down")
}

func routineWith(n int) models.DailyRoutine {
	r := models.DailyRoutine{Date: "2026-03-02"}
	for i := 0; i < n; i++ {
		typ, pr := models.ActivityStudy, models.PriorityMedium
		if i == 0 {
			typ, pr = models.ActivityDeepWork, models.PriorityCritical
		}
		r.Segments = append(r.Segments, models.RoutineSegment{Type: typ, Priority: pr, DurationMin: 60})
	}
	return r
}

func TestCompareRoutineVariations_ComplexityDifference(t *testing.T) {
	cmp, err := CompareRoutineVariations([]models.DailyRoutine{routineWith(3), routineWith(9)}, nil)
	require.NoError(t, err)

	assert.True(t, cmp.SignificantComplexityDiff)
	assert.Equal(t, 6, cmp.SegmentSpread)
	require.Len(t, cmp.Findings, 1)
	assert.Contains(t, cmp.Findings[0], "spread 6")
	assert.Equal(t, "All variations are acceptable", cmp.Recommendation)
	assert.Equal(t, -1, cmp.RecommendedIndex)

	require.Len(t, cmp.Variations, 2)
	assert.Equal(t, 180, cmp.Variations[0].TotalMinutes)
	assert.Equal(t, 1, cmp.Variations[0].TypeCounts[models.ActivityDeepWork])
	assert.Equal(t, 8, cmp.Variations[1].PriorityCounts[models.PriorityMedium])
	assert.InDelta(t, 0.7, cmp.Variations[0].PredictedScore, 1e-9)
	assert.InDelta(t, 0.5, cmp.Variations[1].PredictedScore, 1e-9)
}

func TestCompareRoutineVariations_Recommendation(t *testing.T) {
	variations := []models.DailyRoutine{routineWith(6), routineWith(4), routineWith(5)}

	cmp, err := CompareRoutineVariations(variations, &models.PerformanceData{CompletionRate: 0.5})
	require.NoError(t, err)
	assert.False(t, cmp.SignificantComplexityDiff)
	assert.Equal(t, 1, cmp.RecommendedIndex)
	assert.Contains(t, cmp.Recommendation, "variation 2")

	cmp, err = CompareRoutineVariations(variations, &models.PerformanceData{CompletionRate: 0.7})
	require.NoError(t, err)
	assert.Equal(t, -1, cmp.RecommendedIndex)
}

func TestCompareRoutineVariations_NeedsTwo(t *testing.T) {
	_, err := CompareRoutineVariations([]models.DailyRoutine{routineWith(3)}, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestPredictScore(t *testing.T) {
	tests := []struct {
		segments int
		want     float64
	}{
		{1, 0.7},
		{5, 0.7},
		{6, 0.65},
		{9, 0.5},
		{13, 0.3},
		{30, 0.3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d segments", tt.segments), func(t *testing.T) {
			assert.InDelta(t, tt.want, PredictScore(tt.segments), 1e-9)
		})
	}
}

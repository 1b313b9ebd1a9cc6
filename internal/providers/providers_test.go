package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

type fakeStore struct {
	profile  *models.Profile
	habits   []models.Habit
	review   *models.EveningReview
	routines []models.DailyRoutine
	ranges   [][2]string
}

func (f *fakeStore) GetProfile(_ context.Context, _ string) (models.Profile, error) {
	if f.profile == nil {
		return models.Profile{}, storage.ErrNotFound
	}
	return *f.profile, nil
}

func (f *fakeStore) GetHabits(_ context.Context, _ string, _ bool) ([]models.Habit, error) {
	return f.habits, nil
}

func (f *fakeStore) GetLatestReview(_ context.Context, _, _ string) (models.EveningReview, error) {
	if f.review == nil {
		return models.EveningReview{}, storage.ErrNotFound
	}
	return *f.review, nil
}

func (f *fakeStore) GetRoutinesInRange(_ context.Context, _, start, end string) ([]models.DailyRoutine, error) {
	f.ranges = append(f.ranges, [2]string{start, end})
	var out []models.DailyRoutine
	for _, r := range f.routines {
		if r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func newLocal(store Store) *Local {
	return NewLocal(store, WithClock(fixedClock), WithTimezone("UTC"))
}

func ptr[T any](v T) *T { return &v }

func seg(start, end string, typ models.ActivityType, done bool, focus *float64) models.RoutineSegment {
	s := models.RoutineSegment{Slot: models.TimeSlot{Start: start, End: end}, Type: typ, Completed: done, FocusQuality: focus}
	s.DurationMin = 60
	return s
}

func history() []models.DailyRoutine {
	return []models.DailyRoutine{
		{Date: "2026-03-08", Segments: []models.RoutineSegment{
			seg("07:00", "08:00", models.ActivityDeepWork, true, ptr(0.9)),
			seg("08:00", "08:10", models.ActivityBreak, false, nil),
			seg("14:00", "15:00", models.ActivitySkillPractice, true, ptr(0.5)),
			seg("19:00", "20:00", models.ActivityStudy, false, nil),
		}},
		{Date: "2026-03-09", Segments: []models.RoutineSegment{
			seg("07:00", "08:00", models.ActivityDeepWork, true, ptr(0.7)),
			seg("19:00", "20:00", models.ActivityStudy, true, ptr(0.2)),
		}},
		// Today is outside the history window.
		{Date: "2026-03-10", Segments: []models.RoutineSegment{
			seg("07:00", "08:00", models.ActivityDeepWork, false, ptr(0.1)),
		}},
	}
}

func TestLocal_GetUserHabitsFiltersInactive(t *testing.T) {
	store := &fakeStore{habits: []models.Habit{{ID: "a", Active: true}, {ID: "b"}}}
	habits, err := newLocal(store).GetUserHabits(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "a", habits[0].ID)
}

func TestLocal_GetBehavioralAnalytics(t *testing.T) {
	store := &fakeStore{routines: history()}
	events, err := newLocal(store).GetBehavioralAnalytics(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Len(t, events, 5)
	assert.Equal(t, [2]string{"2026-03-03", "2026-03-09"}, store.ranges[0])
}

func TestLocal_AnalyzeEnergyPatterns(t *testing.T) {
	store := &fakeStore{routines: history()}
	data, err := newLocal(store).AnalyzeEnergyPatterns(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, data.Patterns, 3)
	assert.Equal(t, "morning", data.Patterns[0].TimeOfDay)
	assert.Equal(t, models.EnergyHigh, data.Patterns[0].Level)
	assert.InDelta(t, 0.8, data.Patterns[0].Productivity, 1e-9)
	assert.Equal(t, "afternoon", data.Patterns[1].TimeOfDay)
	assert.Equal(t, models.EnergyMedium, data.Patterns[1].Level)
	assert.Equal(t, "evening", data.Patterns[2].TimeOfDay)
	assert.Equal(t, models.EnergyLow, data.Patterns[2].Level)

	require.Len(t, data.OptimalWindows, 1)
	assert.Equal(t, models.TimeSlot{Start: "06:00", End: "12:00", Energy: models.EnergyHigh}, data.OptimalWindows[0])
	assert.Equal(t, 60, data.AvgSessionMinutes)
	assert.Equal(t, "low", data.CognitiveLoad)
}

func TestLocal_AnalyzeEnergyPatternsFallsBack(t *testing.T) {
	declared := []models.EnergyPattern{{StartTime: "20:00", EndTime: "23:00", Level: models.EnergyHigh, Productivity: 0.9}}
	store := &fakeStore{profile: &models.Profile{UserID: "u1", EnergyPattern: declared}}

	data, err := newLocal(store).AnalyzeEnergyPatterns(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, declared, data.Patterns)
	assert.Equal(t, []models.TimeSlot{{Start: "20:00", End: "23:00", Energy: models.EnergyHigh}}, data.OptimalWindows)

	_, err = newLocal(&fakeStore{profile: &models.Profile{UserID: "u1"}}).AnalyzeEnergyPatterns(context.Background(), "u1")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestLocal_CalculatePersonalizationMetrics(t *testing.T) {
	store := &fakeStore{routines: history()}
	window := models.DateRange{Start: "2026-03-01", End: "2026-03-09"}

	data, err := newLocal(store).CalculatePersonalizationMetrics(context.Background(), "u1", window)
	require.NoError(t, err)

	assert.False(t, data.Defaulted)
	assert.InDelta(t, 1.0, data.ConsistencyScore, 1e-9)
	assert.InDelta(t, 0.75, data.IdentityAlignment, 1e-9)
	assert.InDelta(t, 1.0, data.CompletionRates[models.ActivityDeepWork], 1e-9)
	assert.InDelta(t, 0.5, data.CompletionRates[models.ActivityStudy], 1e-9)
	assert.InDelta(t, 0.5, data.ProductivityPatterns["evening"], 1e-9)
	assert.Equal(t, "07:00", data.OptimalActivityTimes[models.ActivityDeepWork])
	assert.Equal(t, "19:00", data.OptimalActivityTimes[models.ActivityStudy])
	assert.Contains(t, data.BehavioralInsights, "Most reliable in the morning")
}

func TestLocal_CalculatePersonalizationMetricsEmpty(t *testing.T) {
	_, err := newLocal(&fakeStore{}).CalculatePersonalizationMetrics(context.Background(), "u1",
		models.DateRange{Start: "2026-03-01", End: "2026-03-09"})
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestLocal_Providers(t *testing.T) {
	store := &fakeStore{
		profile: &models.Profile{UserID: "u1", WakeUpTime: "06:30"},
		review:  &models.EveningReview{UserID: "u1", Date: "2026-03-09", EnergyLevel: 3},
	}
	p := newLocal(store).Providers()

	profile, err := p.Profile.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "06:30", profile.WakeUpTime)

	review, err := p.Review.GetRecentReview(context.Background(), "u1", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 3, review.EnergyLevel)
}

func TestTemplateSuggester(t *testing.T) {
	s := NewTemplateSuggester()
	rctx := models.RoutineContext{Profile: models.ProfileData{Profile: models.Profile{LearningStyle: "Visual"}}}

	tests := []struct {
		name      string
		slot      models.TimeSlot
		rctx      models.RoutineContext
		wantCount int
		wantFirst string
	}{
		{"high energy", models.TimeSlot{Energy: models.EnergyHigh}, models.RoutineContext{}, 2, "Hardest problem first"},
		{"unclassified defaults to medium", models.TimeSlot{}, models.RoutineContext{}, 2, "Deliberate practice"},
		{"learning style adds one", models.TimeSlot{Energy: models.EnergyLow}, rctx, 3, "Light review"},
		{"low energy day skips the hardest task", models.TimeSlot{Energy: models.EnergyHigh},
			models.RoutineContext{Preferences: models.Preferences{LowEnergy: true}}, 1, "Distraction-free sprint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SuggestActivities(context.Background(), tt.slot, tt.rctx)
			require.NoError(t, err)
			require.Len(t, got, tt.wantCount)
			assert.Equal(t, tt.wantFirst, got[0].Title)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.SuggestActivities(ctx, models.TimeSlot{}, models.RoutineContext{})
	assert.Error(t, err)
}

package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "routinely.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRoutine(userID, date string) models.DailyRoutine {
	return models.DailyRoutine{
		ID:     uuid.NewString(),
		UserID: userID,
		Date:   date,
		Segments: []models.RoutineSegment{
			{ID: uuid.NewString(), Slot: models.TimeSlot{Start: "07:00", End: "08:30", Energy: models.EnergyHigh}, Type: models.ActivityDeepWork, Description: "Deep work: calculus", DurationMin: 90, Priority: models.PriorityCritical},
			{ID: uuid.NewString(), Slot: models.TimeSlot{Start: "08:30", End: "08:40"}, Type: models.ActivityBreak, Description: "Short break", DurationMin: 10, Priority: models.PriorityLow},
			{ID: uuid.NewString(), Slot: models.TimeSlot{Start: "08:45", End: "09:45", Energy: models.EnergyMedium}, Type: models.ActivityStudy, Description: "Study: physics", DurationMin: 60, Priority: models.PriorityMedium,
				Suggestions: []models.ActivitySuggestion{{Title: "Past paper", Minutes: 30}}},
		},
		Adaptations: []string{"Generated 3 segments"},
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init")
}

func TestInitThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "routinely.db")
	first := NewStore(path)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.Close())

	second := NewStore(path)
	require.NoError(t, second.Load(ctx))
	defer second.Close()

	current, latest, err := second.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, latest, current)
	assert.Equal(t, path, second.GetConfigPath())
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)

	settings.MorningWakeHour = 7
	settings.Timezone = "Europe/Berlin"
	require.NoError(t, store.SaveSettings(ctx, settings))

	got, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, got.MorningWakeHour)
	assert.Equal(t, "Europe/Berlin", got.Timezone)
	assert.Equal(t, constants.DefaultMorningWindowStart, got.MorningWindowStart)
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	profile := models.Profile{
		UserID:         "u1",
		TargetIdentity: "Engineer",
		AcademicGoals:  []string{"calculus", "physics"},
		SkillGoals:     []string{"piano"},
		WakeUpTime:     "07:00",
		SleepTime:      "23:00",
		AvailableHours: 8,
		EnergyPattern:  []models.EnergyPattern{{TimeOfDay: "morning", Level: models.EnergyHigh, Productivity: 0.9}},
	}
	require.NoError(t, store.SaveProfile(ctx, profile))

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, profile.AcademicGoals, got.AcademicGoals)
	assert.Equal(t, profile.EnergyPattern, got.EnergyPattern)
	assert.False(t, got.UpdatedAt.IsZero())

	profile.AvailableHours = 6
	require.NoError(t, store.SaveProfile(ctx, profile))
	got, err = store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, got.AvailableHours)
}

func TestHabits(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	habit := models.Habit{ID: uuid.NewString(), UserID: "u1", Name: "Read", Active: true, ScheduledTime: "21:00", Streak: 3}
	require.NoError(t, store.AddHabit(ctx, habit))
	require.NoError(t, store.AddHabit(ctx, models.Habit{ID: uuid.NewString(), UserID: "u2", Name: "Run", Active: true}))

	habits, err := store.GetHabits(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "21:00", habits[0].ScheduledTime)

	habit.Streak = 4
	require.NoError(t, store.UpdateHabit(ctx, habit))
	require.NoError(t, store.ArchiveHabit(ctx, "u1", habit.ID))
	assert.ErrorIs(t, store.ArchiveHabit(ctx, "u1", habit.ID), storage.ErrNotFound)

	habits, err = store.GetHabits(ctx, "u1", false)
	require.NoError(t, err)
	assert.Empty(t, habits)

	habits, err = store.GetHabits(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, 4, habits[0].Streak)
	assert.NotNil(t, habits[0].ArchivedAt)
	assert.False(t, habits[0].Active)
}

func TestLatestReviewIsStrictlyBefore(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for _, date := range []string{"2024-03-01", "2024-03-03", "2024-03-05"} {
		require.NoError(t, store.SaveReview(ctx, models.EveningReview{
			ID: uuid.NewString(), UserID: "u1", Date: date, EnergyLevel: 6, Mood: 7,
			TomorrowTasks: []string{"task for " + date},
		}))
	}

	got, err := store.GetLatestReview(ctx, "u1", "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", got.Date)
	assert.Equal(t, []string{"task for 2024-03-03"}, got.TomorrowTasks)

	_, err = store.GetLatestReview(ctx, "u1", "2024-03-01")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Same date replaces.
	require.NoError(t, store.SaveReview(ctx, models.EveningReview{ID: uuid.NewString(), UserID: "u1", Date: "2024-03-03", EnergyLevel: 2, Mood: 3}))
	got, err = store.GetLatestReview(ctx, "u1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2, got.EnergyLevel)
}

func TestSaveRoutineIsIdempotentPerDate(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	first := testRoutine("u1", "2024-03-10")
	saved, created, err := store.SaveRoutine(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, saved.Version)

	second := testRoutine("u1", "2024-03-10")
	existing, created, err := store.SaveRoutine(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, existing.ID)
	require.Len(t, existing.Segments, 3)
	assert.Equal(t, first.Segments[0].ID, existing.Segments[0].ID)
	assert.Equal(t, first.Segments[2].Suggestions, existing.Segments[2].Suggestions)

	byID, err := store.GetRoutineByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", byID.Date)
}

func TestSaveRoutineConcurrentCallersShareOneRow(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			saved, _, err := store.SaveRoutine(ctx, testRoutine("u1", "2024-03-11"))
			if assert.NoError(t, err) {
				ids[i] = saved.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	routines, err := store.GetRoutinesInRange(ctx, "u1", "2024-03-11", "2024-03-11")
	require.NoError(t, err)
	assert.Len(t, routines, 1)
}

func TestUpdateRoutineSegmentsChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	saved, _, err := store.SaveRoutine(ctx, testRoutine("u1", "2024-03-12"))
	require.NoError(t, err)

	segments := saved.Segments
	segments[0].Completed = true
	actual := 80
	focus := 0.8
	segments[0].ActualDurationMin = &actual
	segments[0].FocusQuality = &focus

	updated, err := store.UpdateRoutineSegments(ctx, saved.ID, segments, append(saved.Adaptations, "note"), saved.Version)
	require.NoError(t, err)
	assert.Equal(t, saved.Version+1, updated.Version)
	require.NotNil(t, updated.Segments[0].ActualDurationMin)
	assert.Equal(t, 80, *updated.Segments[0].ActualDurationMin)
	assert.InDelta(t, 0.8, *updated.Segments[0].FocusQuality, 1e-9)
	assert.Equal(t, []string{"Generated 3 segments", "note"}, updated.Adaptations)
	assert.False(t, updated.Completed)

	_, err = store.UpdateRoutineSegments(ctx, saved.ID, segments, nil, saved.Version)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)

	_, err = store.UpdateRoutineSegments(ctx, "missing", segments, nil, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRoutineCompletedFlagTracksSegments(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	saved, _, err := store.SaveRoutine(ctx, testRoutine("u1", "2024-03-13"))
	require.NoError(t, err)

	segments := saved.Segments
	for i := range segments {
		if segments[i].Type != models.ActivityBreak {
			segments[i].Completed = true
		}
	}
	updated, err := store.UpdateRoutineSegments(ctx, saved.ID, segments, saved.Adaptations, saved.Version)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
}

func TestGetRoutinesInRange(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for _, date := range []string{"2024-03-01", "2024-03-02", "2024-03-05"} {
		_, _, err := store.SaveRoutine(ctx, testRoutine("u1", date))
		require.NoError(t, err)
	}
	_, _, err := store.SaveRoutine(ctx, testRoutine("u2", "2024-03-02"))
	require.NoError(t, err)

	routines, err := store.GetRoutinesInRange(ctx, "u1", "2024-03-01", "2024-03-04")
	require.NoError(t, err)
	require.Len(t, routines, 2)
	assert.Equal(t, "2024-03-01", routines[0].Date)
	assert.Equal(t, "2024-03-02", routines[1].Date)
	assert.Len(t, routines[1].Segments, 3)
}

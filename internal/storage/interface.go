package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/routinely/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a routine was modified since it was read.
	ErrVersionConflict = errors.New("routine was modified concurrently")
)

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error

	// Profiles
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	SaveProfile(ctx context.Context, profile models.Profile) error

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabits(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) error
	ArchiveHabit(ctx context.Context, userID, id string) error

	// Evening reviews. SaveReview replaces any review for the same user and date.
	SaveReview(ctx context.Context, review models.EveningReview) error
	// GetLatestReview returns the most recent review dated strictly before the given day.
	GetLatestReview(ctx context.Context, userID, before string) (models.EveningReview, error)

	// Routines
	GetRoutineByDate(ctx context.Context, userID, date string) (models.DailyRoutine, error)
	GetRoutineByID(ctx context.Context, id string) (models.DailyRoutine, error)
	// GetRoutinesInRange returns routines dated within [start, end], oldest first.
	GetRoutinesInRange(ctx context.Context, userID, start, end string) ([]models.DailyRoutine, error)
	// SaveRoutine inserts a routine unless one already exists for the same
	// user and date, in which case the stored routine is returned with
	// created=false. The check and insert are a single atomic statement.
	SaveRoutine(ctx context.Context, routine models.DailyRoutine) (saved models.DailyRoutine, created bool, err error)
	// UpdateRoutineSegments replaces a routine's segments and adaptations if
	// its stored version still equals expectedVersion, returning
	// ErrVersionConflict otherwise.
	UpdateRoutineSegments(ctx context.Context, id string, segments []models.RoutineSegment, adaptations []string, expectedVersion int) (models.DailyRoutine, error)

	// Utils
	SchemaVersion(ctx context.Context) (current, latest int, err error)
	GetConfigPath() string
}

package aggregator

import (
	"context"

	"github.com/julianstephens/routinely/internal/models"
)

type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	// GetBehavioralAnalytics returns the user's activity events over the last days.
	GetBehavioralAnalytics(ctx context.Context, userID string, days int) ([]models.BehaviorEvent, error)
}

type HabitProvider interface {
	GetUserHabits(ctx context.Context, userID string) ([]models.Habit, error)
}

type DeepWorkProvider interface {
	AnalyzeEnergyPatterns(ctx context.Context, userID string) (models.DeepWorkData, error)
}

type ReviewProvider interface {
	// GetRecentReview returns the latest review dated before the given day.
	GetRecentReview(ctx context.Context, userID, before string) (models.EveningReview, error)
}

type AnalyticsProvider interface {
	CalculatePersonalizationMetrics(ctx context.Context, userID string, window models.DateRange) (models.AnalyticsData, error)
}

// Providers bundles the five context sources. A nil provider always yields
// its source's default.
type Providers struct {
	Profile   ProfileProvider
	Habits    HabitProvider
	DeepWork  DeepWorkProvider
	Review    ReviewProvider
	Analytics AnalyticsProvider
}

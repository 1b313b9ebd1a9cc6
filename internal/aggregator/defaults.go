package aggregator

import (
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
)

func DefaultProfile(userID string) models.ProfileData {
	return models.ProfileData{
		Profile: models.Profile{
			UserID:         userID,
			TargetIdentity: constants.DefaultTargetIdentity,
			AcademicGoals:  []string{constants.DefaultAcademicGoal},
			SkillGoals:     []string{constants.DefaultSkillGoal},
			WakeUpTime:     constants.DefaultWakeTime,
			SleepTime:      constants.DefaultSleepTime,
			AvailableHours: constants.DefaultAvailableHours,
		},
		Defaulted: true,
	}
}

func DefaultHabits() models.HabitData {
	return models.HabitData{Habits: []models.Habit{}, Defaulted: true}
}

func DefaultDeepWork() models.DeepWorkData {
	return models.DeepWorkData{
		Patterns:          []models.EnergyPattern{},
		OptimalWindows:    []models.TimeSlot{},
		AvgSessionMinutes: constants.DefaultSessionMin,
		CognitiveLoad:     constants.DefaultCognitiveLoad,
		Defaulted:         true,
	}
}

func DefaultReview() models.ReviewData {
	return models.ReviewData{
		TomorrowTasks: []string{},
		EnergyLevel:   constants.DefaultReviewScale,
		Mood:          constants.DefaultReviewScale,
		Insights:      []string{},
		Defaulted:     true,
	}
}

func DefaultAnalytics() models.AnalyticsData {
	return models.AnalyticsData{
		ConsistencyScore:     constants.DefaultAnalyticsScalar,
		IdentityAlignment:    constants.DefaultAnalyticsScalar,
		ProductivityPatterns: map[string]float64{},
		BehavioralInsights:   []string{},
		CompletionRates:      map[models.ActivityType]float64{},
		OptimalActivityTimes: map[models.ActivityType]string{},
		Defaulted:            true,
	}
}

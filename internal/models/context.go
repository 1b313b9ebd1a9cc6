package models

import "time"

// ProfileData is the profile source's contribution to a RoutineContext.
type ProfileData struct {
	Profile   Profile `json:"profile"`
	Defaulted bool    `json:"defaulted"`
}

type HabitData struct {
	Habits    []Habit `json:"habits"`
	Defaulted bool    `json:"defaulted"`
}

type DeepWorkData struct {
	Patterns          []EnergyPattern `json:"patterns"`
	OptimalWindows    []TimeSlot      `json:"optimal_windows"`
	AvgSessionMinutes int             `json:"avg_session_minutes"`
	CognitiveLoad     string          `json:"cognitive_load"`
	Defaulted         bool            `json:"defaulted"`
}

type ReviewData struct {
	TomorrowTasks []string `json:"tomorrow_tasks"`
	EnergyLevel   int      `json:"energy_level"` // 1..10
	Mood          int      `json:"mood"`         // 1..10
	Insights      []string `json:"insights"`
	Defaulted     bool     `json:"defaulted"`
}

type AnalyticsData struct {
	ConsistencyScore     float64                  `json:"consistency_score"`
	IdentityAlignment    float64                  `json:"identity_alignment"`
	ProductivityPatterns map[string]float64       `json:"productivity_patterns"`
	BehavioralInsights   []string                 `json:"behavioral_insights"`
	CompletionRates      map[ActivityType]float64 `json:"completion_rates"`
	OptimalActivityTimes map[ActivityType]string  `json:"optimal_activity_times"`
	Defaulted            bool                     `json:"defaulted"`
}

// Preferences are derived from the five sources once they have all settled.
type Preferences struct {
	MorningPerson    bool     `json:"morning_person"`
	PreferredSession int      `json:"preferred_session_min"`
	LowEnergy        bool     `json:"low_energy"`
	PriorityTasks    []string `json:"priority_tasks,omitempty"`
	ActiveHabitTimes []string `json:"active_habit_times,omitempty"`
	DefaultedSources []string `json:"defaulted_sources,omitempty"`
}

type RoutineContext struct {
	UserID      string        `json:"user_id"`
	Date        string        `json:"date"` // YYYY-MM-DD format
	Profile     ProfileData   `json:"profile"`
	Habits      HabitData     `json:"habits"`
	DeepWork    DeepWorkData  `json:"deep_work"`
	Review      ReviewData    `json:"review"`
	Analytics   AnalyticsData `json:"analytics"`
	Preferences Preferences   `json:"preferences"`
	BuiltAt     time.Time     `json:"built_at"`
}

// EnergyPatterns prefers analysed patterns and falls back to the profile's declared ones.
func (c RoutineContext) EnergyPatterns() []EnergyPattern {
	if len(c.DeepWork.Patterns) > 0 {
		return c.DeepWork.Patterns
	}
	return c.Profile.Profile.EnergyPattern
}

// BehaviorEvent is one entry of a user's behavioural history.
type BehaviorEvent struct {
	Date         string       `json:"date"`
	Start        string       `json:"start"`
	Type         ActivityType `json:"type"`
	Completed    bool         `json:"completed"`
	FocusQuality *float64     `json:"focus_quality,omitempty"`
}

type DateRange struct {
	Start string `json:"start"` // YYYY-MM-DD format
	End   string `json:"end"`   // YYYY-MM-DD format
}

package models

import "time"

type ActivityType string

const (
	ActivityDeepWork      ActivityType = "deep_work"
	ActivitySkillPractice ActivityType = "skill_practice"
	ActivityStudy         ActivityType = "study"
	ActivityBreak         ActivityType = "break"
	ActivityPersonal      ActivityType = "personal"
)

func (a ActivityType) Valid() bool {
	switch a {
	case ActivityDeepWork, ActivitySkillPractice, ActivityStudy, ActivityBreak, ActivityPersonal:
		return true
	}
	return false
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities so that critical sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

type TimeSlot struct {
	Start  string      `json:"start"` // HH:MM format
	End    string      `json:"end"`   // HH:MM format; before Start only across midnight
	Energy EnergyLevel `json:"energy,omitempty"`
}

// ManualSlot is a user-authored window, optionally pinned to an activity type.
type ManualSlot struct {
	TimeSlot
	Type ActivityType `json:"type,omitempty"`
}

type Activity struct {
	ID               string       `json:"id"`
	Type             ActivityType `json:"type"`
	Goal             string       `json:"goal"`
	Priority         Priority     `json:"priority"`
	EstimatedMinutes int          `json:"estimated_minutes"`
}

type ScheduledActivity struct {
	Activity   Activity `json:"activity"`
	Slot       TimeSlot `json:"slot"`
	MatchScore float64  `json:"match_score"`
}

type ActivitySuggestion struct {
	Title    string `json:"title"`
	Detail   string `json:"detail,omitempty"`
	Resource string `json:"resource,omitempty"`
	Minutes  int    `json:"minutes,omitempty"`
}

type RoutineSegment struct {
	ID                string               `json:"id"`
	Slot              TimeSlot             `json:"slot"`
	Type              ActivityType         `json:"type"`
	Description       string               `json:"description"`
	DurationMin       int                  `json:"duration_min"`
	Priority          Priority             `json:"priority"`
	Completed         bool                 `json:"completed"`
	ActualDurationMin *int                 `json:"actual_duration_min,omitempty"`
	FocusQuality      *float64             `json:"focus_quality,omitempty"`
	Suggestions       []ActivitySuggestion `json:"suggestions,omitempty"`
}

type DailyRoutine struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Date        string           `json:"date"` // YYYY-MM-DD format
	Segments    []RoutineSegment `json:"segments"`
	Adaptations []string         `json:"adaptations"`
	Completed   bool             `json:"completed"`
	Version     int              `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// WorkMinutes sums the durations of every non-break segment.
func (r DailyRoutine) WorkMinutes() int {
	total := 0
	for _, seg := range r.Segments {
		if seg.Type == ActivityBreak {
			continue
		}
		total += seg.DurationMin
	}
	return total
}

// AllCompleted reports whether every non-break segment has been completed.
func (r DailyRoutine) AllCompleted() bool {
	work := 0
	for _, seg := range r.Segments {
		if seg.Type == ActivityBreak {
			continue
		}
		work++
		if !seg.Completed {
			return false
		}
	}
	return work > 0
}

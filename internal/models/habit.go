package models

import "time"

// Habit represents a recurring practice the user is building
type Habit struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	Active        bool       `json:"active"`
	ScheduledTime string     `json:"scheduled_time,omitempty"` // HH:MM format
	Streak        int        `json:"streak"`
	Consistency   float64    `json:"consistency"` // 0..1
	CreatedAt     time.Time  `json:"created_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
}

// EveningReview is the user's end-of-day reflection feeding tomorrow's plan
type EveningReview struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"` // YYYY-MM-DD format
	TomorrowTasks []string  `json:"tomorrow_tasks"`
	EnergyLevel   int       `json:"energy_level"` // 1..10
	Mood          int       `json:"mood"`         // 1..10
	Insights      []string  `json:"insights"`
	CreatedAt     time.Time `json:"created_at"`
}

package models

import (
	"strings"
	"time"
)

type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// Rank orders energy levels so that higher energy sorts first.
func (e EnergyLevel) Rank() int {
	switch e {
	case EnergyHigh:
		return 3
	case EnergyMedium:
		return 2
	case EnergyLow:
		return 1
	default:
		return 0
	}
}

func (e EnergyLevel) Valid() bool {
	return e.Rank() > 0
}

// EnergyPattern describes expected energy for a window of the day.
// StartTime/EndTime take precedence over TimeOfDay when both are set.
type EnergyPattern struct {
	TimeOfDay    string      `json:"time_of_day,omitempty"` // daypart name or HH:MM
	StartTime    string      `json:"start_time,omitempty"`  // HH:MM format
	EndTime      string      `json:"end_time,omitempty"`    // HH:MM format
	Level        EnergyLevel `json:"level"`
	Productivity float64     `json:"productivity"` // 0..1
}

type Profile struct {
	UserID         string          `json:"user_id"`
	TargetIdentity string          `json:"target_identity"`
	AcademicGoals  []string        `json:"academic_goals"`
	SkillGoals     []string        `json:"skill_goals"`
	WakeUpTime     string          `json:"wake_up_time"` // HH:MM format
	SleepTime      string          `json:"sleep_time"`   // HH:MM format, may wrap past midnight
	AvailableHours int             `json:"available_hours"`
	EnergyPattern  []EnergyPattern `json:"energy_pattern,omitempty"`
	LearningStyle  string          `json:"learning_style,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// MissingFields lists every field that blocks routine generation.
func (p Profile) MissingFields() []string {
	var missing []string
	if len(nonEmpty(p.AcademicGoals)) == 0 {
		missing = append(missing, "academic_goals")
	}
	if len(nonEmpty(p.SkillGoals)) == 0 {
		missing = append(missing, "skill_goals")
	}
	if strings.TrimSpace(p.WakeUpTime) == "" {
		missing = append(missing, "wake_up_time")
	}
	if strings.TrimSpace(p.SleepTime) == "" {
		missing = append(missing, "sleep_time")
	}
	if p.AvailableHours <= 0 {
		missing = append(missing, "available_hours")
	}
	return missing
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

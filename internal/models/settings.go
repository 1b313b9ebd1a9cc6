package models

import "github.com/julianstephens/routinely/internal/constants"

// Settings represents application-wide tunables
type Settings struct {
	MorningWindowStart string `json:"morning_window_start"` // start of the morning productivity window, e.g. "06:00"
	MorningWindowEnd   string `json:"morning_window_end"`   // end of the morning productivity window
	EveningWindowStart string `json:"evening_window_start"` // start of the evening productivity window, e.g. "18:00"
	EveningWindowEnd   string `json:"evening_window_end"`   // end of the evening productivity window
	MorningWakeHour    int    `json:"morning_wake_hour"`    // wake hours strictly below this mark a morning person
	HistoryDays        int    `json:"history_days"`         // days of routine history used for performance
	Timezone           string `json:"timezone"`             // IANA timezone name or "Local"
}

// DefaultSettings returns the settings written on first init.
func DefaultSettings() Settings {
	return Settings{
		MorningWindowStart: constants.DefaultMorningWindowStart,
		MorningWindowEnd:   constants.DefaultMorningWindowEnd,
		EveningWindowStart: constants.DefaultEveningWindowStart,
		EveningWindowEnd:   constants.DefaultEveningWindowEnd,
		MorningWakeHour:    constants.DefaultMorningWakeHour,
		HistoryDays:        constants.DefaultHistoryDays,
		Timezone:           constants.DefaultTimezone,
	}
}

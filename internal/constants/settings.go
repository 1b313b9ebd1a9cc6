package constants

const (
	SettingMorningWindowStart = "morning_window_start"
	SettingMorningWindowEnd   = "morning_window_end"
	SettingEveningWindowStart = "evening_window_start"
	SettingEveningWindowEnd   = "evening_window_end"
	SettingMorningWakeHour    = "morning_wake_hour"
	SettingHistoryDays        = "history_days"
	SettingTimezone           = "timezone"

	// Default Settings Values
	DefaultMorningWindowStart = "06:00"
	DefaultMorningWindowEnd   = "12:00"
	DefaultEveningWindowStart = "18:00"
	DefaultEveningWindowEnd   = "22:00"
	DefaultMorningWakeHour    = 8
	DefaultTimezone           = "Local" // Use system local timezone by default
)

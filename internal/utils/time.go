package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
)

// GetTodayInTimezone returns today's date string (YYYY-MM-DD) in the specified timezone.
func GetTodayInTimezone(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return now.Format(constants.DateFormat), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ParseTimeToMinutes parses a time string (HH:MM) and returns the number of minutes from midnight.
func ParseTimeToMinutes(timeStr string) (int, error) {
	t, err := ParseTime(strings.TrimSpace(timeStr))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatMinutes renders minutes from midnight as HH:MM, wrapping past midnight.
func FormatMinutes(minutes int) string {
	minutes %= constants.MinutesPerDay
	if minutes < 0 {
		minutes += constants.MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// WindowMinutes returns start and end as minutes from midnight, adding a day to
// end when the window wraps past midnight.
func WindowMinutes(start, end string) (int, int, error) {
	s, err := ParseTimeToMinutes(start)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start time %q: %w", start, err)
	}
	e, err := ParseTimeToMinutes(end)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end time %q: %w", end, err)
	}
	if e < s {
		e += constants.MinutesPerDay
	}
	return s, e, nil
}

// OffsetFrom expresses t (HH:MM) as minutes after anchor, treating times
// earlier than the anchor as belonging to the following day.
func OffsetFrom(anchor int, timeStr string) (int, error) {
	m, err := ParseTimeToMinutes(timeStr)
	if err != nil {
		return 0, err
	}
	if m < anchor {
		m += constants.MinutesPerDay
	}
	return m - anchor, nil
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// NormalizeDate accepts "today" or YYYY-MM-DD and returns the calendar day in
// the standard date format.
func NormalizeDate(dateStr, timezone string) (string, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" || strings.EqualFold(dateStr, "today") {
		return GetTodayInTimezone(timezone)
	}
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
	}
	return t.Format(constants.DateFormat), nil
}

// TruncateDay formats t as its calendar day.
func TruncateDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// AddDays shifts a YYYY-MM-DD date by n days.
func AddDays(dateStr string, n int) (string, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

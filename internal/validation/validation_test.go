package validation

import (
	"testing"

	"github.com/julianstephens/routinely/internal/models"
)

func manual(start, end string, typ models.ActivityType) models.ManualSlot {
	return models.ManualSlot{TimeSlot: models.TimeSlot{Start: start, End: end}, Type: typ}
}

func hasIssue(issues []Issue, typ IssueType, slots ...int) bool {
	for _, issue := range issues {
		if issue.Type != typ {
			continue
		}
		if len(slots) == 0 {
			return true
		}
		if len(issue.Slots) != len(slots) {
			continue
		}
		match := true
		for i := range slots {
			if issue.Slots[i] != slots[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestValidateManualSlots_OverlapNamesBothSlots(t *testing.T) {
	result := New().ValidateManualSlots([]models.ManualSlot{
		manual("09:00", "10:00", ""),
		manual("09:30", "10:30", ""),
	}, "", "")

	if result.Valid {
		t.Fatal("Expected overlapping slots to be invalid")
	}
	if !hasIssue(result.Errors, IssueOverlap, 1, 2) {
		t.Errorf("Expected overlap error naming slots 1 and 2, got %+v", result.Errors)
	}
}

func TestValidateManualSlots_AdjacentSlotsDoNotOverlap(t *testing.T) {
	result := New().ValidateManualSlots([]models.ManualSlot{
		manual("09:00", "10:00", ""),
		manual("10:00", "11:00", ""),
	}, "08:00", "22:00")

	if !result.Valid {
		t.Errorf("Expected adjacent slots to be valid, got %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %+v", result.Warnings)
	}
}

func TestValidateManualSlots_Errors(t *testing.T) {
	tests := []struct {
		name  string
		slots []models.ManualSlot
		wake  string
		want  IssueType
		slot  int
	}{
		{"empty list", nil, "", IssueEmpty, 0},
		{"malformed start", []models.ManualSlot{manual("9am", "10:00", "")}, "", IssueInvalidTime, 1},
		{"malformed end", []models.ManualSlot{manual("09:00", "25:00", "")}, "", IssueInvalidTime, 1},
		{"missing time", []models.ManualSlot{manual("", "10:00", "")}, "", IssueInvalidTime, 1},
		{"end equals start", []models.ManualSlot{manual("09:00", "09:00", "")}, "", IssueEndBeforeStart, 1},
		{"end before start", []models.ManualSlot{manual("11:00", "10:00", "")}, "", IssueEndBeforeStart, 1},
		{"before wake", []models.ManualSlot{manual("10:00", "11:00", ""), manual("06:00", "07:00", "")}, "07:00", IssueBeforeWake, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New().ValidateManualSlots(tt.slots, tt.wake, "")
			if result.Valid {
				t.Fatal("Expected invalid result")
			}
			var slots []int
			if tt.slot > 0 {
				slots = []int{tt.slot}
			}
			if !hasIssue(result.Errors, tt.want, slots...) {
				t.Errorf("Expected %s error, got %+v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateManualSlots_Warnings(t *testing.T) {
	tests := []struct {
		name  string
		slots []models.ManualSlot
		sleep string
		want  IssueType
	}{
		{"too short", []models.ManualSlot{manual("09:00", "09:10", "")}, "", IssueDuration},
		{"too long", []models.ManualSlot{manual("09:00", "12:30", "")}, "", IssueDuration},
		{"after sleep", []models.ManualSlot{manual("21:30", "22:30", "")}, "22:00", IssueAfterSleep},
		{"short deep work", []models.ManualSlot{manual("09:00", "09:20", models.ActivityDeepWork)}, "", IssueFocusDuration},
		{"long study", []models.ManualSlot{manual("09:00", "11:30", models.ActivityStudy)}, "", IssueFocusDuration},
		{"large gap", []models.ManualSlot{manual("13:00", "14:00", ""), manual("09:00", "10:00", "")}, "", IssueLargeGap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New().ValidateManualSlots(tt.slots, "", tt.sleep)
			if !result.Valid {
				t.Fatalf("Warnings must not invalidate, got errors %+v", result.Errors)
			}
			if !hasIssue(result.Warnings, tt.want) {
				t.Errorf("Expected %s warning, got %+v", tt.want, result.Warnings)
			}
		})
	}
}

func TestValidateManualSlots_GapUsesSortedOrder(t *testing.T) {
	result := New().ValidateManualSlots([]models.ManualSlot{
		manual("13:00", "14:00", ""),
		manual("09:00", "10:00", ""),
		manual("10:30", "12:30", ""),
	}, "", "")

	if hasIssue(result.Warnings, IssueLargeGap) {
		t.Errorf("Expected no gap warning once slots are sorted, got %+v", result.Warnings)
	}
}

func TestValidateManualSlots_SleepAfterMidnight(t *testing.T) {
	result := New().ValidateManualSlots([]models.ManualSlot{manual("22:00", "23:30", "")}, "08:00", "01:00")
	if hasIssue(result.Warnings, IssueAfterSleep) {
		t.Errorf("Expected no after-sleep warning when sleep is past midnight, got %+v", result.Warnings)
	}
}

func segment(start, end string) models.RoutineSegment {
	return models.RoutineSegment{Slot: models.TimeSlot{Start: start, End: end}, Type: models.ActivityStudy}
}

func TestValidateRoutine(t *testing.T) {
	tests := []struct {
		name      string
		segments  []models.RoutineSegment
		wake      string
		sleep     string
		wantValid bool
		wantError IssueType
		wantWarn  IssueType
	}{
		{
			name:      "ordered and disjoint",
			segments:  []models.RoutineSegment{segment("07:00", "08:30"), segment("08:30", "08:40"), segment("08:45", "10:00")},
			wake:      "07:00",
			sleep:     "22:00",
			wantValid: true,
		},
		{
			name:      "runs past midnight",
			segments:  []models.RoutineSegment{segment("22:00", "23:30"), segment("23:45", "00:30"), segment("00:30", "00:50")},
			wake:      "09:00",
			sleep:     "01:00",
			wantValid: true,
		},
		{
			name:      "overlap",
			segments:  []models.RoutineSegment{segment("07:00", "08:30"), segment("08:00", "09:00")},
			wake:      "07:00",
			wantError: IssueOverlap,
		},
		{
			name:      "out of order",
			segments:  []models.RoutineSegment{segment("09:00", "10:00"), segment("07:00", "08:00")},
			wake:      "07:00",
			wantError: IssueOutOfOrder,
		},
		{
			name:      "before wake",
			segments:  []models.RoutineSegment{segment("06:30", "07:30")},
			wake:      "07:00",
			sleep:     "22:00",
			wantError: IssueBeforeWake,
		},
		{
			name:      "after sleep is a warning",
			segments:  []models.RoutineSegment{segment("21:00", "22:30")},
			wake:      "07:00",
			sleep:     "22:00",
			wantValid: true,
			wantWarn:  IssueAfterSleep,
		},
		{
			name:      "empty",
			wantError: IssueEmpty,
		},
		{
			name:      "invalid time",
			segments:  []models.RoutineSegment{segment("7am", "08:00")},
			wantError: IssueInvalidTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New().ValidateRoutine(models.DailyRoutine{Segments: tt.segments}, tt.wake, tt.sleep)
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors %+v)", result.Valid, tt.wantValid, result.Errors)
			}
			if tt.wantError != "" && !hasIssue(result.Errors, tt.wantError) {
				t.Errorf("Expected %s error, got %+v", tt.wantError, result.Errors)
			}
			if tt.wantWarn != "" && !hasIssue(result.Warnings, tt.wantWarn) {
				t.Errorf("Expected %s warning, got %+v", tt.wantWarn, result.Warnings)
			}
		})
	}
}

func TestFormatReport(t *testing.T) {
	clean := ValidationResult{Valid: true}
	if got := clean.FormatReport(); got != "No issues detected." {
		t.Errorf("FormatReport() = %q", got)
	}

	result := New().ValidateManualSlots([]models.ManualSlot{
		manual("09:00", "10:00", ""),
		manual("09:30", "09:40", ""),
	}, "", "")
	report := result.FormatReport()
	if want := "Errors:\n- slots 1 and 2 overlap"; len(report) < len(want) || report[:len(want)] != want {
		t.Errorf("FormatReport() = %q", report)
	}
	if len(result.ErrorMessages()) != 1 || len(result.WarningMessages()) != 1 {
		t.Errorf("Expected one error and one warning, got %v / %v", result.ErrorMessages(), result.WarningMessages())
	}
}

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

// IssueType names the kind of problem found in a slot list or routine
type IssueType string

const (
	IssueEmpty          IssueType = "empty"
	IssueInvalidTime    IssueType = "invalid_time"
	IssueEndBeforeStart IssueType = "end_before_start"
	IssueBeforeWake     IssueType = "before_wake"
	IssueOverlap        IssueType = "overlapping_slots"
	IssueOutOfOrder     IssueType = "out_of_order"
	IssueDuration       IssueType = "duration_out_of_range"
	IssueFocusDuration  IssueType = "focus_duration_out_of_range"
	IssueAfterSleep     IssueType = "after_sleep"
	IssueLargeGap       IssueType = "large_gap"
)

// Issue is one error or warning. Slots holds 1-based positions.
type Issue struct {
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
	Slots       []int     `json:"slots,omitempty"`
}

type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (vr *ValidationResult) addError(t IssueType, desc string, slots ...int) {
	vr.Errors = append(vr.Errors, Issue{Type: t, Description: desc, Slots: slots})
}

func (vr *ValidationResult) addWarning(t IssueType, desc string, slots ...int) {
	vr.Warnings = append(vr.Warnings, Issue{Type: t, Description: desc, Slots: slots})
}

func (vr *ValidationResult) finish() ValidationResult {
	vr.Valid = len(vr.Errors) == 0
	return *vr
}

// ErrorMessages lists every error description, for ValidationError fields.
func (vr ValidationResult) ErrorMessages() []string {
	return descriptions(vr.Errors)
}

func (vr ValidationResult) WarningMessages() []string {
	return descriptions(vr.Warnings)
}

func descriptions(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Description
	}
	return out
}

// FormatReport returns a human-readable report of all errors and warnings
func (vr ValidationResult) FormatReport() string {
	if len(vr.Errors) == 0 && len(vr.Warnings) == 0 {
		return "No issues detected."
	}
	var b strings.Builder
	if len(vr.Errors) > 0 {
		b.WriteString("Errors:\n")
		for _, issue := range vr.Errors {
			fmt.Fprintf(&b, "- %s\n", issue.Description)
		}
	}
	if len(vr.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, issue := range vr.Warnings {
			fmt.Fprintf(&b, "- %s\n", issue.Description)
		}
	}
	return b.String()
}

// Validator checks user-authored slots and generated routines
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

type interval struct {
	pos   int // 1-based
	start int
	end   int
}

// ValidateManualSlots checks a user-authored slot list. wakeTime and
// sleepTime are optional; pass "" to skip the bound checks.
func (v *Validator) ValidateManualSlots(slots []models.ManualSlot, wakeTime, sleepTime string) ValidationResult {
	result := ValidationResult{Errors: []Issue{}, Warnings: []Issue{}}
	if len(slots) == 0 {
		result.addError(IssueEmpty, "at least one time slot is required")
		return result.finish()
	}

	wake, hasWake := optionalMinutes(wakeTime)
	sleep, hasSleep := optionalMinutes(sleepTime)
	if hasWake && hasSleep && sleep <= wake {
		// Sleep falls on the next day; no same-day slot can end after it.
		hasSleep = false
	}

	var valid []interval
	for i, slot := range slots {
		pos := i + 1
		start, err := utils.ParseTimeToMinutes(slot.Start)
		if err != nil {
			result.addError(IssueInvalidTime, fmt.Sprintf("slot %d: invalid start time %q (expected HH:MM)", pos, slot.Start), pos)
			continue
		}
		end, err := utils.ParseTimeToMinutes(slot.End)
		if err != nil {
			result.addError(IssueInvalidTime, fmt.Sprintf("slot %d: invalid end time %q (expected HH:MM)", pos, slot.End), pos)
			continue
		}
		if end <= start {
			result.addError(IssueEndBeforeStart, fmt.Sprintf("slot %d: end time %s must be after start time %s", pos, slot.End, slot.Start), pos)
			continue
		}

		duration := end - start
		if duration < constants.ManualMinSlotMin || duration > constants.ManualMaxSlotMin {
			result.addWarning(IssueDuration, fmt.Sprintf("slot %d: %d minutes is outside the recommended %d-%d minutes",
				pos, duration, constants.ManualMinSlotMin, constants.ManualMaxSlotMin), pos)
		}
		if hasWake && start < wake {
			result.addError(IssueBeforeWake, fmt.Sprintf("slot %d: starts at %s, before wake time %s", pos, slot.Start, wakeTime), pos)
		}
		if hasSleep && end > sleep {
			result.addWarning(IssueAfterSleep, fmt.Sprintf("slot %d: ends at %s, after sleep time %s", pos, slot.End, sleepTime), pos)
		}
		if (slot.Type == models.ActivityDeepWork || slot.Type == models.ActivityStudy) &&
			(duration < constants.FocusedMinSlotMin || duration > constants.FocusedMaxSlotMin) {
			result.addWarning(IssueFocusDuration, fmt.Sprintf("slot %d: %s works best in %d-%d minute blocks, got %d",
				pos, slot.Type, constants.FocusedMinSlotMin, constants.FocusedMaxSlotMin, duration), pos)
		}
		valid = append(valid, interval{pos: pos, start: start, end: end})
	}

	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			a, b := valid[i], valid[j]
			if a.start < b.end && a.end > b.start {
				result.addError(IssueOverlap, fmt.Sprintf("slots %d and %d overlap (%s-%s and %s-%s)",
					a.pos, b.pos,
					utils.FormatMinutes(a.start), utils.FormatMinutes(a.end),
					utils.FormatMinutes(b.start), utils.FormatMinutes(b.end)), a.pos, b.pos)
			}
		}
	}

	sorted := make([]interval, len(valid))
	copy(sorted, valid)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].start - sorted[i-1].end
		if gap > constants.ManualMaxGapMin {
			result.addWarning(IssueLargeGap, fmt.Sprintf("%d minute gap between slots %d and %d",
				gap, sorted[i-1].pos, sorted[i].pos), sorted[i-1].pos, sorted[i].pos)
		}
	}

	return result.finish()
}

// ValidateRoutine checks a generated or edited routine: every window parses,
// segments are ordered and disjoint, and they sit inside [wake, sleep] once
// a sleep time past midnight is unwrapped. wakeTime and sleepTime are optional.
func (v *Validator) ValidateRoutine(routine models.DailyRoutine, wakeTime, sleepTime string) ValidationResult {
	result := ValidationResult{Errors: []Issue{}, Warnings: []Issue{}}
	if len(routine.Segments) == 0 {
		result.addError(IssueEmpty, "routine has no segments")
		return result.finish()
	}

	wake, hasWake := optionalMinutes(wakeTime)
	if !hasWake {
		wake = 0
	}
	sleepEnd := -1
	if sleep, ok := optionalMinutes(sleepTime); ok {
		sleepEnd = sleep
		if sleepEnd <= wake {
			sleepEnd += constants.MinutesPerDay
		}
	}

	var spans []interval
	for i, seg := range routine.Segments {
		pos := i + 1
		start, end, err := utils.WindowMinutes(seg.Slot.Start, seg.Slot.End)
		if err != nil {
			result.addError(IssueInvalidTime, fmt.Sprintf("segment %d: %v", pos, err), pos)
			continue
		}
		if end == start {
			result.addError(IssueEndBeforeStart, fmt.Sprintf("segment %d: window %s-%s is empty", pos, seg.Slot.Start, seg.Slot.End), pos)
			continue
		}

		length := end - start
		switch {
		case start >= wake:
		case sleepEnd > constants.MinutesPerDay && start+constants.MinutesPerDay < sleepEnd:
			start += constants.MinutesPerDay
		case hasWake:
			result.addError(IssueBeforeWake, fmt.Sprintf("segment %d: starts at %s, before wake time %s", pos, seg.Slot.Start, wakeTime), pos)
		}
		end = start + length

		if sleepEnd >= 0 && end > sleepEnd {
			result.addWarning(IssueAfterSleep, fmt.Sprintf("segment %d: ends at %s, after sleep time %s", pos, seg.Slot.End, sleepTime), pos)
		}
		spans = append(spans, interval{pos: pos, start: start, end: end})
	}

	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].start {
			result.addError(IssueOutOfOrder, fmt.Sprintf("segment %d starts before segment %d", spans[i].pos, spans[i-1].pos),
				spans[i-1].pos, spans[i].pos)
		}
	}
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			a, b := spans[i], spans[j]
			if a.start < b.end && a.end > b.start {
				result.addError(IssueOverlap, fmt.Sprintf("segments %d and %d overlap", a.pos, b.pos), a.pos, b.pos)
			}
		}
	}

	return result.finish()
}

func optionalMinutes(value string) (int, bool) {
	if strings.TrimSpace(value) == "" {
		return 0, false
	}
	m, err := utils.ParseTimeToMinutes(value)
	if err != nil {
		return 0, false
	}
	return m, true
}

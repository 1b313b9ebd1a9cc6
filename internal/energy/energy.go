// Package energy classifies time windows by expected cognitive capacity and
// pairs activities with the windows that suit them.
package energy

import (
	"sort"
	"strings"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

// Preference holds the daypart boundaries, in minutes from midnight, used for
// classification and chronotype detection.
type Preference struct {
	MorningStart    int
	MorningEnd      int
	EveningStart    int
	EveningEnd      int
	MorningWakeHour int
}

func DefaultPreference() Preference {
	return Preference{
		MorningStart:    6 * 60,
		MorningEnd:      12 * 60,
		EveningStart:    18 * 60,
		EveningEnd:      22 * 60,
		MorningWakeHour: constants.DefaultMorningWakeHour,
	}
}

// PreferenceFromSettings reads the daypart windows from settings, keeping the
// default for any value that does not parse.
func PreferenceFromSettings(s models.Settings) Preference {
	p := DefaultPreference()
	set := func(dst *int, value string) {
		if m, err := utils.ParseTimeToMinutes(value); err == nil {
			*dst = m
		}
	}
	set(&p.MorningStart, s.MorningWindowStart)
	set(&p.MorningEnd, s.MorningWindowEnd)
	set(&p.EveningStart, s.EveningWindowStart)
	set(&p.EveningEnd, s.EveningWindowEnd)
	if s.MorningWakeHour > 0 {
		p.MorningWakeHour = s.MorningWakeHour
	}
	return p
}

type window struct {
	start int
	end   int // may exceed a day for windows crossing midnight
}

func (w window) contains(minute int) bool {
	return (minute >= w.start && minute < w.end) ||
		(minute+constants.MinutesPerDay >= w.start && minute+constants.MinutesPerDay < w.end)
}

func span(start, end int) window {
	if end <= start {
		end += constants.MinutesPerDay
	}
	return window{start: start, end: end}
}

// PatternWindow resolves the window an energy pattern covers.
func (p Preference) PatternWindow(pattern models.EnergyPattern) (start, end int, ok bool) {
	if pattern.StartTime != "" && pattern.EndTime != "" {
		s, e, err := utils.WindowMinutes(pattern.StartTime, pattern.EndTime)
		if err != nil {
			return 0, 0, false
		}
		return s, e, true
	}

	var w window
	switch strings.ToLower(strings.TrimSpace(pattern.TimeOfDay)) {
	case "":
		return 0, 0, false
	case "morning":
		w = span(p.MorningStart, p.MorningEnd)
	case "afternoon":
		w = span(p.MorningEnd, p.EveningStart)
	case "evening":
		w = span(p.EveningStart, p.EveningEnd)
	case "night":
		w = span(p.EveningEnd, p.MorningStart)
	default:
		m, err := utils.ParseTimeToMinutes(pattern.TimeOfDay)
		if err != nil {
			return 0, 0, false
		}
		w = window{start: m, end: m + 60}
	}
	return w.start, w.end, true
}

// Classify returns the slot's energy: its own level if set, else the first
// pattern covering its start, else the daypart default.
func (p Preference) Classify(slot models.TimeSlot, patterns []models.EnergyPattern) models.EnergyLevel {
	if slot.Energy.Valid() {
		return slot.Energy
	}
	start, err := utils.ParseTimeToMinutes(slot.Start)
	if err != nil {
		return models.EnergyLow
	}
	for _, pattern := range patterns {
		if !pattern.Level.Valid() {
			continue
		}
		s, e, ok := p.PatternWindow(pattern)
		if ok && (window{start: s, end: e}).contains(start) {
			return pattern.Level
		}
	}
	switch {
	case span(p.MorningStart, p.MorningEnd).contains(start):
		return models.EnergyHigh
	case span(p.MorningEnd, p.EveningStart).contains(start):
		return models.EnergyMedium
	default:
		return models.EnergyLow
	}
}

// IsMorningPerson compares mean productivity of morning and evening patterns.
// With no evening signal the answer is morning.
func (p Preference) IsMorningPerson(patterns []models.EnergyPattern) (morning, decided bool) {
	morningWindow := span(p.MorningStart, p.MorningEnd)
	eveningWindow := span(p.EveningStart, p.EveningEnd)

	var mSum, eSum float64
	var mCount, eCount int
	for _, pattern := range patterns {
		s, _, ok := p.PatternWindow(pattern)
		if !ok {
			continue
		}
		switch {
		case morningWindow.contains(s):
			mSum += pattern.Productivity
			mCount++
		case eveningWindow.contains(s):
			eSum += pattern.Productivity
			eCount++
		}
	}

	switch {
	case mCount == 0 && eCount == 0:
		return true, false
	case eCount == 0:
		return true, true
	case mCount == 0:
		return false, true
	}
	return mSum/float64(mCount) >= eSum/float64(eCount), true
}

// IsMorningPersonForProfile falls back to the wake-hour heuristic when the
// patterns carry no chronotype signal.
func (p Preference) IsMorningPersonForProfile(profile models.Profile, patterns []models.EnergyPattern) bool {
	if morning, decided := p.IsMorningPerson(patterns); decided {
		return morning
	}
	wake, err := utils.ParseTimeToMinutes(profile.WakeUpTime)
	if err != nil {
		return true
	}
	return wake/60 < p.MorningWakeHour
}

// ClassifyTimeSlotEnergy classifies a slot with the default dayparts.
func ClassifyTimeSlotEnergy(slot models.TimeSlot, patterns []models.EnergyPattern) models.EnergyLevel {
	return DefaultPreference().Classify(slot, patterns)
}

// MatchScore is the fitness of running an activity of the given priority in a
// window of the given energy.
func MatchScore(priority models.Priority, level models.EnergyLevel) float64 {
	switch {
	case priority == models.PriorityCritical && level == models.EnergyHigh:
		return 1.0
	case priority == models.PriorityCritical:
		return 0.4
	case priority == models.PriorityHigh && level == models.EnergyHigh,
		priority == models.PriorityMedium && level == models.EnergyMedium,
		priority == models.PriorityLow && level == models.EnergyLow:
		return 0.9
	case priority == models.PriorityHigh && level == models.EnergyMedium,
		priority == models.PriorityMedium && level == models.EnergyHigh:
		return 0.7
	case priority == models.PriorityMedium && level == models.EnergyLow:
		return 0.6
	default:
		return 0.5
	}
}

// MatchActivitiesToEnergy pairs the highest-priority activities with the
// highest-energy slots, by index, up to the shorter of the two lists.
func (p Preference) MatchActivitiesToEnergy(activities []models.Activity, slots []models.TimeSlot, patterns []models.EnergyPattern) []models.ScheduledActivity {
	acts := make([]models.Activity, len(activities))
	copy(acts, activities)
	sort.SliceStable(acts, func(i, j int) bool {
		return acts[i].Priority.Rank() > acts[j].Priority.Rank()
	})

	classified := make([]models.TimeSlot, len(slots))
	for i, slot := range slots {
		slot.Energy = p.Classify(slot, patterns)
		classified[i] = slot
	}
	sort.SliceStable(classified, func(i, j int) bool {
		return classified[i].Energy.Rank() > classified[j].Energy.Rank()
	})

	n := min(len(acts), len(classified))
	out := make([]models.ScheduledActivity, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ScheduledActivity{
			Activity:   acts[i],
			Slot:       classified[i],
			MatchScore: MatchScore(acts[i].Priority, classified[i].Energy),
		})
	}
	return out
}

func MatchActivitiesToEnergy(activities []models.Activity, slots []models.TimeSlot, patterns []models.EnergyPattern) []models.ScheduledActivity {
	return DefaultPreference().MatchActivitiesToEnergy(activities, slots, patterns)
}

// OptimizeActivityOrder orders activities for the user's chronotype: morning
// people get priority groups back to back, evening people get them interleaved.
func (p Preference) OptimizeActivityOrder(activities []models.Activity, patterns []models.EnergyPattern) []models.Activity {
	groups := make([][]models.Activity, 4)
	order := []models.Priority{models.PriorityCritical, models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
	for _, a := range activities {
		idx := len(order) - 1
		for i, pr := range order {
			if a.Priority == pr {
				idx = i
				break
			}
		}
		groups[idx] = append(groups[idx], a)
	}

	out := make([]models.Activity, 0, len(activities))
	if morning, _ := p.IsMorningPerson(patterns); morning {
		for _, g := range groups {
			out = append(out, g...)
		}
		return out
	}

	for i := 0; len(out) < len(activities); i++ {
		for _, g := range groups {
			if i < len(g) {
				out = append(out, g[i])
			}
		}
	}
	return out
}

func OptimizeActivityOrder(activities []models.Activity, patterns []models.EnergyPattern) []models.Activity {
	return DefaultPreference().OptimizeActivityOrder(activities, patterns)
}

// GetOptimalTimeForActivity suggests a window for focused activity types and
// returns nil for the rest.
func (p Preference) GetOptimalTimeForActivity(activity models.ActivityType, patterns []models.EnergyPattern) *models.TimeSlot {
	var want models.EnergyLevel
	var fallback models.TimeSlot
	switch activity {
	case models.ActivityDeepWork:
		want = models.EnergyHigh
		fallback = models.TimeSlot{Start: "09:00", End: "11:00", Energy: models.EnergyHigh}
	case models.ActivitySkillPractice:
		want = models.EnergyMedium
		fallback = models.TimeSlot{Start: "14:00", End: "16:00", Energy: models.EnergyMedium}
	default:
		return nil
	}

	for _, pattern := range patterns {
		if pattern.Level != want {
			continue
		}
		if s, e, ok := p.PatternWindow(pattern); ok {
			return &models.TimeSlot{Start: utils.FormatMinutes(s), End: utils.FormatMinutes(e), Energy: want}
		}
	}
	return &fallback
}

func GetOptimalTimeForActivity(activity models.ActivityType, patterns []models.EnergyPattern) *models.TimeSlot {
	return DefaultPreference().GetOptimalTimeForActivity(activity, patterns)
}

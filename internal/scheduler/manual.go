package scheduler

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/energy"
	apperr "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
	"github.com/julianstephens/routinely/internal/validation"
)

// Suggester proposes concrete activities for a slot. It is optional and
// best-effort: failures leave the segment without suggestions.
type Suggester interface {
	SuggestActivities(ctx context.Context, slot models.TimeSlot, rctx models.RoutineContext) ([]models.ActivitySuggestion, error)
}

// FillSlotsWithActivities fills user-authored slots with activities drawn
// from the profile's goals, matched to each slot's energy. The user's windows
// are kept exactly; validation warnings come back as adaptation notes.
func (s *Scheduler) FillSlotsWithActivities(ctx context.Context, slots []models.ManualSlot, rctx models.RoutineContext, suggester Suggester) (Plan, error) {
	profile := rctx.Profile.Profile
	result := validation.New().ValidateManualSlots(slots, profile.WakeUpTime, profile.SleepTime)
	if !result.Valid {
		return Plan{}, apperr.NewValidation("fill manual slots", result.ErrorMessages()...)
	}

	patterns := rctx.EnergyPatterns()
	timeSlots := ClassifySlots(s.pref, slots, patterns)

	activities := s.manualActivities(profile, len(slots))
	matched := s.pref.MatchActivitiesToEnergy(activities, timeSlots, patterns)

	pinned := make(map[string]models.ActivityType, len(slots))
	for _, slot := range slots {
		if slot.Type.Valid() {
			pinned[slot.Start] = slot.Type
		}
	}

	log := logger.Component("scheduler")
	segments := make([]models.RoutineSegment, 0, len(matched))
	for _, m := range matched {
		act := m.Activity
		if t, ok := pinned[m.Slot.Start]; ok && t != act.Type {
			act.Type = t
		}
		seg := newSegment(m.Slot, act)
		if suggester != nil {
			suggestions, err := suggester.SuggestActivities(ctx, m.Slot, rctx)
			if err != nil {
				log.Debug("suggestions unavailable", "slot", m.Slot.Start, "error", err)
			} else {
				seg.Suggestions = suggestions
			}
		}
		segments = append(segments, seg)
	}
	sort.SliceStable(segments, func(i, j int) bool {
		a, _ := utils.ParseTimeToMinutes(segments[i].Slot.Start)
		b, _ := utils.ParseTimeToMinutes(segments[j].Slot.Start)
		return a < b
	})

	plan := Plan{Segments: segments}
	for _, w := range result.WarningMessages() {
		plan.Adaptations = append(plan.Adaptations, "Manual slot warning: "+w)
	}
	return plan, nil
}

// manualActivities builds count activities from the shuffled combined goal
// pool: academic goals become high-priority deep work, skill goals become
// medium skill practice, and once the goals run out the rest are low study.
func (s *Scheduler) manualActivities(profile models.Profile, count int) []models.Activity {
	type goal struct {
		text     string
		academic bool
	}
	var combined []goal
	for _, g := range nonBlank(profile.AcademicGoals) {
		combined = append(combined, goal{text: g, academic: true})
	}
	for _, g := range nonBlank(profile.SkillGoals) {
		combined = append(combined, goal{text: g})
	}
	s.mu.Lock()
	combined = utils.Shuffled(s.rng, combined)
	s.mu.Unlock()

	out := make([]models.Activity, 0, count)
	for i := 0; i < count; i++ {
		a := models.Activity{
			ID:               uuid.New().String(),
			Type:             models.ActivityStudy,
			Goal:             constants.DefaultAcademicGoal,
			Priority:         models.PriorityLow,
			EstimatedMinutes: 60,
		}
		if i < len(combined) {
			a.Goal = combined[i].text
			if combined[i].academic {
				a.Type, a.Priority, a.EstimatedMinutes = models.ActivityDeepWork, models.PriorityHigh, 90
			} else {
				a.Type, a.Priority = models.ActivitySkillPractice, models.PriorityMedium
			}
		}
		out = append(out, a)
	}
	return out
}

// ClassifySlots reports the energy of each slot without filling it.
func ClassifySlots(pref energy.Preference, slots []models.ManualSlot, patterns []models.EnergyPattern) []models.TimeSlot {
	out := make([]models.TimeSlot, len(slots))
	for i, slot := range slots {
		ts := slot.TimeSlot
		ts.Energy = pref.Classify(ts, patterns)
		out[i] = ts
	}
	return out
}

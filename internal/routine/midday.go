package routine

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/constants"
	apperr "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

const placeholderDescription = "Study: open block (plan when you get here)"

// AdaptMidDay keeps every completed segment as it is, drops the rest, and
// fills remainingMinutes after the last completed segment (or wake time) with
// hour-long study blocks, the last one shorter when the time does not divide
// evenly. Blocks that would run past sleep time are trimmed.
func (s *Service) AdaptMidDay(ctx context.Context, userID, routineID string, remainingMinutes int) (models.DailyRoutine, error) {
	if remainingMinutes <= 0 {
		return models.DailyRoutine{}, apperr.NewValidation("adapt routine",
			fmt.Sprintf("remaining_minutes: must be positive, got %d", remainingMinutes))
	}

	r, err := s.owned(ctx, userID, routineID)
	if err != nil {
		return models.DailyRoutine{}, err
	}
	profile, _, err := s.Profile(ctx, userID)
	if err != nil {
		return models.DailyRoutine{}, err
	}

	wake, sleep, err := utils.WindowMinutes(profile.WakeUpTime, profile.SleepTime)
	if err != nil {
		return models.DailyRoutine{}, apperr.NewValidation("adapt routine", fmt.Sprintf("profile: %v", err))
	}
	if sleep == wake {
		sleep += constants.MinutesPerDay
	}

	var kept []models.RoutineSegment
	anchor := wake
	for _, seg := range r.Segments {
		if !seg.Completed {
			continue
		}
		kept = append(kept, seg)
		end, err := utils.OffsetFrom(wake, seg.Slot.End)
		if err != nil {
			return models.DailyRoutine{}, apperr.NewValidation("adapt routine", fmt.Sprintf("segment %s: %v", seg.ID, err))
		}
		anchor = max(anchor, wake+end)
	}

	if anchor >= sleep {
		return models.DailyRoutine{}, apperr.NewValidation("adapt routine", "remaining_minutes: no time left before sleep")
	}
	notes := append([]string{}, r.Adaptations...)
	if anchor+remainingMinutes > sleep {
		remainingMinutes = sleep - anchor
		notes = append(notes, fmt.Sprintf("Mid-day adaptation: trimmed to %d minutes before sleep", remainingMinutes))
	}

	fresh := placeholderSegments(anchor, remainingMinutes)
	segments := append(kept, fresh...)
	notes = append(notes, fmt.Sprintf("Mid-day adaptation: regenerated %d segments", len(fresh)))

	updated, err := s.store.UpdateRoutineSegments(ctx, r.ID, segments, notes, r.Version)
	switch {
	case err == nil:
	case stderrors.Is(err, storage.ErrNotFound):
		return models.DailyRoutine{}, apperr.NewNotFound("routine", routineID)
	default:
		return models.DailyRoutine{}, apperr.NewPersistence("adapt routine", err)
	}

	s.log.Info("routine adapted", "user", userID, "routine", routineID, "kept", len(kept), "regenerated", len(fresh))
	return updated, nil
}

func placeholderSegments(anchor, minutes int) []models.RoutineSegment {
	var out []models.RoutineSegment
	for start := anchor; start < anchor+minutes; start += constants.MidDaySegmentSizeMin {
		length := min(constants.MidDaySegmentSizeMin, anchor+minutes-start)
		out = append(out, models.RoutineSegment{
			ID:          uuid.New().String(),
			Slot:        models.TimeSlot{Start: utils.FormatMinutes(start), End: utils.FormatMinutes(start + length)},
			Type:        models.ActivityStudy,
			Description: placeholderDescription,
			DurationMin: length,
			Priority:    models.PriorityMedium,
		})
	}
	return out
}

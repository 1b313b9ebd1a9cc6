package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
)

// recentDays is how many of the latest observed days count toward recent
// successes and failures.
const recentDays = 7

// EventSource yields a user's behavioural history.
type EventSource interface {
	GetBehavioralAnalytics(ctx context.Context, userID string, days int) ([]models.BehaviorEvent, error)
}

// PerformanceAnalyzer turns behavioural history into PerformanceData for the
// complexity controller.
type PerformanceAnalyzer struct {
	source EventSource
}

func NewPerformanceAnalyzer(source EventSource) *PerformanceAnalyzer {
	return &PerformanceAnalyzer{source: source}
}

// Analyze returns nil, without error, when the user has no history yet.
func (pa *PerformanceAnalyzer) Analyze(ctx context.Context, userID string, days int) (*models.PerformanceData, error) {
	if pa.source == nil {
		return nil, nil
	}
	events, err := pa.source.GetBehavioralAnalytics(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get behavioral history: %w", err)
	}
	return DerivePerformance(events), nil
}

// EventsFromRoutines flattens routines into one event per work segment.
func EventsFromRoutines(routines []models.DailyRoutine) []models.BehaviorEvent {
	var events []models.BehaviorEvent
	for _, r := range routines {
		for _, seg := range r.Segments {
			if seg.Type == models.ActivityBreak {
				continue
			}
			events = append(events, models.BehaviorEvent{
				Date:         r.Date,
				Start:        seg.Slot.Start,
				Type:         seg.Type,
				Completed:    seg.Completed,
				FocusQuality: seg.FocusQuality,
			})
		}
	}
	return events
}

type tally struct {
	done  int
	total int
}

func (t tally) rate() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.done) / float64(t.total)
}

// DerivePerformance summarises behaviour events. It returns nil for an empty
// history so callers can tell "no data" from "bad data".
func DerivePerformance(events []models.BehaviorEvent) *models.PerformanceData {
	var overall tally
	byDay := map[string]*tally{}
	byType := map[models.ActivityType]*tally{}
	var focusSum float64
	var focusCount int

	for _, e := range events {
		if e.Type == models.ActivityBreak {
			continue
		}
		overall.total++
		day := byDay[e.Date]
		if day == nil {
			day = &tally{}
			byDay[e.Date] = day
		}
		day.total++
		kind := byType[e.Type]
		if kind == nil {
			kind = &tally{}
			byType[e.Type] = kind
		}
		kind.total++
		if e.Completed {
			overall.done++
			day.done++
			kind.done++
		}
		if e.FocusQuality != nil {
			focusSum += *e.FocusQuality
			focusCount++
		}
	}
	if overall.total == 0 {
		return nil
	}

	dates := make([]string, 0, len(byDay))
	consistent := 0
	for date, t := range byDay {
		dates = append(dates, date)
		if t.rate() >= constants.LowCompletionRate {
			consistent++
		}
	}
	sort.Strings(dates)

	perf := &models.PerformanceData{
		CompletionRate:      overall.rate(),
		ConsistencyScore:    float64(consistent) / float64(len(dates)),
		AverageFocusQuality: constants.DefaultAnalyticsScalar,
		DaysObserved:        len(dates),
	}
	if focusCount > 0 {
		perf.AverageFocusQuality = focusSum / float64(focusCount)
	}

	for _, date := range dates[max(0, len(dates)-recentDays):] {
		t := byDay[date]
		perf.RecentSuccesses += t.done
		perf.RecentFailures += t.total - t.done
	}

	for kind, t := range byType {
		if t.total >= 2 && t.rate() >= perf.CompletionRate {
			perf.PreferredActivityTypes = append(perf.PreferredActivityTypes, kind)
		}
	}
	sort.Slice(perf.PreferredActivityTypes, func(i, j int) bool {
		a, b := perf.PreferredActivityTypes[i], perf.PreferredActivityTypes[j]
		if ra, rb := byType[a].rate(), byType[b].rate(); ra != rb {
			return ra > rb
		}
		return a < b
	})
	return perf
}

package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/optimizer"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

// CalculatePersonalizationMetrics scores the routines dated inside window.
// An empty window reports ErrNotFound so the aggregator uses its default.
func (l *Local) CalculatePersonalizationMetrics(ctx context.Context, userID string, window models.DateRange) (models.AnalyticsData, error) {
	routines, err := l.store.GetRoutinesInRange(ctx, userID, window.Start, window.End)
	if err != nil {
		return models.AnalyticsData{}, fmt.Errorf("failed to load routines: %w", err)
	}
	events := optimizer.EventsFromRoutines(routines)
	perf := optimizer.DerivePerformance(events)
	if perf == nil {
		return models.AnalyticsData{}, storage.ErrNotFound
	}

	data := models.AnalyticsData{
		ConsistencyScore:     perf.ConsistencyScore,
		ProductivityPatterns: map[string]float64{},
		BehavioralInsights:   []string{},
		CompletionRates:      map[models.ActivityType]float64{},
		OptimalActivityTimes: map[models.ActivityType]string{},
	}

	byPart := map[string]*mean{}
	byType := map[models.ActivityType]*mean{}
	byHour := map[models.ActivityType]map[int]*mean{}
	aligned, done := 0, 0
	for _, e := range events {
		completed := 0.0
		if e.Completed {
			completed = 1
			done++
			if e.Type == models.ActivityDeepWork || e.Type == models.ActivitySkillPractice {
				aligned++
			}
		}
		if byType[e.Type] == nil {
			byType[e.Type] = &mean{}
			byHour[e.Type] = map[int]*mean{}
		}
		byType[e.Type].add(completed)

		start, err := utils.ParseTimeToMinutes(e.Start)
		if err != nil {
			continue
		}
		part := daypart(l.pref, start)
		if byPart[part] == nil {
			byPart[part] = &mean{}
		}
		byPart[part].add(completed)
		hour := start / 60
		if byHour[e.Type][hour] == nil {
			byHour[e.Type][hour] = &mean{}
		}
		byHour[e.Type][hour].add(completed)
	}

	if done > 0 {
		data.IdentityAlignment = float64(aligned) / float64(done)
	}
	for part, m := range byPart {
		data.ProductivityPatterns[part] = m.value()
	}
	for kind, m := range byType {
		data.CompletionRates[kind] = m.value()
		if hour, ok := bestHour(byHour[kind]); ok {
			data.OptimalActivityTimes[kind] = utils.FormatMinutes(hour * 60)
		}
	}

	data.BehavioralInsights = append(data.BehavioralInsights,
		fmt.Sprintf("Completed %.0f%% of planned segments over %d days", perf.CompletionRate*100, perf.DaysObserved))
	if part, ok := bestPart(byPart); ok {
		data.BehavioralInsights = append(data.BehavioralInsights, fmt.Sprintf("Most reliable in the %s", part))
	}
	return data, nil
}

// bestHour picks the hour with the highest completion rate, earliest first
// on ties, ignoring hours where nothing was ever completed.
func bestHour(hours map[int]*mean) (int, bool) {
	keys := make([]int, 0, len(hours))
	for h := range hours {
		keys = append(keys, h)
	}
	sort.Ints(keys)
	best, found := 0, false
	for _, h := range keys {
		if hours[h].value() == 0 {
			continue
		}
		if !found || hours[h].value() > hours[best].value() {
			best, found = h, true
		}
	}
	return best, found
}

func bestPart(parts map[string]*mean) (string, bool) {
	best, found := "", false
	for _, part := range dayparts {
		m := parts[part]
		if m == nil || m.value() == 0 {
			continue
		}
		if !found || m.value() > parts[best].value() {
			best, found = part, true
		}
	}
	return best, found
}

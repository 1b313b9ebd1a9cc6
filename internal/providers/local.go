// Package providers implements the context sources on top of the local store.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/routinely/internal/aggregator"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/energy"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/optimizer"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

// Store is the slice of storage the local providers read from.
type Store interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	GetHabits(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error)
	GetLatestReview(ctx context.Context, userID, before string) (models.EveningReview, error)
	GetRoutinesInRange(ctx context.Context, userID, start, end string) ([]models.DailyRoutine, error)
}

type Local struct {
	store       Store
	pref        energy.Preference
	historyDays int
	timezone    string
	now         func() time.Time
}

type Option func(*Local)

func WithPreference(p energy.Preference) Option {
	return func(l *Local) { l.pref = p }
}

// WithHistoryDays sets how far back the deep-work analysis looks.
func WithHistoryDays(days int) Option {
	return func(l *Local) {
		if days > 0 {
			l.historyDays = days
		}
	}
}

func WithTimezone(tz string) Option {
	return func(l *Local) { l.timezone = tz }
}

func WithClock(now func() time.Time) Option {
	return func(l *Local) { l.now = now }
}

func NewLocal(store Store, opts ...Option) *Local {
	l := &Local{
		store:       store,
		pref:        energy.DefaultPreference(),
		historyDays: constants.DefaultHistoryDays,
		timezone:    constants.DefaultTimezone,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Providers exposes l as all five context sources.
func (l *Local) Providers() aggregator.Providers {
	return aggregator.Providers{
		Profile:   l,
		Habits:    l,
		DeepWork:  l,
		Review:    l,
		Analytics: l,
	}
}

func (l *Local) today() string {
	now := l.now()
	if loc, err := utils.LoadLocation(l.timezone); err == nil {
		now = now.In(loc)
	}
	return utils.TruncateDay(now)
}

// recentRoutines loads routines from the days before today.
func (l *Local) recentRoutines(ctx context.Context, userID string, days int) ([]models.DailyRoutine, error) {
	today := l.today()
	start, err := utils.AddDays(today, -days)
	if err != nil {
		return nil, err
	}
	end, err := utils.AddDays(today, -1)
	if err != nil {
		return nil, err
	}
	return l.store.GetRoutinesInRange(ctx, userID, start, end)
}

func (l *Local) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	return l.store.GetProfile(ctx, userID)
}

func (l *Local) GetBehavioralAnalytics(ctx context.Context, userID string, days int) ([]models.BehaviorEvent, error) {
	routines, err := l.recentRoutines(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to load routine history: %w", err)
	}
	return optimizer.EventsFromRoutines(routines), nil
}

func (l *Local) GetUserHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	habits, err := l.store.GetHabits(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	active := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		if h.Active {
			active = append(active, h)
		}
	}
	return active, nil
}

func (l *Local) GetRecentReview(ctx context.Context, userID, before string) (models.EveningReview, error) {
	return l.store.GetLatestReview(ctx, userID, before)
}

// AnalyzeEnergyPatterns derives per-daypart energy from the focus quality of
// recently completed segments. Without focus data it falls back to the
// profile's declared pattern, and without that it reports ErrNotFound.
func (l *Local) AnalyzeEnergyPatterns(ctx context.Context, userID string) (models.DeepWorkData, error) {
	routines, err := l.recentRoutines(ctx, userID, l.historyDays)
	if err != nil {
		return models.DeepWorkData{}, fmt.Errorf("failed to load routine history: %w", err)
	}

	data := models.DeepWorkData{
		AvgSessionMinutes: constants.DefaultSessionMin,
		CognitiveLoad:     cognitiveLoad(routines),
	}

	focus := map[string]*mean{}
	var sessions mean
	for _, r := range routines {
		for _, seg := range r.Segments {
			if !seg.Completed || seg.Type == models.ActivityBreak {
				continue
			}
			if seg.Type == models.ActivityDeepWork {
				minutes := seg.DurationMin
				if seg.ActualDurationMin != nil {
					minutes = *seg.ActualDurationMin
				}
				sessions.add(float64(minutes))
			}
			if seg.FocusQuality == nil {
				continue
			}
			start, err := utils.ParseTimeToMinutes(seg.Slot.Start)
			if err != nil {
				continue
			}
			part := daypart(l.pref, start)
			if focus[part] == nil {
				focus[part] = &mean{}
			}
			focus[part].add(*seg.FocusQuality)
		}
	}
	if sessions.n > 0 {
		data.AvgSessionMinutes = int(sessions.value() + 0.5)
	}

	for _, part := range dayparts {
		m := focus[part]
		if m == nil {
			continue
		}
		data.Patterns = append(data.Patterns, models.EnergyPattern{
			TimeOfDay:    part,
			Level:        levelFor(m.value()),
			Productivity: m.value(),
		})
	}

	if len(data.Patterns) == 0 {
		profile, err := l.store.GetProfile(ctx, userID)
		if err != nil {
			return models.DeepWorkData{}, err
		}
		if len(profile.EnergyPattern) == 0 {
			return models.DeepWorkData{}, storage.ErrNotFound
		}
		data.Patterns = profile.EnergyPattern
	}

	for _, p := range data.Patterns {
		if p.Level != models.EnergyHigh {
			continue
		}
		if s, e, ok := l.pref.PatternWindow(p); ok {
			data.OptimalWindows = append(data.OptimalWindows, models.TimeSlot{
				Start:  utils.FormatMinutes(s),
				End:    utils.FormatMinutes(e),
				Energy: models.EnergyHigh,
			})
		}
	}
	return data, nil
}

var dayparts = []string{"morning", "afternoon", "evening", "night"}

func daypart(p energy.Preference, minute int) string {
	switch {
	case minute >= p.MorningStart && minute < p.MorningEnd:
		return "morning"
	case minute >= p.MorningEnd && minute < p.EveningStart:
		return "afternoon"
	case minute >= p.EveningStart && minute < p.EveningEnd:
		return "evening"
	default:
		return "night"
	}
}

func levelFor(productivity float64) models.EnergyLevel {
	switch {
	case productivity >= 0.7:
		return models.EnergyHigh
	case productivity >= 0.4:
		return models.EnergyMedium
	default:
		return models.EnergyLow
	}
}

// cognitiveLoad grades the average planned work per day.
func cognitiveLoad(routines []models.DailyRoutine) string {
	if len(routines) == 0 {
		return constants.DefaultCognitiveLoad
	}
	total := 0
	for _, r := range routines {
		total += r.WorkMinutes()
	}
	switch avg := total / len(routines); {
	case avg > 360:
		return "high"
	case avg > 180:
		return "medium"
	default:
		return "low"
	}
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

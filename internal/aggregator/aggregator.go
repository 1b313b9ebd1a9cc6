// Package aggregator assembles the per-day routine context from five
// independent sources, degrading each failed source to its default.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/routinely/internal/cache"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/energy"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

const (
	SourceProfile   = "profile"
	SourceHabits    = "habits"
	SourceDeepWork  = "deep_work"
	SourceReview    = "review"
	SourceAnalytics = "analytics"
)

var errNoProvider = errors.New("no provider configured")

type Aggregator struct {
	providers       Providers
	cache           cache.Cache
	timeout         time.Duration
	analyticsWindow int
	pref            energy.Preference
	now             func() time.Time
	log             *log.Logger
}

type Option func(*Aggregator)

// WithTimeout bounds each individual source fetch.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithPreference(p energy.Preference) Option {
	return func(a *Aggregator) { a.pref = p }
}

func WithAnalyticsWindow(days int) Option {
	return func(a *Aggregator) {
		if days > 0 {
			a.analyticsWindow = days
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(providers Providers, c cache.Cache, opts ...Option) *Aggregator {
	a := &Aggregator{
		providers:       providers,
		cache:           c,
		timeout:         constants.ProviderTimeout,
		analyticsWindow: constants.DefaultAnalyticsWindow,
		pref:            energy.DefaultPreference(),
		now:             time.Now,
		log:             logger.Component("aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildRoutineContext returns the cached context for (userID, date) or builds
// it. It only fails on a malformed date; source failures are absorbed.
func (a *Aggregator) BuildRoutineContext(ctx context.Context, userID, date string) (models.RoutineContext, error) {
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return models.RoutineContext{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	key := cache.Key(userID, date)
	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			a.log.Warn("context cache read failed", "user", userID, "error", err)
		} else if ok {
			a.log.Debug("context cache hit", "user", userID, "date", date)
			return cached, nil
		}
	}

	rctx := a.assemble(ctx, userID, date)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, rctx); err != nil {
			a.log.Warn("context cache write failed", "user", userID, "error", err)
		}
	}
	return rctx, nil
}

func (a *Aggregator) assemble(ctx context.Context, userID, date string) models.RoutineContext {
	// Fetches outlive a cancelled caller; each is bounded by its own timeout.
	base := context.WithoutCancel(ctx)
	rctx := models.RoutineContext{UserID: userID, Date: date}

	var g errgroup.Group

	g.Go(func() error {
		profile, err := fetch(base, a.timeout, a.providers.Profile != nil, func(ctx context.Context) (models.Profile, error) {
			return a.providers.Profile.GetProfile(ctx, userID)
		})
		if err != nil {
			a.degraded(SourceProfile, userID, err)
			rctx.Profile = DefaultProfile(userID)
			return nil
		}
		rctx.Profile = models.ProfileData{Profile: profile}
		return nil
	})

	g.Go(func() error {
		habits, err := fetch(base, a.timeout, a.providers.Habits != nil, func(ctx context.Context) ([]models.Habit, error) {
			return a.providers.Habits.GetUserHabits(ctx, userID)
		})
		if err != nil {
			a.degraded(SourceHabits, userID, err)
			rctx.Habits = DefaultHabits()
			return nil
		}
		if habits == nil {
			habits = []models.Habit{}
		}
		rctx.Habits = models.HabitData{Habits: habits}
		return nil
	})

	g.Go(func() error {
		deep, err := fetch(base, a.timeout, a.providers.DeepWork != nil, func(ctx context.Context) (models.DeepWorkData, error) {
			return a.providers.DeepWork.AnalyzeEnergyPatterns(ctx, userID)
		})
		if err != nil {
			a.degraded(SourceDeepWork, userID, err)
			rctx.DeepWork = DefaultDeepWork()
			return nil
		}
		if deep.AvgSessionMinutes <= 0 {
			deep.AvgSessionMinutes = constants.DefaultSessionMin
		}
		if deep.CognitiveLoad == "" {
			deep.CognitiveLoad = constants.DefaultCognitiveLoad
		}
		deep.Defaulted = false
		rctx.DeepWork = deep
		return nil
	})

	g.Go(func() error {
		review, err := fetch(base, a.timeout, a.providers.Review != nil, func(ctx context.Context) (models.EveningReview, error) {
			return a.providers.Review.GetRecentReview(ctx, userID, date)
		})
		if err != nil {
			a.degraded(SourceReview, userID, err)
			rctx.Review = DefaultReview()
			return nil
		}
		rctx.Review = models.ReviewData{
			TomorrowTasks: review.TomorrowTasks,
			EnergyLevel:   review.EnergyLevel,
			Mood:          review.Mood,
			Insights:      review.Insights,
		}
		return nil
	})

	g.Go(func() error {
		window := a.analyticsRange(date)
		analytics, err := fetch(base, a.timeout, a.providers.Analytics != nil, func(ctx context.Context) (models.AnalyticsData, error) {
			return a.providers.Analytics.CalculatePersonalizationMetrics(ctx, userID, window)
		})
		if err != nil {
			a.degraded(SourceAnalytics, userID, err)
			rctx.Analytics = DefaultAnalytics()
			return nil
		}
		analytics.Defaulted = false
		rctx.Analytics = analytics
		return nil
	})

	// Every goroutine returns nil; Wait is the join.
	_ = g.Wait()

	rctx.Preferences = a.derivePreferences(rctx)
	rctx.BuiltAt = a.now()
	return rctx
}

func (a *Aggregator) analyticsRange(date string) models.DateRange {
	start, err := utils.AddDays(date, -a.analyticsWindow)
	if err != nil {
		start = date
	}
	end, err := utils.AddDays(date, -1)
	if err != nil {
		end = date
	}
	return models.DateRange{Start: start, End: end}
}

func (a *Aggregator) degraded(source, userID string, err error) {
	if errors.Is(err, errNoProvider) || errors.Is(err, storage.ErrNotFound) {
		a.log.Debug("context source empty, using default", "source", source, "user", userID, "reason", err)
		return
	}
	a.log.Warn("context source degraded, using default", "source", source, "user", userID, "error", err)
}

// fetch runs fn under its own timeout and stops waiting when the timeout
// fires, even if fn ignores its context.
func fetch[T any](parent context.Context, timeout time.Duration, available bool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !available {
		return zero, errNoProvider
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (a *Aggregator) derivePreferences(rctx models.RoutineContext) models.Preferences {
	prefs := models.Preferences{
		MorningPerson:    a.pref.IsMorningPersonForProfile(rctx.Profile.Profile, rctx.EnergyPatterns()),
		PreferredSession: rctx.DeepWork.AvgSessionMinutes,
		LowEnergy:        !rctx.Review.Defaulted && rctx.Review.EnergyLevel <= constants.LowEnergyReviewThreshold,
		PriorityTasks:    rctx.Review.TomorrowTasks,
	}
	if prefs.PreferredSession <= 0 {
		prefs.PreferredSession = constants.DefaultSessionMin
	}

	for _, h := range rctx.Habits.Habits {
		if h.Active && h.ScheduledTime != "" {
			prefs.ActiveHabitTimes = append(prefs.ActiveHabitTimes, h.ScheduledTime)
		}
	}
	sort.Strings(prefs.ActiveHabitTimes)

	for _, src := range []struct {
		name      string
		defaulted bool
	}{
		{SourceProfile, rctx.Profile.Defaulted},
		{SourceHabits, rctx.Habits.Defaulted},
		{SourceDeepWork, rctx.DeepWork.Defaulted},
		{SourceReview, rctx.Review.Defaulted},
		{SourceAnalytics, rctx.Analytics.Defaulted},
	} {
		if src.defaulted {
			prefs.DefaultedSources = append(prefs.DefaultedSources, src.name)
		}
	}
	return prefs
}

// ClearUserCache drops every cached context for the user.
func (a *Aggregator) ClearUserCache(ctx context.Context, userID string) (int, error) {
	if a.cache == nil {
		return 0, nil
	}
	return a.cache.DeletePrefix(ctx, cache.UserPrefix(userID))
}

func (a *Aggregator) ClearAllCache(ctx context.Context) (int, error) {
	if a.cache == nil {
		return 0, nil
	}
	return a.cache.DeletePrefix(ctx, cache.AllPrefix())
}

func (a *Aggregator) CacheStats(ctx context.Context) (cache.Stats, error) {
	if a.cache == nil {
		return cache.Stats{Backend: "none", Entries: []cache.Entry{}}, nil
	}
	return a.cache.Stats(ctx)
}

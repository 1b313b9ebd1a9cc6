// Package routine is the composition root of the schedule engine: it pulls
// the day's context, dispatches to automatic or manual synthesis, applies
// complexity guidance, and persists the result.
package routine

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/aggregator"
	"github.com/julianstephens/routinely/internal/constants"
	apperr "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/optimizer"
	"github.com/julianstephens/routinely/internal/scheduler"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
	"github.com/julianstephens/routinely/internal/validation"
)

// updateRetries bounds how often a segment update re-reads a routine that
// changed underneath it.
const updateRetries = 3

// Store is the persistence the service needs.
type Store interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	SaveProfile(ctx context.Context, profile models.Profile) error
	GetRoutineByDate(ctx context.Context, userID, date string) (models.DailyRoutine, error)
	GetRoutineByID(ctx context.Context, id string) (models.DailyRoutine, error)
	SaveRoutine(ctx context.Context, routine models.DailyRoutine) (models.DailyRoutine, bool, error)
	UpdateRoutineSegments(ctx context.Context, id string, segments []models.RoutineSegment, adaptations []string, expectedVersion int) (models.DailyRoutine, error)
}

// ContextBuilder assembles and invalidates per-day routine contexts.
type ContextBuilder interface {
	BuildRoutineContext(ctx context.Context, userID, date string) (models.RoutineContext, error)
	ClearUserCache(ctx context.Context, userID string) (int, error)
}

type Service struct {
	store       Store
	contexts    ContextBuilder
	scheduler   *scheduler.Scheduler
	analyzer    *optimizer.PerformanceAnalyzer
	suggester   scheduler.Suggester
	validator   *validation.Validator
	historyDays int
	timezone    string
	now         func() time.Time
	log         *log.Logger
}

type Option func(*Service)

func WithScheduler(s *scheduler.Scheduler) Option {
	return func(svc *Service) { svc.scheduler = s }
}

// WithSuggester enables best-effort suggestions for manual slots.
func WithSuggester(s scheduler.Suggester) Option {
	return func(svc *Service) { svc.suggester = s }
}

// WithEventSource sets where performance history comes from. Without one the
// service generates as if the user had no history.
func WithEventSource(src optimizer.EventSource) Option {
	return func(svc *Service) { svc.analyzer = optimizer.NewPerformanceAnalyzer(src) }
}

func WithHistoryDays(days int) Option {
	return func(svc *Service) {
		if days > 0 {
			svc.historyDays = days
		}
	}
}

func WithTimezone(tz string) Option {
	return func(svc *Service) { svc.timezone = tz }
}

func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

func NewService(store Store, contexts ContextBuilder, opts ...Option) *Service {
	svc := &Service{
		store:       store,
		contexts:    contexts,
		validator:   validation.New(),
		historyDays: constants.DefaultHistoryDays,
		timezone:    constants.DefaultTimezone,
		now:         time.Now,
		log:         logger.Component("routine"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.scheduler == nil {
		svc.scheduler = scheduler.New()
	}
	if svc.analyzer == nil {
		svc.analyzer = optimizer.NewPerformanceAnalyzer(nil)
	}
	return svc
}

type GenerateRequest struct {
	UserID      string
	Date        string // YYYY-MM-DD or "today"
	Mode        models.Mode
	ManualSlots []models.ManualSlot
	// EnergyLevelOverride replaces the day's energy pattern with a flat level.
	EnergyLevelOverride models.EnergyLevel
	// AvailableHoursOverride replaces the profile's available hours when positive.
	AvailableHoursOverride int
}

type GenerateResult struct {
	Routine                    models.DailyRoutine    `json:"routine"`
	ComplexityLevel            models.ComplexityLevel `json:"complexity_level,omitempty"`
	AdaptationsApplied         []string               `json:"adaptations_applied"`
	EstimatedCompletionMinutes int                    `json:"estimated_completion_minutes"`
	Created                    bool                   `json:"created"`
}

// Generate builds and stores the routine for (UserID, Date). A routine that
// already exists for that day is returned unchanged with Created=false.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	date, err := s.checkRequest(req)
	if err != nil {
		return GenerateResult{}, err
	}
	if req.Mode == "" {
		req.Mode = models.ModeAutomatic
	}

	existing, err := s.store.GetRoutineByDate(ctx, req.UserID, date)
	switch {
	case err == nil:
		s.log.Debug("routine exists, returning it", "user", req.UserID, "date", date)
		return resultFor(existing, "", false), nil
	case !stderrors.Is(err, storage.ErrNotFound):
		return GenerateResult{}, apperr.NewPersistence("load routine", err)
	}

	rctx, err := s.contexts.BuildRoutineContext(ctx, req.UserID, date)
	if err != nil {
		return GenerateResult{}, apperr.NewValidation("generate routine", fmt.Sprintf("date: %v", err))
	}
	if len(rctx.Preferences.DefaultedSources) > 0 {
		s.log.Info("generating with default context", "user", req.UserID, "sources", strings.Join(rctx.Preferences.DefaultedSources, ","))
	}

	profile := rctx.Profile.Profile
	var notes []string
	if req.AvailableHoursOverride > 0 {
		profile.AvailableHours = req.AvailableHoursOverride
		notes = append(notes, fmt.Sprintf("Available hours overridden to %d", req.AvailableHoursOverride))
	}
	if err := scheduler.ValidateProfile(profile); err != nil {
		return GenerateResult{}, err
	}

	perf := s.performance(ctx, req.UserID)
	guidance := optimizer.CalculateAdaptiveComplexity(perf, optimizer.DefaultComplexity())
	if guidance.Level != models.ComplexityModerate {
		notes = append(notes, fmt.Sprintf("Complexity adjusted to %s from recent performance", guidance.Level))
	}

	if req.EnergyLevelOverride != "" {
		rctx.DeepWork.Patterns = []models.EnergyPattern{{
			StartTime:    profile.WakeUpTime,
			EndTime:      profile.SleepTime,
			Level:        req.EnergyLevelOverride,
			Productivity: productivityFor(req.EnergyLevelOverride),
		}}
		notes = append(notes, fmt.Sprintf("Energy overridden to %s for the day", req.EnergyLevelOverride))
		if req.EnergyLevelOverride == models.EnergyLow && guidance.Level != models.ComplexitySimple {
			guidance = optimizer.Simplify(guidance)
			notes = append(notes, "Low energy: simplified schedule")
		}
	} else if rctx.Preferences.LowEnergy && guidance.Level == models.ComplexityComplex {
		guidance = optimizer.DefaultComplexity()
		notes = append(notes, "Low energy reported last evening: complexity held at moderate")
	}

	var plan scheduler.Plan
	switch req.Mode {
	case models.ModeManual:
		rctx.Profile.Profile = profile
		plan, err = s.scheduler.FillSlotsWithActivities(ctx, req.ManualSlots, rctx, s.suggester)
	default:
		if tasks := nonBlank(rctx.Preferences.PriorityTasks); len(tasks) > 0 {
			profile.AcademicGoals = append(tasks, profile.AcademicGoals...)
			notes = append(notes, fmt.Sprintf("Included %d tasks from the last evening review", len(tasks)))
		}
		profile.EnergyPattern = rctx.EnergyPatterns()
		plan, err = s.scheduler.GenerateAutomatic(profile, perf, guidance)
	}
	if err != nil {
		return GenerateResult{}, err
	}

	routine := models.DailyRoutine{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Date:        date,
		Segments:    plan.Segments,
		Adaptations: append(notes, plan.Adaptations...),
	}
	if result := s.validator.ValidateRoutine(routine, profile.WakeUpTime, profile.SleepTime); !result.Valid {
		return GenerateResult{}, apperr.NewValidation("generate routine", result.ErrorMessages()...)
	}

	saved, created, err := s.store.SaveRoutine(ctx, routine)
	if err != nil {
		return GenerateResult{}, apperr.NewPersistence("save routine", err)
	}
	if created {
		s.log.Info("routine generated", "user", req.UserID, "date", date, "mode", req.Mode,
			"segments", len(saved.Segments), "complexity", guidance.Level)
		return resultFor(saved, guidance.Level, true), nil
	}
	return resultFor(saved, "", false), nil
}

func (s *Service) checkRequest(req GenerateRequest) (string, error) {
	var fields []string
	if strings.TrimSpace(req.UserID) == "" {
		fields = append(fields, "user_id: required")
	}
	date, err := utils.NormalizeDate(req.Date, s.timezone)
	if err != nil {
		fields = append(fields, fmt.Sprintf("date: %v", err))
	}
	switch req.Mode {
	case "", models.ModeAutomatic:
		if len(req.ManualSlots) > 0 {
			fields = append(fields, "manual_slots: only allowed in manual mode")
		}
	case models.ModeManual:
	default:
		fields = append(fields, fmt.Sprintf("mode: unknown mode %q", req.Mode))
	}
	if req.EnergyLevelOverride != "" && !req.EnergyLevelOverride.Valid() {
		fields = append(fields, fmt.Sprintf("energy_level: unknown level %q", req.EnergyLevelOverride))
	}
	if req.AvailableHoursOverride < 0 || req.AvailableHoursOverride > 24 {
		fields = append(fields, "available_hours: must be between 1 and 24")
	}
	if len(fields) > 0 {
		return "", apperr.NewValidation("generate routine", fields...)
	}
	return date, nil
}

func resultFor(r models.DailyRoutine, level models.ComplexityLevel, created bool) GenerateResult {
	adaptations := r.Adaptations
	if adaptations == nil {
		adaptations = []string{}
	}
	return GenerateResult{
		Routine:                    r,
		ComplexityLevel:            level,
		AdaptationsApplied:         adaptations,
		EstimatedCompletionMinutes: r.WorkMinutes(),
		Created:                    created,
	}
}

func productivityFor(level models.EnergyLevel) float64 {
	switch level {
	case models.EnergyHigh:
		return 0.9
	case models.EnergyMedium:
		return 0.6
	default:
		return 0.3
	}
}

// GetByDate returns the user's routine for date.
func (s *Service) GetByDate(ctx context.Context, userID, date string) (models.DailyRoutine, error) {
	day, err := utils.NormalizeDate(date, s.timezone)
	if err != nil {
		return models.DailyRoutine{}, apperr.NewValidation("get routine", fmt.Sprintf("date: %v", err))
	}
	r, err := s.store.GetRoutineByDate(ctx, userID, day)
	if stderrors.Is(err, storage.ErrNotFound) {
		return models.DailyRoutine{}, apperr.NewNotFound("routine", day)
	}
	if err != nil {
		return models.DailyRoutine{}, apperr.NewPersistence("get routine", err)
	}
	return r, nil
}

// owned loads a routine and hides other users' routines behind NotFound.
func (s *Service) owned(ctx context.Context, userID, routineID string) (models.DailyRoutine, error) {
	r, err := s.store.GetRoutineByID(ctx, routineID)
	if stderrors.Is(err, storage.ErrNotFound) || (err == nil && r.UserID != userID) {
		return models.DailyRoutine{}, apperr.NewNotFound("routine", routineID)
	}
	if err != nil {
		return models.DailyRoutine{}, apperr.NewPersistence("get routine", err)
	}
	return r, nil
}

// SegmentUpdate carries the completion fields to change; nil fields are left alone.
type SegmentUpdate struct {
	Completed         *bool
	ActualDurationMin *int
	FocusQuality      *float64
}

func (u SegmentUpdate) validate() error {
	var fields []string
	if u.Completed == nil && u.ActualDurationMin == nil && u.FocusQuality == nil {
		fields = append(fields, "update: nothing to change")
	}
	if u.ActualDurationMin != nil && (*u.ActualDurationMin < 0 || *u.ActualDurationMin > constants.MinutesPerDay) {
		fields = append(fields, "actual_duration: must be between 0 and 1440 minutes")
	}
	if u.FocusQuality != nil && (*u.FocusQuality < 0 || *u.FocusQuality > 1) {
		fields = append(fields, "focus_quality: must be between 0 and 1")
	}
	if len(fields) > 0 {
		return apperr.NewValidation("update segment", fields...)
	}
	return nil
}

// UpdateSegment records completion data for one segment. A concurrent write
// to the same routine is retried against the fresh version.
func (s *Service) UpdateSegment(ctx context.Context, userID, routineID, segmentID string, upd SegmentUpdate) (models.DailyRoutine, error) {
	if err := upd.validate(); err != nil {
		return models.DailyRoutine{}, err
	}

	for attempt := 1; ; attempt++ {
		r, err := s.owned(ctx, userID, routineID)
		if err != nil {
			return models.DailyRoutine{}, err
		}

		idx := -1
		for i, seg := range r.Segments {
			if seg.ID == segmentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return models.DailyRoutine{}, apperr.NewNotFound("segment", segmentID)
		}

		segments := make([]models.RoutineSegment, len(r.Segments))
		copy(segments, r.Segments)
		seg := &segments[idx]
		if upd.Completed != nil {
			seg.Completed = *upd.Completed
		}
		if upd.ActualDurationMin != nil {
			v := *upd.ActualDurationMin
			seg.ActualDurationMin = &v
		}
		if upd.FocusQuality != nil {
			v := *upd.FocusQuality
			seg.FocusQuality = &v
		}

		updated, err := s.store.UpdateRoutineSegments(ctx, r.ID, segments, r.Adaptations, r.Version)
		switch {
		case err == nil:
			return updated, nil
		case stderrors.Is(err, storage.ErrVersionConflict) && attempt < updateRetries:
			s.log.Debug("segment update raced, retrying", "routine", routineID, "attempt", attempt)
			continue
		case stderrors.Is(err, storage.ErrNotFound):
			return models.DailyRoutine{}, apperr.NewNotFound("routine", routineID)
		default:
			return models.DailyRoutine{}, apperr.NewPersistence("update segment", err)
		}
	}
}

// CompareVariations compares candidate routines against the user's recent
// completion rate.
func (s *Service) CompareVariations(ctx context.Context, userID string, variations []models.DailyRoutine) (optimizer.Comparison, error) {
	if len(variations) < 2 {
		return optimizer.CompareRoutineVariations(variations, nil)
	}
	return optimizer.CompareRoutineVariations(variations, s.performance(ctx, userID))
}

// Performance summarises the user's recent history; nil means no history.
func (s *Service) Performance(ctx context.Context, userID string) (*models.PerformanceData, error) {
	return s.analyzer.Analyze(ctx, userID, s.historyDays)
}

func (s *Service) performance(ctx context.Context, userID string) *models.PerformanceData {
	perf, err := s.Performance(ctx, userID)
	if err != nil {
		s.log.Warn("performance history unavailable", "user", userID, "error", err)
		return nil
	}
	return perf
}

// SaveProfile validates and stores the profile, then drops the user's cached
// contexts so the next generation sees the change.
func (s *Service) SaveProfile(ctx context.Context, profile models.Profile) error {
	var fields []string
	if strings.TrimSpace(profile.UserID) == "" {
		fields = append(fields, "user_id: required")
	}
	if err := scheduler.ValidateProfile(profile); err != nil {
		var verr *apperr.ValidationError
		if stderrors.As(err, &verr) {
			fields = append(fields, verr.Fields...)
		}
	}
	for i, p := range profile.EnergyPattern {
		if !p.Level.Valid() {
			fields = append(fields, fmt.Sprintf("energy_pattern[%d]: unknown level %q", i, p.Level))
		}
		if p.Productivity < 0 || p.Productivity > 1 {
			fields = append(fields, fmt.Sprintf("energy_pattern[%d]: productivity must be between 0 and 1", i))
		}
	}
	if len(fields) > 0 {
		return apperr.NewValidation("save profile", fields...)
	}

	profile.UpdatedAt = s.now()
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return apperr.NewPersistence("save profile", err)
	}
	if _, err := s.contexts.ClearUserCache(ctx, profile.UserID); err != nil {
		s.log.Warn("failed to invalidate context cache", "user", profile.UserID, "error", err)
	}
	return nil
}

// Profile returns the stored profile, or the default one when none exists.
func (s *Service) Profile(ctx context.Context, userID string) (models.Profile, bool, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return aggregator.DefaultProfile(userID).Profile, false, nil
	}
	if err != nil {
		return models.Profile{}, false, apperr.NewPersistence("get profile", err)
	}
	return p, true, nil
}

// ValidateStored re-checks a persisted routine against the user's profile.
func (s *Service) ValidateStored(ctx context.Context, userID, date string) (validation.ValidationResult, error) {
	r, err := s.GetByDate(ctx, userID, date)
	if err != nil {
		return validation.ValidationResult{}, err
	}
	profile, _, err := s.Profile(ctx, userID)
	if err != nil {
		return validation.ValidationResult{}, err
	}
	return s.validator.ValidateRoutine(r, profile.WakeUpTime, profile.SleepTime), nil
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

package scheduler

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/energy"
	apperr "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

type Scheduler struct {
	mu   sync.Mutex
	rng  *rand.Rand
	pref energy.Preference
}

type Option func(*Scheduler)

// WithRand injects the randomness source used for goal shuffling and jitter.
func WithRand(r *rand.Rand) Option {
	return func(s *Scheduler) { s.rng = r }
}

func WithPreference(p energy.Preference) Option {
	return func(s *Scheduler) { s.pref = p }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{pref: energy.DefaultPreference()}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = utils.NewRand(0)
	}
	return s
}

func (s *Scheduler) jitter(spread int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(2*spread+1) - spread
}

func (s *Scheduler) shuffle(values []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return utils.Shuffled(s.rng, values)
}

// Plan is the outcome of automatic synthesis before persistence.
type Plan struct {
	Segments    []models.RoutineSegment
	Adaptations []string
}

// GenerateAutomatic synthesizes a full day for profile under the given
// complexity guidance. perf may be nil when there is no history.
func (s *Scheduler) GenerateAutomatic(profile models.Profile, perf *models.PerformanceData, guidance models.Complexity) (Plan, error) {
	if err := ValidateProfile(profile); err != nil {
		return Plan{}, err
	}

	var plan Plan
	count := CalculateOptimalSegmentCount(profile.AvailableHours, perf)
	switch guidance.Level {
	case models.ComplexitySimple:
		if guidance.TaskCount > 0 && count > guidance.TaskCount {
			count = guidance.TaskCount
			plan.Adaptations = append(plan.Adaptations,
				fmt.Sprintf("Complexity %s: limited to %d segments", guidance.Level, count))
		}
	case models.ComplexityComplex:
		if floor := min(guidance.TaskCount, constants.MaxSegmentCount); count < floor {
			count = floor
			plan.Adaptations = append(plan.Adaptations,
				fmt.Sprintf("Complexity %s: raised to %d segments", guidance.Level, count))
		}
	}

	slots, err := s.GenerateFlexibleTimeSlots(profile, count)
	if err != nil {
		return Plan{}, err
	}

	pool := s.CreateBalancedActivityPool(profile, len(slots))
	switch guidance.Level {
	case models.ComplexitySimple:
		if downgraded := capDeepWork(pool, guidance.DeepWorkBlocks); downgraded > 0 {
			plan.Adaptations = append(plan.Adaptations,
				fmt.Sprintf("Complexity %s: %d deep work blocks moved to study", guidance.Level, downgraded))
		}
	case models.ComplexityComplex:
		if promoted := ensureDeepWork(pool, guidance.DeepWorkBlocks); promoted > 0 {
			plan.Adaptations = append(plan.Adaptations,
				fmt.Sprintf("Complexity %s: %d study blocks promoted to deep work", guidance.Level, promoted))
		}
	}

	segments := s.MatchActivitiesToTimeSlots(slots, pool, profile, perf)
	if shift, err := EnforceWakeBound(segments, profile.WakeUpTime); err != nil {
		return Plan{}, err
	} else if shift > 0 {
		plan.Adaptations = append(plan.Adaptations, fmt.Sprintf("Shifted schedule %d minutes to start at wake time", shift))
	}

	threshold := guidance.BreakFrequencyMin
	if threshold <= 0 {
		threshold = constants.LongSegmentMin
	}
	plan.Segments = InsertIntelligentBreaks(segments, threshold)
	return plan, nil
}

// ValidateProfile lists every missing or malformed field that blocks generation.
func ValidateProfile(profile models.Profile) error {
	fields := profile.MissingFields()
	if profile.WakeUpTime != "" && !utils.ValidateTimeFormat(profile.WakeUpTime) {
		fields = append(fields, "wake_up_time: expected HH:MM")
	}
	if profile.SleepTime != "" && !utils.ValidateTimeFormat(profile.SleepTime) {
		fields = append(fields, "sleep_time: expected HH:MM")
	}
	if profile.AvailableHours > 24 {
		fields = append(fields, "available_hours: must be at most 24")
	}
	if len(fields) > 0 {
		return apperr.NewValidation("generate routine", fields...)
	}
	return nil
}

// CalculateOptimalSegmentCount derives the number of work segments from the
// available hours, nudged by recent completion rate.
func CalculateOptimalSegmentCount(availableHours int, perf *models.PerformanceData) int {
	count := int(math.Floor(float64(availableHours) / constants.HoursPerSegment))
	count = min(max(count, constants.MinSegmentCount), constants.MaxSegmentCount)
	if perf == nil {
		return count
	}
	switch {
	case perf.CompletionRate < constants.LowCompletionRate:
		count = max(count-2, constants.MinSegmentCount)
	case perf.CompletionRate > constants.HighCompletionRate:
		count = min(count+1, constants.MaxSegmentCount)
	}
	return count
}

// GenerateFlexibleTimeSlots walks forward from wake time emitting up to count
// slots separated by buffers. The first slot always starts at wake time and
// no slot runs past sleep time.
func (s *Scheduler) GenerateFlexibleTimeSlots(profile models.Profile, count int) ([]models.TimeSlot, error) {
	wake, sleep, err := utils.WindowMinutes(profile.WakeUpTime, profile.SleepTime)
	if err != nil {
		return nil, apperr.NewValidation("generate time slots", err.Error())
	}
	if sleep == wake {
		sleep += constants.MinutesPerDay
	}
	if count <= 0 {
		return nil, apperr.NewValidation("generate time slots", "segment count must be positive")
	}

	available := min(profile.AvailableHours*60, sleep-wake)
	budget := available - (count-1)*constants.SegmentBufferMin
	avg := max(budget/count, constants.MinSegmentDurationMin)

	slots := make([]models.TimeSlot, 0, count)
	cursor := wake
	for i := 0; i < count && budget > 0; i++ {
		cursor = max(cursor, wake)
		if cursor >= sleep {
			break
		}
		duration := max(avg+s.jitter(constants.SegmentJitterMin), constants.MinSegmentDurationMin)
		duration = min(duration, budget, sleep-cursor)
		if duration < constants.MinSegmentDurationMin && len(slots) > 0 {
			break
		}
		slots = append(slots, models.TimeSlot{
			Start: utils.FormatMinutes(cursor),
			End:   utils.FormatMinutes(cursor + duration),
		})
		budget -= duration
		cursor += duration + constants.SegmentBufferMin
	}
	return slots, nil
}

// goalCycler hands out goals round-robin from a list shuffled once.
type goalCycler struct {
	goals []string
	next  int
}

func (c *goalCycler) take(fallback string) string {
	if len(c.goals) == 0 {
		return fallback
	}
	g := c.goals[c.next%len(c.goals)]
	c.next++
	return g
}

// CreateBalancedActivityPool allocates count activities across deep work,
// skill practice and study, cycling through the profile's goals.
func (s *Scheduler) CreateBalancedActivityPool(profile models.Profile, count int) []models.Activity {
	if count <= 0 {
		return nil
	}
	academic := &goalCycler{goals: s.shuffle(nonBlank(profile.AcademicGoals))}
	skill := &goalCycler{goals: s.shuffle(nonBlank(profile.SkillGoals))}

	share := func(f float64) int { return int(math.Ceil(f * float64(count))) }
	deep := share(constants.DeepWorkShare)
	practice := share(constants.SkillPracticeShare)
	study := share(constants.StudyShare)

	pool := make([]models.Activity, 0, count)
	add := func(t models.ActivityType, goal string, p models.Priority, minutes int) {
		if len(pool) < count {
			pool = append(pool, models.Activity{
				ID:               uuid.New().String(),
				Type:             t,
				Goal:             goal,
				Priority:         p,
				EstimatedMinutes: minutes,
			})
		}
	}

	for i := 0; i < deep; i++ {
		p := models.PriorityHigh
		if i == 0 {
			p = models.PriorityCritical
		}
		add(models.ActivityDeepWork, academic.take(constants.DefaultAcademicGoal), p, 90)
	}
	for i := 0; i < practice; i++ {
		add(models.ActivitySkillPractice, skill.take(constants.DefaultSkillGoal), models.PriorityMedium, 60)
	}
	for i := 0; i < study; i++ {
		add(models.ActivityStudy, academic.take(constants.DefaultAcademicGoal), models.PriorityMedium, 60)
	}
	for i := 0; len(pool) < count; i++ {
		if i%2 == 0 {
			add(models.ActivityStudy, academic.take(constants.DefaultAcademicGoal), models.PriorityLow, 45)
		} else {
			add(models.ActivitySkillPractice, skill.take(constants.DefaultSkillGoal), models.PriorityLow, 45)
		}
	}
	return pool
}

// capDeepWork turns deep work beyond limit into study and reports how many
// activities changed. A non-positive limit leaves the pool alone.
func capDeepWork(pool []models.Activity, limit int) int {
	if limit <= 0 {
		return 0
	}
	seen, changed := 0, 0
	for i := range pool {
		if pool[i].Type != models.ActivityDeepWork {
			continue
		}
		seen++
		if seen > limit {
			pool[i].Type = models.ActivityStudy
			if pool[i].Priority.Rank() > models.PriorityMedium.Rank() {
				pool[i].Priority = models.PriorityMedium
			}
			changed++
		}
	}
	return changed
}

// ensureDeepWork promotes study activities to deep work until the pool holds
// at least floor deep work blocks, and reports how many changed.
func ensureDeepWork(pool []models.Activity, floor int) int {
	have := 0
	for _, a := range pool {
		if a.Type == models.ActivityDeepWork {
			have++
		}
	}
	changed := 0
	for i := range pool {
		if have >= floor {
			break
		}
		if pool[i].Type != models.ActivityStudy {
			continue
		}
		pool[i].Type = models.ActivityDeepWork
		if pool[i].Priority.Rank() < models.PriorityHigh.Rank() {
			pool[i].Priority = models.PriorityHigh
		}
		have++
		changed++
	}
	return changed
}

// MatchActivitiesToTimeSlots places the highest-priority activities in the
// slots the user's chronotype favours: early for morning people, late for
// evening people. Segments come back in slot order.
func (s *Scheduler) MatchActivitiesToTimeSlots(slots []models.TimeSlot, pool []models.Activity, profile models.Profile, perf *models.PerformanceData) []models.RoutineSegment {
	acts := make([]models.Activity, len(pool))
	copy(acts, pool)
	preferred := map[models.ActivityType]bool{}
	if perf != nil {
		for _, t := range perf.PreferredActivityTypes {
			preferred[t] = true
		}
	}
	sort.SliceStable(acts, func(i, j int) bool {
		ri, rj := acts[i].Priority.Rank(), acts[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return preferred[acts[i].Type] && !preferred[acts[j].Type]
	})

	order := make([]int, len(slots))
	for i := range order {
		order[i] = i
	}
	if !s.pref.IsMorningPersonForProfile(profile, profile.EnergyPattern) {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	segments := make([]models.RoutineSegment, len(slots))
	filled := make([]bool, len(slots))
	for rank, idx := range order {
		if rank >= len(acts) {
			break
		}
		slot := slots[idx]
		slot.Energy = s.pref.Classify(slot, profile.EnergyPattern)
		segments[idx] = newSegment(slot, acts[rank])
		filled[idx] = true
	}

	out := make([]models.RoutineSegment, 0, len(slots))
	for i, seg := range segments {
		if filled[i] {
			out = append(out, seg)
		}
	}
	return out
}

func newSegment(slot models.TimeSlot, a models.Activity) models.RoutineSegment {
	return models.RoutineSegment{
		ID:          uuid.New().String(),
		Slot:        slot,
		Type:        a.Type,
		Description: Describe(a),
		DurationMin: slotMinutes(slot),
		Priority:    a.Priority,
	}
}

// Describe renders an activity as segment text.
func Describe(a models.Activity) string {
	label := map[models.ActivityType]string{
		models.ActivityDeepWork:      "Deep work",
		models.ActivitySkillPractice: "Skill practice",
		models.ActivityStudy:         "Study",
		models.ActivityBreak:         "Break",
		models.ActivityPersonal:      "Personal",
	}[a.Type]
	if label == "" {
		label = string(a.Type)
	}
	if a.Goal == "" {
		return label
	}
	return fmt.Sprintf("%s: %s", label, a.Goal)
}

// InsertIntelligentBreaks adds a break after every non-final segment of at
// least thresholdMin minutes. A break fills the gap to the next segment up to
// its length and never overlaps it.
func InsertIntelligentBreaks(segments []models.RoutineSegment, thresholdMin int) []models.RoutineSegment {
	if thresholdMin <= 0 {
		thresholdMin = constants.LongSegmentMin
	}
	out := make([]models.RoutineSegment, 0, len(segments)*2)
	for i, seg := range segments {
		out = append(out, seg)
		if i == len(segments)-1 || seg.Type == models.ActivityBreak || seg.DurationMin < thresholdMin {
			continue
		}
		end, err := utils.ParseTimeToMinutes(seg.Slot.End)
		if err != nil {
			continue
		}
		gap, err := utils.OffsetFrom(end, segments[i+1].Slot.Start)
		if err != nil || gap <= 0 || gap >= constants.MinutesPerDay/2 {
			continue
		}
		length := constants.ShortBreakMin
		if seg.DurationMin >= constants.VeryLongSegmentMin {
			length = constants.LongBreakMin
		}
		length = min(length, gap)
		out = append(out, models.RoutineSegment{
			ID:          uuid.New().String(),
			Slot:        models.TimeSlot{Start: seg.Slot.End, End: utils.FormatMinutes(end + length)},
			Type:        models.ActivityBreak,
			Description: "Break",
			DurationMin: length,
			Priority:    models.PriorityLow,
		})
	}
	return out
}

// EnforceWakeBound shifts every segment forward by the same amount when the
// first one starts before wake time. It returns the shift in minutes.
func EnforceWakeBound(segments []models.RoutineSegment, wakeTime string) (int, error) {
	if len(segments) == 0 {
		return 0, nil
	}
	wake, err := utils.ParseTimeToMinutes(wakeTime)
	if err != nil {
		return 0, apperr.NewValidation("enforce wake bound", fmt.Sprintf("wake_up_time: %v", err))
	}
	first, err := utils.ParseTimeToMinutes(segments[0].Slot.Start)
	if err != nil {
		return 0, apperr.NewValidation("enforce wake bound", fmt.Sprintf("segment 1: %v", err))
	}
	drift := wake - first
	if drift <= 0 {
		return 0, nil
	}
	for i := range segments {
		start, end, err := utils.WindowMinutes(segments[i].Slot.Start, segments[i].Slot.End)
		if err != nil {
			return 0, apperr.NewValidation("enforce wake bound", fmt.Sprintf("segment %d: %v", i+1, err))
		}
		segments[i].Slot.Start = utils.FormatMinutes(start + drift)
		segments[i].Slot.End = utils.FormatMinutes(end + drift)
	}
	return drift, nil
}

func slotMinutes(slot models.TimeSlot) int {
	start, end, err := utils.WindowMinutes(slot.Start, slot.End)
	if err != nil {
		return 0
	}
	return end - start
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

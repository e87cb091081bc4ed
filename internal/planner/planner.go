// Package planner turns a structured course into a dated study schedule.
package planner

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// Strategy names how sessions are carved out of the structure.
type Strategy string

const (
	StrategyModuleBased Strategy = "module_based"
	StrategyTimeBased   Strategy = "time_based"
	StrategyHybrid      Strategy = "hybrid"
)

// minutesPerVideo is the planning heuristic for how much session time an
// average course video consumes.
const minutesPerVideo = 12

// ValidateSettings checks the schedulable ranges of the plan settings.
func ValidateSettings(settings course.PlanSettings) error {
	if settings.StartDate.IsZero() {
		return services.Wrap(services.ErrInvalidSettings, "planner", "validate",
			"start date is required", nil)
	}
	if settings.SessionsPerWeek < 1 || settings.SessionsPerWeek > 7 {
		return services.Wrap(services.ErrInvalidSettings, "planner", "validate",
			fmt.Sprintf("sessions per week %d outside 1..7", settings.SessionsPerWeek), nil)
	}
	if settings.SessionLengthMinutes < 5 || settings.SessionLengthMinutes > 240 {
		return services.Wrap(services.ErrInvalidSettings, "planner", "validate",
			fmt.Sprintf("session length %d outside 5..240 minutes", settings.SessionLengthMinutes), nil)
	}
	return nil
}

// Scheduler generates plans.
type Scheduler struct {
	logger *slog.Logger
}

// NewScheduler builds a scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logging.NewComponentLogger(logger, "planner")}
}

// sessionVideo pairs a video with the module it came from, in structure order.
type sessionVideo struct {
	moduleTitle  string
	sectionTitle string
	videoIndex   int
	duration     time.Duration
}

// GeneratePlan schedules every video of a structured course.
func (s *Scheduler) GeneratePlan(c *course.Course, settings course.PlanSettings) (*course.Plan, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	if !c.IsStructured() {
		return nil, services.Wrap(services.ErrCourseNotStructured, "planner", "generate",
			"course has no structure to schedule", nil)
	}

	videosPerSession := settings.SessionLengthMinutes / minutesPerVideo
	if videosPerSession < 1 {
		videosPerSession = 1
	}

	strategy := chooseStrategy(c.Structure, videosPerSession)
	var items []course.PlanItem
	switch strategy {
	case StrategyModuleBased:
		items = moduleBasedSessions(c.Structure, videosPerSession)
	case StrategyTimeBased:
		items = timeBasedSessions(c.Structure, settings.SessionLengthMinutes)
	default:
		items = hybridSessions(c.Structure, settings.SessionLengthMinutes, videosPerSession)
	}

	items = insertReviewSessions(items)
	items = balanceWorkload(items)
	assignDates(items, settings)
	items = bufferHeavySessions(items, settings)
	sortByDate(items)

	plan := course.NewPlan(c.ID, settings)
	plan.Items = items
	s.logger.Info("plan generated",
		logging.String("course_id", c.ID),
		logging.String("strategy", string(strategy)),
		logging.Int("sessions", len(items)))
	return &plan, nil
}

// OptimizePlan re-runs the optimization passes over an existing plan,
// rebuilding review sessions and dates from the plan's own settings.
// Session contents are kept; only pacing changes.
func (s *Scheduler) OptimizePlan(plan *course.Plan) error {
	if err := ValidateSettings(plan.Settings); err != nil {
		return err
	}
	items := make([]course.PlanItem, 0, len(plan.Items))
	for _, item := range plan.Items {
		if item.IsReview() {
			continue
		}
		items = append(items, item)
	}
	items = insertReviewSessions(items)
	items = balanceWorkload(items)
	assignDates(items, plan.Settings)
	items = bufferHeavySessions(items, plan.Settings)
	sortByDate(items)
	plan.Items = items
	s.logger.Info("plan optimized",
		logging.String("plan_id", plan.ID),
		logging.Int("sessions", len(items)))
	return nil
}

// chooseStrategy picks the packing approach from the structure's shape.
func chooseStrategy(structure *course.Structure, videosPerSession int) Strategy {
	total := 0
	for i := range structure.Modules {
		total += len(structure.Modules[i].Sections)
	}
	if len(structure.Modules) > 1 {
		avg := float64(total) / float64(len(structure.Modules))
		if avg <= float64(2*videosPerSession) {
			return StrategyModuleBased
		}
	}
	if total > 10*videosPerSession {
		return StrategyTimeBased
	}
	return StrategyHybrid
}

func flatten(structure *course.Structure) []sessionVideo {
	var out []sessionVideo
	for i := range structure.Modules {
		m := &structure.Modules[i]
		for _, sec := range m.Sections {
			out = append(out, sessionVideo{
				moduleTitle:  m.Title,
				sectionTitle: sec.Title,
				videoIndex:   sec.VideoIndex,
				duration:     sec.Duration,
			})
		}
	}
	return out
}

// moduleBasedSessions packs each module into runs of at most videosPerSession
// videos, never mixing modules in one session.
func moduleBasedSessions(structure *course.Structure, videosPerSession int) []course.PlanItem {
	var items []course.PlanItem
	for i := range structure.Modules {
		m := &structure.Modules[i]
		for start := 0; start < len(m.Sections); start += videosPerSession {
			end := start + videosPerSession
			if end > len(m.Sections) {
				end = len(m.Sections)
			}
			items = append(items, itemFromSections(m.Title, m.Sections[start:end]))
		}
	}
	return items
}

// timeBasedSessions fills sessions up to the time budget regardless of module
// boundaries, always placing at least one video per session.
func timeBasedSessions(structure *course.Structure, sessionMinutes int) []course.PlanItem {
	budget := time.Duration(sessionMinutes) * time.Minute
	videos := flatten(structure)

	var items []course.PlanItem
	var current []sessionVideo
	var used time.Duration
	flush := func() {
		if len(current) == 0 {
			return
		}
		items = append(items, itemFromVideos(current))
		current, used = nil, 0
	}
	for _, v := range videos {
		if len(current) > 0 && used+v.duration > budget {
			flush()
		}
		current = append(current, v)
		used += v.duration
	}
	flush()
	return items
}

// hybridSessions packs inside each module by both time and count, titling
// continuation sessions after their module.
func hybridSessions(structure *course.Structure, sessionMinutes, videosPerSession int) []course.PlanItem {
	budget := time.Duration(sessionMinutes) * time.Minute

	var items []course.PlanItem
	for i := range structure.Modules {
		m := &structure.Modules[i]
		var current []sessionVideo
		var used time.Duration
		part := 0
		flush := func() {
			if len(current) == 0 {
				return
			}
			part++
			item := itemFromVideos(current)
			if part > 1 {
				item.ModuleTitle = fmt.Sprintf("%s (cont.)", m.Title)
			}
			items = append(items, item)
			current, used = nil, 0
		}
		for _, sec := range m.Sections {
			v := sessionVideo{m.Title, sec.Title, sec.VideoIndex, sec.Duration}
			over := len(current) > 0 && (used+v.duration > budget || len(current) >= videosPerSession)
			if over {
				flush()
			}
			current = append(current, v)
			used += v.duration
		}
		flush()
	}
	return items
}

func itemFromSections(moduleTitle string, sections []course.Section) course.PlanItem {
	videos := make([]sessionVideo, 0, len(sections))
	for _, sec := range sections {
		videos = append(videos, sessionVideo{moduleTitle, sec.Title, sec.VideoIndex, sec.Duration})
	}
	return itemFromVideos(videos)
}

func itemFromVideos(videos []sessionVideo) course.PlanItem {
	item := course.PlanItem{
		ModuleTitle:      videos[0].moduleTitle,
		SectionTitle:     videos[0].sectionTitle,
		OverflowWarnings: []string{},
	}
	if len(videos) > 1 {
		item.SectionTitle = fmt.Sprintf("%s (+%d more)", videos[0].sectionTitle, len(videos)-1)
	}
	for _, v := range videos {
		item.VideoIndices = append(item.VideoIndices, v.videoIndex)
		item.TotalDuration += v.duration
	}
	// Completion estimate adds a note-taking allowance per video.
	item.EstimatedCompletionTime = item.TotalDuration + time.Duration(len(videos))*2*time.Minute
	return item
}

// reviewInterval is how many study sessions elapse between review sessions.
func reviewInterval(total int) int {
	interval := total / 4
	if interval < 5 {
		interval = 5
	}
	return interval
}

// insertReviewSessions interleaves empty review sessions into the schedule.
func insertReviewSessions(items []course.PlanItem) []course.PlanItem {
	interval := reviewInterval(len(items))
	if len(items) <= interval {
		return items
	}
	var out []course.PlanItem
	for i, item := range items {
		out = append(out, item)
		if (i+1)%interval == 0 && i != len(items)-1 {
			out = append(out, course.PlanItem{
				ModuleTitle:      "Review",
				SectionTitle:     "Review previous sessions",
				VideoIndices:     []int{},
				OverflowWarnings: []string{},
			})
		}
	}
	return out
}

// balanceWorkload evens out sessions that carry far more videos than the
// average by pushing a couple of videos into lighter following sessions.
func balanceWorkload(items []course.PlanItem) []course.PlanItem {
	counts := func() (float64, int) {
		total, sessions := 0, 0
		for i := range items {
			if len(items[i].VideoIndices) == 0 {
				continue
			}
			total += len(items[i].VideoIndices)
			sessions++
		}
		if sessions == 0 {
			return 0, 0
		}
		return float64(total) / float64(sessions), sessions
	}

	for pass := 0; pass < len(items); pass++ {
		avg, sessions := counts()
		if sessions == 0 {
			break
		}
		moved := false
		for i := range items {
			n := len(items[i].VideoIndices)
			if float64(n) <= 2*avg || n < 2 {
				continue
			}
			next := -1
			for j := i + 1; j < len(items); j++ {
				if len(items[j].VideoIndices) == 0 {
					continue
				}
				if float64(len(items[j].VideoIndices)) < avg/2 {
					next = j
					break
				}
			}
			if next < 0 {
				continue
			}
			move := (n - int(2*avg)) / 2
			if move < 1 {
				move = 1
			}
			if move > 2 {
				move = 2
			}
			cut := len(items[i].VideoIndices) - move
			moving := items[i].VideoIndices[cut:]
			items[i].VideoIndices = items[i].VideoIndices[:cut]
			items[next].VideoIndices = append(moving, items[next].VideoIndices...)
			moved = true
		}
		if !moved {
			break
		}
	}
	return items
}

// assignDates walks the calendar forward, spacing sessions evenly through the
// week and skipping weekends unless allowed.
func assignDates(items []course.PlanItem, settings course.PlanSettings) {
	step := (7 + settings.SessionsPerWeek - 1) / settings.SessionsPerWeek
	date := settings.StartDate
	if !settings.IncludeWeekends {
		date = skipWeekend(date)
	}
	for i := range items {
		items[i].Date = date
		date = date.AddDate(0, 0, step)
		if !settings.IncludeWeekends {
			date = skipWeekend(date)
		}
	}
}

func skipWeekend(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

// bufferHeavySessions pushes unusually dense sessions one day later so the
// student gets breathing room before them.
func bufferHeavySessions(items []course.PlanItem, settings course.PlanSettings) []course.PlanItem {
	for i := range items {
		if len(items[i].VideoIndices) > 5 {
			date := items[i].Date.AddDate(0, 0, 1)
			if !settings.IncludeWeekends {
				date = skipWeekend(date)
			}
			items[i].Date = date
		}
	}
	return items
}

// sortByDate restores chronological order after buffering, keeping insertion
// order for same-day sessions.
func sortByDate(items []course.PlanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.Before(items[j].Date)
	})
}

// FormatDuration renders a duration the way schedules display it.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

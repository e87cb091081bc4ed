package course

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a study schedule generated from a structured course.
type Plan struct {
	ID        string       `json:"id"`
	CourseID  string       `json:"course_id"`
	Settings  PlanSettings `json:"settings"`
	Items     []PlanItem   `json:"items"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewPlan creates an empty plan bound to a course.
func NewPlan(courseID string, settings PlanSettings) Plan {
	return Plan{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Settings:  settings,
		CreatedAt: time.Now().UTC(),
	}
}

// PlanSettings controls how sessions are scheduled.
type PlanSettings struct {
	StartDate            time.Time         `json:"start_date"`
	SessionsPerWeek      int               `json:"sessions_per_week"`
	SessionLengthMinutes int               `json:"session_length_minutes"`
	IncludeWeekends      bool              `json:"include_weekends"`
	Advanced             *AdvancedSettings `json:"advanced_settings,omitempty"`
}

// AdvancedSettings tunes pacing beyond the basic session parameters.
type AdvancedSettings struct {
	Strategy           string           `json:"strategy,omitempty"`
	UserExperience     *DifficultyLevel `json:"user_experience,omitempty"`
	MaxVideosPerDay    *int             `json:"max_videos_per_day,omitempty"`
	PreferredBreakDays []time.Weekday   `json:"preferred_break_days,omitempty"`
}

// PlanItem is one scheduled session covering a run of videos from a module.
type PlanItem struct {
	Date                    time.Time     `json:"date"`
	ModuleTitle             string        `json:"module_title"`
	SectionTitle            string        `json:"section_title"`
	VideoIndices            []int         `json:"video_indices"`
	Completed               bool          `json:"completed"`
	TotalDuration           time.Duration `json:"total_duration"`
	EstimatedCompletionTime time.Duration `json:"estimated_completion_time"`
	OverflowWarnings        []string      `json:"overflow_warnings"`
}

// IsReview reports whether the item is a review session rather than a
// study session. Review sessions cover no videos.
func (i PlanItem) IsReview() bool {
	return len(i.VideoIndices) == 0
}

// TotalVideos counts the videos covered by all plan items.
func (p *Plan) TotalVideos() int {
	n := 0
	for i := range p.Items {
		n += len(p.Items[i].VideoIndices)
	}
	return n
}

// CompletedVideos counts the videos in sessions already marked complete.
func (p *Plan) CompletedVideos() int {
	n := 0
	for i := range p.Items {
		if p.Items[i].Completed {
			n += len(p.Items[i].VideoIndices)
		}
	}
	return n
}

// ProgressPercent reports completion as a percentage of scheduled videos.
func (p *Plan) ProgressPercent() float64 {
	total := p.TotalVideos()
	if total == 0 {
		return 0
	}
	return float64(p.CompletedVideos()) / float64(total) * 100
}

package cluster

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/textutil"
)

// difficultyKeywords maps lexical markers to score adjustments around the
// 0.5 baseline.
var difficultyKeywords = map[string]float64{
	"introduction":    -0.3,
	"intro":           -0.3,
	"beginner":        -0.3,
	"basics":          -0.25,
	"getting started": -0.25,
	"fundamentals":    -0.2,
	"simple":          -0.2,
	"easy":            -0.2,
	"overview":        -0.15,
	"review":          -0.1,
	"advanced":        0.4,
	"expert":          0.4,
	"internals":       0.3,
	"master":          0.3,
	"deep dive":       0.3,
	"optimization":    0.25,
	"architecture":    0.25,
	"complex":         0.25,
	"performance":     0.2,
	"debugging":       0.15,
}

var sequencePositionPattern = regexp.MustCompile(`(?i)\b(?:part|episode|lesson|chapter|session|day|week)\s*#?\s*(\d{1,3})\b`)

// CognitiveLoad buckets perceived difficulty for pacing decisions.
type CognitiveLoad string

const (
	LoadLow      CognitiveLoad = "low"
	LoadModerate CognitiveLoad = "moderate"
	LoadHigh     CognitiveLoad = "high"
	LoadOverload CognitiveLoad = "overload"
)

// Pacing is the recommended session tempo for a run of videos.
type Pacing string

const (
	PacingStandard    Pacing = "standard"
	PacingAccelerated Pacing = "accelerated"
	PacingDecelerated Pacing = "decelerated"
	PacingMixed       Pacing = "mixed"
)

// DifficultyAnalyzer scores per-video difficulty from title lexicon, duration,
// user level, and sequence position.
type DifficultyAnalyzer struct {
	userLevel course.DifficultyLevel
}

// NewDifficultyAnalyzer builds an analyzer calibrated for the given user level.
func NewDifficultyAnalyzer(userLevel course.DifficultyLevel) *DifficultyAnalyzer {
	if userLevel == "" {
		userLevel = course.DifficultyIntermediate
	}
	return &DifficultyAnalyzer{userLevel: userLevel}
}

// Score computes a difficulty score in [0, 1] for a single video.
func (a *DifficultyAnalyzer) Score(title string, duration time.Duration) float64 {
	score := 0.5

	lowered := textutil.Normalize(textutil.CleanTitle(title))
	for keyword, weight := range difficultyKeywords {
		if strings.Contains(lowered, keyword) {
			score += weight
		}
	}

	score += durationComplexity(duration)
	score += a.userLevelAdjustment()

	// Later entries in a detected numeric sequence tend to build on earlier
	// material.
	if m := sequencePositionPattern.FindStringSubmatch(title); m != nil {
		if pos, err := strconv.Atoi(m[1]); err == nil && pos >= 3 {
			score += 0.1
		}
	}

	return clamp01(score)
}

// ScoreAll scores each video of a course. Missing durations count as zero.
func (a *DifficultyAnalyzer) ScoreAll(videos []course.VideoMetadata) []float64 {
	scores := make([]float64, len(videos))
	for i := range videos {
		var d time.Duration
		if videos[i].DurationSeconds != nil {
			d = time.Duration(*videos[i].DurationSeconds * float64(time.Second))
		}
		scores[i] = a.Score(videos[i].Title, d)
	}
	return scores
}

func durationComplexity(d time.Duration) float64 {
	switch {
	case d <= 0:
		return 0
	case d <= 5*time.Minute:
		return -0.1
	case d <= 15*time.Minute:
		return 0
	case d <= 30*time.Minute:
		return 0.1
	case d <= 60*time.Minute:
		return 0.25
	default:
		return 0.4
	}
}

func (a *DifficultyAnalyzer) userLevelAdjustment() float64 {
	switch a.userLevel {
	case course.DifficultyBeginner:
		return 0.15
	case course.DifficultyAdvanced:
		return -0.1
	case course.DifficultyExpert:
		return -0.2
	default:
		return 0
	}
}

// Level maps a score onto the coarse difficulty grades.
func Level(score float64) course.DifficultyLevel {
	switch {
	case score < 0.35:
		return course.DifficultyBeginner
	case score < 0.65:
		return course.DifficultyIntermediate
	case score < 0.85:
		return course.DifficultyAdvanced
	default:
		return course.DifficultyExpert
	}
}

// ProgressionQuality rates how gently difficulty increases across an ordered
// sequence. Each consecutive diff inside the ideal band [-0.05, +0.15] scores
// 1; outside, the score decays with distance from the band. Returns 1 for
// sequences shorter than 2.
func ProgressionQuality(scores []float64) float64 {
	if len(scores) < 2 {
		return 1
	}
	var total float64
	for i := 1; i < len(scores); i++ {
		diff := scores[i] - scores[i-1]
		switch {
		case diff >= -0.05 && diff <= 0.15:
			total += 1
		case diff > 0.15:
			total += math.Max(0, 1-(diff-0.15)*2)
		default:
			total += math.Max(0, 1-(-0.05-diff)*2)
		}
	}
	return total / float64(len(scores)-1)
}

// SteepJumps returns the positions where difficulty rises by more than 0.3
// from the previous video.
func SteepJumps(scores []float64) []int {
	var jumps []int
	for i := 1; i < len(scores); i++ {
		if scores[i]-scores[i-1] > 0.3 {
			jumps = append(jumps, i)
		}
	}
	return jumps
}

// LoadFor buckets a difficulty score into a cognitive load class.
func LoadFor(score float64) CognitiveLoad {
	switch {
	case score < 0.3:
		return LoadLow
	case score < 0.6:
		return LoadModerate
	case score < 0.8:
		return LoadHigh
	default:
		return LoadOverload
	}
}

// RecommendPacing suggests a session tempo from the score distribution.
func RecommendPacing(scores []float64) Pacing {
	if len(scores) == 0 {
		return PacingStandard
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))

	switch {
	case mean > 0.7 && variance < 0.1:
		return PacingDecelerated
	case mean < 0.3 && variance < 0.1:
		return PacingAccelerated
	case variance > 0.2:
		return PacingMixed
	default:
		return PacingStandard
	}
}

// BreakPoints recommends positions after which a pause helps: hard segments
// followed by a clear drop, plus a midpoint break for longer runs.
func BreakPoints(scores []float64) []int {
	breakSet := make(map[int]struct{})
	for i := 1; i < len(scores); i++ {
		if scores[i-1] > 0.6 && scores[i-1]-scores[i] >= 0.2 {
			breakSet[i-1] = struct{}{}
		}
	}
	if len(scores) > 5 {
		breakSet[len(scores)/2] = struct{}{}
	}
	points := make([]int, 0, len(breakSet))
	for p := range breakSet {
		points = append(points, p)
	}
	sort.Ints(points)
	return points
}

// ReorderByTier stably partitions indices into three score tiers while
// preserving original order inside each tier. Tier boundaries are score
// thirds of the observed range.
func ReorderByTier(indices []int, scores []float64) []int {
	if len(indices) < 2 {
		return indices
	}
	min, max := math.Inf(1), math.Inf(-1)
	for _, idx := range indices {
		if scores[idx] < min {
			min = scores[idx]
		}
		if scores[idx] > max {
			max = scores[idx]
		}
	}
	if max-min < 1e-9 {
		return indices
	}
	span := max - min
	tierOf := func(idx int) int {
		rel := (scores[idx] - min) / span
		switch {
		case rel < 1.0/3.0:
			return 0
		case rel < 2.0/3.0:
			return 1
		default:
			return 2
		}
	}
	out := make([]int, 0, len(indices))
	for tier := 0; tier <= 2; tier++ {
		for _, idx := range indices {
			if tierOf(idx) == tier {
				out = append(out, idx)
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

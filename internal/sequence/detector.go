// Package sequence detects whether a set of video titles follows an
// authored ordering or groups by topic, and recommends how downstream
// structuring should treat the course.
package sequence

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"coursepilot/internal/logging"
	"coursepilot/internal/textutil"
)

// PatternKind names a family of ordering markers found in titles.
type PatternKind string

const (
	PatternNumeric       PatternKind = "numeric"
	PatternAlphabetic    PatternKind = "alphabetic"
	PatternModule        PatternKind = "module"
	PatternStep          PatternKind = "step"
	PatternChronological PatternKind = "chronological"
)

// ContentType classifies the overall organization of a title set.
type ContentType string

const (
	ContentSequential ContentType = "sequential"
	ContentThematic   ContentType = "thematic"
	ContentMixed      ContentType = "mixed"
	ContentAmbiguous  ContentType = "ambiguous"
)

// Recommendation is the processing strategy suggested to the structurer.
type Recommendation string

const (
	RecommendPreserveOrder      Recommendation = "preserve_order"
	RecommendApplyClustering    Recommendation = "apply_clustering"
	RecommendUserChoice         Recommendation = "user_choice"
	RecommendFallbackProcessing Recommendation = "fallback_processing"
)

// Pattern is one detected ordering marker family with the positions it
// extracted, in title order.
type Pattern struct {
	Kind       PatternKind
	Confidence float64
	Matches    int
	Values     []int // extracted sequence values for matching titles
}

// Result is the full detection outcome for a title set.
type Result struct {
	ContentType          ContentType
	Confidence           float64
	SequentialScore      float64
	ThematicScore        float64
	Patterns             []Pattern
	ModuleIndicatorRatio float64
	NamingConsistency    float64
	NamingVariations     int
	Recommendation       Recommendation
}

type patternFamily struct {
	kind PatternKind
	re   *regexp.Regexp
	// alpha families extract a letter instead of digits
	alpha bool
}

var patternFamilies = []patternFamily{
	{kind: PatternModule, re: regexp.MustCompile(`(?i)\b(?:module|unit|chapter|section)\s*#?\s*0*(\d{1,3})\b`)},
	{kind: PatternStep, re: regexp.MustCompile(`(?i)\bstep\s*#?\s*0*(\d{1,3})\b`)},
	{kind: PatternChronological, re: regexp.MustCompile(`(?i)\b(?:day|week|month)\s*#?\s*0*(\d{1,3})\b`)},
	{kind: PatternNumeric, re: regexp.MustCompile(`(?i)(?:\b(?:part|episode|lesson|session|video|tutorial|lecture)\s*#?\s*|^\s*#?)0*(\d{1,3})\b`)},
	{kind: PatternAlphabetic, re: regexp.MustCompile(`(?i)\b(?:part|section|appendix)\s+([a-z])\b`), alpha: true},
}

var moduleIndicatorPattern = regexp.MustCompile(`(?i)^\s*(?:module|unit|chapter)\b|^\s*[Ii]ntroduction\s+to\b`)

// Detector analyzes title sets for ordering structure.
type Detector struct {
	logger *slog.Logger
}

// NewDetector builds a detector.
func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logging.NewComponentLogger(logger, "sequence")}
}

// Detect classifies the titles and recommends a processing strategy.
// An empty input is Ambiguous with zero confidence.
func (d *Detector) Detect(titles []string) *Result {
	result := &Result{ContentType: ContentAmbiguous}
	if len(titles) == 0 {
		result.Recommendation = RecommendFallbackProcessing
		return result
	}

	result.Patterns = detectPatterns(titles)
	result.ModuleIndicatorRatio = moduleIndicatorRatio(titles)
	result.NamingConsistency, result.NamingVariations = namingConsistency(titles)

	result.SequentialScore, result.ThematicScore = scoreContent(result, titles)

	result.ContentType, result.Confidence = classify(result.SequentialScore, result.ThematicScore)
	result.Recommendation = recommend(result)

	d.logger.Debug("content type detected",
		logging.String("content_type", string(result.ContentType)),
		logging.Float64("confidence", result.Confidence),
		logging.Float64("sequential", result.SequentialScore),
		logging.Float64("thematic", result.ThematicScore),
		logging.String("recommendation", string(result.Recommendation)))
	return result
}

// detectPatterns runs every pattern family over the titles. Confidence per
// family blends how many titles match with how well the extracted values
// form a consecutive run.
func detectPatterns(titles []string) []Pattern {
	var patterns []Pattern
	for _, family := range patternFamilies {
		values := make([]int, 0, len(titles))
		for _, title := range titles {
			m := family.re.FindStringSubmatch(title)
			if m == nil {
				continue
			}
			if family.alpha {
				letter := strings.ToLower(m[1])
				values = append(values, int(letter[0]-'a')+1)
			} else {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					continue
				}
				values = append(values, n)
			}
		}
		if len(values) == 0 {
			continue
		}
		matchRatio := float64(len(values)) / float64(len(titles))
		patterns = append(patterns, Pattern{
			Kind:       family.kind,
			Confidence: 0.6*matchRatio + 0.4*sequenceRatio(values),
			Matches:    len(values),
			Values:     values,
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})
	return patterns
}

// sequenceRatio is the fraction of consecutive matched values that advance
// by exactly one.
func sequenceRatio(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	consecutive := 0
	for i := 1; i < len(values); i++ {
		if values[i] == values[i-1]+1 {
			consecutive++
		}
	}
	return float64(consecutive) / float64(len(values)-1)
}

// moduleIndicatorRatio is the fraction of titles opening with an explicit
// module marker.
func moduleIndicatorRatio(titles []string) float64 {
	if len(titles) == 0 {
		return 0
	}
	count := 0
	for _, title := range titles {
		if moduleIndicatorPattern.MatchString(title) {
			count++
		}
	}
	return float64(count) / float64(len(titles))
}

// namingTemplates are the title formats a deliberately authored course tends
// to reuse. Consistency counts how many titles follow one of them.
var namingTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:lesson|part|episode|chapter|section|tutorial|video)\s*#?\s*\d+`),
	regexp.MustCompile(`(?i)^(?:module|unit|course)\s*#?\s*\d+`),
	regexp.MustCompile(`(?i)^(?:day|week|month)\s*#?\s*\d+`),
	regexp.MustCompile(`(?i)^(?:part|chapter|section|unit|appendix)\s+[a-z]\b`),
	regexp.MustCompile(`^\d+\s*[-.:]?\s+`),
	regexp.MustCompile(`(?i)\b(?:step|tutorial|guide)\s*#?\s*\d+`),
}

// namingConsistency scores how uniformly titles follow the known templates
// and counts how many distinct templates appear. Titles matching none of
// them score zero.
func namingConsistency(titles []string) (float64, int) {
	if len(titles) == 0 {
		return 0, 0
	}
	matched := 0
	used := make(map[int]struct{})
	for _, title := range titles {
		for i, template := range namingTemplates {
			if template.MatchString(title) {
				matched++
				used[i] = struct{}{}
				break
			}
		}
	}
	return float64(matched) / float64(len(titles)), len(used)
}

var digitRun = regexp.MustCompile(`\d+`)

// scoreContent accumulates evidence for both readings. Every detected
// pattern family contributes part of its confidence to the sequential score.
// A low density of module markers is ordering evidence while a high density
// means the titles already name topical groups. Consistent naming backs the
// sequential reading; a spray of different formats backs the thematic one.
func scoreContent(result *Result, titles []string) (float64, float64) {
	sequential := 0.0
	for _, p := range result.Patterns {
		sequential += p.Confidence * 0.4
	}
	thematic := topicOverlap(titles)

	ratio := result.ModuleIndicatorRatio
	if ratio > 0.3 {
		thematic += ratio * 0.3
	} else if ratio > 0 {
		sequential += ratio * 0.2
	}

	if result.NamingConsistency > 0.6 && result.NamingVariations <= 2 {
		sequential += result.NamingConsistency * 0.4
	} else if result.NamingVariations > 3 {
		thematic += 0.2
	}

	return clampUnit(sequential), clampUnit(thematic)
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

// orderingWords are sequence markers that say nothing about topic. The
// common ones (part, lesson, chapter, section) are already stripped during
// tokenization.
var orderingWords = map[string]struct{}{
	"module": {}, "unit": {}, "step": {}, "day": {}, "week": {},
	"month": {}, "lecture": {}, "session": {}, "appendix": {},
}

// topicOverlap is the fraction of titles sharing at least one meaningful
// token with another title. Ordering words and numbers do not count.
func topicOverlap(titles []string) float64 {
	if len(titles) < 2 {
		return 0
	}
	tokenSets := make([]map[string]struct{}, len(titles))
	docFreq := make(map[string]int)
	for i, title := range titles {
		set := make(map[string]struct{})
		for _, token := range textutil.Tokenize(title) {
			if digitRun.MatchString(token) {
				continue
			}
			if _, ordering := orderingWords[token]; ordering {
				continue
			}
			if _, seen := set[token]; seen {
				continue
			}
			set[token] = struct{}{}
			docFreq[token]++
		}
		tokenSets[i] = set
	}

	sharing := 0
	for _, set := range tokenSets {
		for token := range set {
			if docFreq[token] >= 2 {
				sharing++
				break
			}
		}
	}
	return float64(sharing) / float64(len(titles))
}

func classify(sequential, thematic float64) (ContentType, float64) {
	diff := sequential - thematic
	if diff < 0 {
		diff = -diff
	}
	switch {
	case sequential > 0.6 && sequential > thematic:
		return ContentSequential, sequential
	case thematic > 0.6 && thematic > sequential:
		return ContentThematic, thematic
	case diff < 0.2 && (sequential > 0.3 || thematic > 0.3):
		return ContentMixed, maxFloat(sequential, thematic)
	default:
		return ContentAmbiguous, maxFloat(sequential, thematic)
	}
}

func recommend(result *Result) Recommendation {
	switch result.ContentType {
	case ContentSequential:
		if result.Confidence > 0.7 {
			return RecommendPreserveOrder
		}
		if result.Confidence > 0.5 {
			for _, p := range result.Patterns {
				if p.Confidence > 0.8 {
					return RecommendPreserveOrder
				}
			}
			return RecommendUserChoice
		}
		return RecommendUserChoice
	case ContentThematic:
		if result.Confidence > 0.6 {
			return RecommendApplyClustering
		}
		return RecommendUserChoice
	case ContentMixed:
		return RecommendUserChoice
	default:
		if result.Confidence < 0.3 {
			return RecommendFallbackProcessing
		}
		return RecommendUserChoice
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

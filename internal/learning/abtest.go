package learning

import (
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"coursepilot/internal/course"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// Variant identifies one arm of an A/B test.
type Variant string

const (
	VariantA Variant = "a"
	VariantB Variant = "b"
)

// ABTest is a finite experiment comparing two preference variants.
type ABTest struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	Description      string                     `json:"description,omitempty"`
	AlgorithmA       course.ClusteringAlgorithm `json:"algorithm_a"`
	AlgorithmB       course.ClusteringAlgorithm `json:"algorithm_b"`
	ParametersA      Preferences                `json:"parameters_a"`
	ParametersB      Preferences                `json:"parameters_b"`
	TargetSampleSize int                        `json:"target_sample_size"`
	SampleSize       int                        `json:"sample_size"`
	StartedAt        time.Time                  `json:"started_at"`
	EndedAt          *time.Time                 `json:"ended_at,omitempty"`
	Active           bool                       `json:"active"`
}

// ABResult records one user interaction inside an A/B test.
type ABResult struct {
	TestID           string      `json:"test_id"`
	CourseID         string      `json:"course_id"`
	Variant          Variant     `json:"variant"`
	ParametersUsed   Preferences `json:"parameters_used"`
	UserSatisfaction float64     `json:"user_satisfaction"`
	QualityScore     float64     `json:"quality_score"`
	ProcessingTime   int64       `json:"processing_time_ms"`
	AdjustmentCount  int         `json:"adjustment_count"`
	RecordedAt       time.Time   `json:"recorded_at"`
}

// ABAnalysis summarizes a completed or in-flight A/B test.
type ABAnalysis struct {
	TestID        string   `json:"test_id"`
	SatisfactionA float64  `json:"satisfaction_a"`
	SatisfactionB float64  `json:"satisfaction_b"`
	QualityA      float64  `json:"quality_a"`
	QualityB      float64  `json:"quality_b"`
	AdjustmentsA  float64  `json:"adjustments_a"`
	AdjustmentsB  float64  `json:"adjustments_b"`
	SampleSizeA   int      `json:"sample_size_a"`
	SampleSizeB   int      `json:"sample_size_b"`
	Significance  float64  `json:"significance"`
	Winner        *Variant `json:"winner,omitempty"`
}

// minSamplesPerVariant is the floor below which significance is zero.
const minSamplesPerVariant = 30

// CreateABTest registers a new experiment. Variant A runs the current
// baseline; variant B swaps the algorithm and raises the threshold by 0.1.
func (e *Engine) CreateABTest(name, description string, algorithmA, algorithmB course.ClusteringAlgorithm, targetSampleSize int) string {
	paramsA := e.prefs
	paramsA.PreferredAlgorithm = algorithmA

	paramsB := e.prefs
	paramsB.PreferredAlgorithm = algorithmB
	paramsB.SimilarityThreshold += 0.1
	paramsB.Clamp()

	test := ABTest{
		ID:               uuid.NewString(),
		Name:             name,
		Description:      description,
		AlgorithmA:       algorithmA,
		AlgorithmB:       algorithmB,
		ParametersA:      paramsA,
		ParametersB:      paramsB,
		TargetSampleSize: targetSampleSize,
		StartedAt:        time.Now().UTC(),
		Active:           true,
	}
	e.tests = append(e.tests, test)

	e.logger.Info("ab test created",
		logging.String("test_id", test.ID),
		logging.String("algorithm_a", string(algorithmA)),
		logging.String("algorithm_b", string(algorithmB)))
	return test.ID
}

// AssignVariant deterministically picks a variant for the course and returns
// the parameters that variant should run with. It returns false when the test
// is unknown, inactive, or already at its target sample size.
func (e *Engine) AssignVariant(testID, courseID string) (Variant, Preferences, bool) {
	test := e.findTest(testID)
	if test == nil || !test.Active || test.SampleSize >= test.TargetSampleSize {
		return "", Preferences{}, false
	}
	if assignVariant(courseID) == VariantA {
		return VariantA, test.ParametersA, true
	}
	return VariantB, test.ParametersB, true
}

// RecordABResult stores a result and closes the test once the target sample
// size is reached.
func (e *Engine) RecordABResult(result ABResult) {
	if test := e.findTest(result.TestID); test != nil {
		test.SampleSize++
		if test.SampleSize >= test.TargetSampleSize {
			test.Active = false
			now := time.Now().UTC()
			test.EndedAt = &now
		}
	}
	e.results = append(e.results, result)
}

// AnalyzeABTest computes per-variant averages, a heuristic significance
// score, and the winner. The winning variant's parameters become the new
// baseline preferences.
func (e *Engine) AnalyzeABTest(testID string) (*ABAnalysis, error) {
	var a, b []ABResult
	for _, r := range e.results {
		if r.TestID != testID {
			continue
		}
		if r.Variant == VariantA {
			a = append(a, r)
		} else {
			b = append(b, r)
		}
	}
	if len(a)+len(b) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "learning", "analyze_ab_test",
			"no results recorded for test "+testID, nil)
	}

	analysis := &ABAnalysis{
		TestID:        testID,
		SatisfactionA: meanOf(a, func(r ABResult) float64 { return r.UserSatisfaction }),
		SatisfactionB: meanOf(b, func(r ABResult) float64 { return r.UserSatisfaction }),
		QualityA:      meanOf(a, func(r ABResult) float64 { return r.QualityScore }),
		QualityB:      meanOf(b, func(r ABResult) float64 { return r.QualityScore }),
		AdjustmentsA:  meanOf(a, func(r ABResult) float64 { return float64(r.AdjustmentCount) }),
		AdjustmentsB:  meanOf(b, func(r ABResult) float64 { return float64(r.AdjustmentCount) }),
		SampleSizeA:   len(a),
		SampleSizeB:   len(b),
		Significance:  significance(a, b),
	}
	analysis.Winner = determineWinner(analysis)

	if analysis.Winner != nil {
		if test := e.findTest(testID); test != nil {
			if *analysis.Winner == VariantA {
				e.prefs = test.ParametersA
			} else {
				e.prefs = test.ParametersB
			}
			e.prefs.Clamp()
			e.logger.Info("ab test winner adopted",
				logging.String("test_id", testID),
				logging.String("variant", string(*analysis.Winner)))
		}
	}
	return analysis, nil
}

// ActiveABTests lists the experiments still collecting samples.
func (e *Engine) ActiveABTests() []ABTest {
	var out []ABTest
	for _, t := range e.tests {
		if t.Active {
			out = append(out, t)
		}
	}
	return out
}

// ABTests lists every registered experiment.
func (e *Engine) ABTests() []ABTest { return e.tests }

// ABResults lists every recorded result.
func (e *Engine) ABResults() []ABResult { return e.results }

// RestoreABState reloads persisted tests and results into the engine.
func (e *Engine) RestoreABState(tests []ABTest, results []ABResult) {
	e.tests = tests
	e.results = results
}

func (e *Engine) findTest(id string) *ABTest {
	for i := range e.tests {
		if e.tests[i].ID == id {
			return &e.tests[i]
		}
	}
	return nil
}

// assignVariant hashes the course id so the same course always lands on the
// same arm.
func assignVariant(courseID string) Variant {
	h := fnv.New64a()
	h.Write([]byte(courseID))
	if h.Sum64()%2 == 0 {
		return VariantA
	}
	return VariantB
}

// significance is a heuristic effect-size score, not a proper test. Below the
// per-variant sample floor it reports zero.
func significance(a, b []ABResult) float64 {
	if len(a) < minSamplesPerVariant || len(b) < minSamplesPerVariant {
		return 0
	}
	meanA := meanOf(a, func(r ABResult) float64 { return r.UserSatisfaction })
	meanB := meanOf(b, func(r ABResult) float64 { return r.UserSatisfaction })
	diff := meanA - meanB
	if diff < 0 {
		diff = -diff
	}
	combined := float64(len(a) + len(b))
	score := diff * combined / 100
	if score > 1 {
		return 1
	}
	return score
}

// determineWinner scores each arm 70% satisfaction, 30% quality, and calls a
// draw when the gap is under 0.05.
func determineWinner(analysis *ABAnalysis) *Variant {
	if analysis.SampleSizeA == 0 || analysis.SampleSizeB == 0 {
		return nil
	}
	scoreA := analysis.SatisfactionA*0.7 + analysis.QualityA*0.3
	scoreB := analysis.SatisfactionB*0.7 + analysis.QualityB*0.3
	diff := scoreA - scoreB
	if diff < 0 {
		diff = -diff
	}
	if diff < 0.05 {
		return nil
	}
	winner := VariantA
	if scoreB > scoreA {
		winner = VariantB
	}
	return &winner
}

func meanOf(results []ABResult, value func(ABResult) float64) float64 {
	if len(results) == 0 {
		return 0
	}
	var total float64
	for _, r := range results {
		total += value(r)
	}
	return total / float64(len(results))
}

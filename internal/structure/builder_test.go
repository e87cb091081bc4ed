package structure

import (
	"errors"
	"sort"
	"testing"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/sequence"
	"coursepilot/internal/services"
)

func testBuilder() *Builder {
	return NewBuilder(config.Default().Clustering, nil)
}

func localVideos(titles []string, durationsSeconds []float64) []course.VideoMetadata {
	videos := make([]course.VideoMetadata, 0, len(titles))
	for i, title := range titles {
		v := course.NewLocalVideo(title, "/videos/"+title+".mp4", i)
		if durationsSeconds != nil {
			d := durationsSeconds[i]
			v.DurationSeconds = &d
		}
		videos = append(videos, v)
	}
	return videos
}

func assertCoverage(t *testing.T, s *course.Structure, want int) {
	t.Helper()
	var all []int
	for _, m := range s.Modules {
		for _, sec := range m.Sections {
			all = append(all, sec.VideoIndex)
		}
	}
	sort.Ints(all)
	if len(all) != want {
		t.Fatalf("structure covers %d videos, want %d", len(all), want)
	}
	for i, idx := range all {
		if idx != i {
			t.Fatalf("video indices %v, want each of 0..%d exactly once", all, want-1)
		}
	}
}

func TestBuildNumberedLessonsPreservesOrder(t *testing.T) {
	videos := localVideos([]string{
		"Lesson 1 - Intro",
		"Lesson 2 - Variables",
		"Lesson 3 - Functions",
		"Lesson 4 - Loops",
		"Lesson 5 - Classes",
	}, nil)

	s, err := testBuilder().Build(videos, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s.Modules) != 1 {
		t.Fatalf("got %d modules, want 1", len(s.Modules))
	}
	for i, sec := range s.Modules[0].Sections {
		if sec.VideoIndex != i {
			t.Errorf("section %d points at video %d, want %d", i, sec.VideoIndex, i)
		}
	}
	if s.Metadata.OriginalOrderPreserved == nil || !*s.Metadata.OriginalOrderPreserved {
		t.Error("original order not marked preserved")
	}
	if s.Metadata.StructureQualityScore == nil || *s.Metadata.StructureQualityScore < 0.8 {
		t.Errorf("quality score = %v, want >= 0.8", s.Metadata.StructureQualityScore)
	}
	if s.Metadata.ContentTypeDetected == nil || *s.Metadata.ContentTypeDetected != string(sequence.ContentSequential) {
		t.Errorf("content type = %v, want sequential", s.Metadata.ContentTypeDetected)
	}
}

func TestBuildThematicCourseClusters(t *testing.T) {
	videos := localVideos([]string{
		"Intro to Python",
		"Python Functions",
		"SQL Joins",
		"SQL Indexes",
		"HTML Basics",
		"CSS Flexbox",
	}, []float64{600, 600, 600, 600, 600, 600})

	s, err := testBuilder().Build(videos, Options{
		Algorithm:      course.AlgorithmKMeans,
		TargetClusters: 3,
		Seed:           7,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	assertCoverage(t, s, len(videos))
	if len(s.Modules) < 2 {
		t.Fatalf("got %d modules, want at least 2", len(s.Modules))
	}
	if s.Clustering == nil {
		t.Fatal("clustering metadata missing")
	}
	if s.Clustering.AlgorithmUsed != course.AlgorithmKMeans {
		t.Errorf("algorithm = %v, want kmeans", s.Clustering.AlgorithmUsed)
	}

	moduleOf := make(map[int]int)
	for mi, m := range s.Modules {
		for _, sec := range m.Sections {
			moduleOf[sec.VideoIndex] = mi
		}
	}
	if moduleOf[0] != moduleOf[1] {
		t.Error("python videos split across modules")
	}
	if moduleOf[2] != moduleOf[3] {
		t.Error("sql videos split across modules")
	}
}

func TestBuildSmallThematicCourseDefaults(t *testing.T) {
	// With no algorithm forced, a handful of titles spanning three topics
	// must come back as three two-video modules keyed by topic, for any seed.
	videos := localVideos([]string{
		"Intro to Python",
		"Python Functions",
		"SQL Joins",
		"SQL Indexes",
		"HTML Basics",
		"CSS Flexbox",
	}, []float64{600, 600, 600, 600, 600, 600})

	for _, seed := range []int64{1, 7, 42} {
		s, err := testBuilder().Build(videos, Options{Seed: seed})
		if err != nil {
			t.Fatalf("seed %d: Build: %v", seed, err)
		}
		assertCoverage(t, s, len(videos))
		if len(s.Modules) != 3 {
			t.Fatalf("seed %d: got %d modules, want 3", seed, len(s.Modules))
		}
		topics := make(map[string]bool)
		for _, m := range s.Modules {
			if len(m.Sections) != 2 {
				t.Errorf("seed %d: module %q has %d sections, want 2", seed, m.Title, len(m.Sections))
			}
			if len(m.TopicKeywords) == 0 {
				t.Fatalf("seed %d: module %q has no topic keywords", seed, m.Title)
			}
			topics[m.TopicKeywords[0]] = true
		}
		for _, topic := range []string{"python", "sql", "css"} {
			if !topics[topic] {
				t.Errorf("seed %d: no module keyed by %q (got %v)", seed, topic, topics)
			}
		}
	}
}

func TestBuildReportsProgressStages(t *testing.T) {
	videos := localVideos([]string{
		"Intro to Python",
		"Python Functions",
		"SQL Joins",
		"SQL Indexes",
		"HTML Basics",
		"CSS Flexbox",
	}, nil)

	var stages []string
	last := -1.0
	_, err := testBuilder().Build(videos, Options{
		Algorithm: course.AlgorithmKMeans,
		Seed:      7,
		Progress: func(stage string, fraction float64) {
			stages = append(stages, stage)
			if fraction < last {
				t.Errorf("fraction went backwards: %v after %v", fraction, last)
			}
			last = fraction
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(stages) == 0 || stages[0] != "detection" {
		t.Fatalf("stages = %v, want detection first", stages)
	}
	if stages[len(stages)-1] != "assembly" {
		t.Fatalf("stages = %v, want assembly last", stages)
	}
	if last != 1 {
		t.Errorf("final fraction = %v, want 1", last)
	}
}

func TestBuildDeterministicUnderSeed(t *testing.T) {
	videos := localVideos([]string{
		"Intro to Python",
		"Python Functions",
		"SQL Joins",
		"SQL Indexes",
		"HTML Basics",
		"CSS Flexbox",
	}, nil)

	build := func() []string {
		s, err := testBuilder().Build(videos, Options{
			Algorithm:      course.AlgorithmKMeans,
			TargetClusters: 3,
			Seed:           99,
		})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		var titles []string
		for _, m := range s.Modules {
			titles = append(titles, m.Title)
		}
		return titles
	}
	first, second := build(), build()
	if len(first) != len(second) {
		t.Fatalf("module counts differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("module titles differ under same seed: %v vs %v", first, second)
		}
	}
}

func TestBuildRejectsNegativeDurations(t *testing.T) {
	videos := localVideos([]string{"A", "B"}, []float64{60, -5})
	if _, err := testBuilder().Build(videos, Options{}); err == nil {
		t.Fatal("expected error for negative duration")
	} else if !errors.Is(err, services.ErrInvalidDurations) {
		t.Fatalf("expected ErrInvalidDurations, got %v", err)
	}
}

func TestBuildAlwaysProducesStructure(t *testing.T) {
	// Unrelated titles give ambiguous detection; small corpora cannot be
	// clustered; both still come back as a usable structure.
	videos := localVideos([]string{
		"Quarterly Report",
		"Vacation Footage",
		"Birthday Compilation",
	}, nil)
	s, err := testBuilder().Build(videos, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	assertCoverage(t, s, len(videos))
	if s.Metadata.ProcessingStrategyUsed == nil ||
		*s.Metadata.ProcessingStrategyUsed != string(sequence.RecommendFallbackProcessing) {
		t.Errorf("processing strategy = %v, want fallback_processing", s.Metadata.ProcessingStrategyUsed)
	}
}

func TestBuildEmptyCourse(t *testing.T) {
	s, err := testBuilder().Build(nil, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s.Modules) != 1 || len(s.Modules[0].Sections) != 0 {
		t.Fatalf("empty course structure = %+v, want one empty module", s.Modules)
	}
	if s.Metadata.TotalVideos != 0 {
		t.Errorf("TotalVideos = %d, want 0", s.Metadata.TotalVideos)
	}
}

func TestGroupByExplicitModules(t *testing.T) {
	titles := []string{
		"Module 2 Lecture B",
		"Module 1 Lecture A",
		"Module 1 Lecture C",
		"Module 2 Lecture D",
		"Bonus Interview",
	}
	videos := localVideos(titles, nil)
	modules := groupByExplicitModules(videos, titles)
	if len(modules) != 3 {
		t.Fatalf("got %d modules, want 2 numbered plus the catch-all", len(modules))
	}
	if modules[0].Title != "Module 1" || modules[1].Title != "Module 2" {
		t.Errorf("module titles = %q, %q", modules[0].Title, modules[1].Title)
	}
	if got := modules[0].Sections[0].VideoIndex; got != 1 {
		t.Errorf("Module 1 starts with video %d, want 1", got)
	}
	if modules[2].Title != "Additional Content" || modules[2].Sections[0].VideoIndex != 4 {
		t.Errorf("catch-all module = %+v", modules[2])
	}
}

func TestGroupByExplicitModulesNeedsMajority(t *testing.T) {
	titles := []string{"Module 1 Intro", "Random One", "Random Two", "Random Three"}
	if got := groupByExplicitModules(localVideos(titles, nil), titles); got != nil {
		t.Fatalf("grouped %v, want nil for sparse markers", got)
	}
}

func TestChunkIntoParts(t *testing.T) {
	titles := make([]string, 19)
	for i := range titles {
		titles[i] = "Video"
	}
	modules := chunkIntoParts(localVideos(titles, nil))
	if len(modules) != 3 {
		t.Fatalf("got %d parts, want 3", len(modules))
	}
	if len(modules[0].Sections) != 8 || len(modules[2].Sections) != 3 {
		t.Errorf("part sizes = %d, %d, %d", len(modules[0].Sections), len(modules[1].Sections), len(modules[2].Sections))
	}
	if modules[1].Title != "Part 2" {
		t.Errorf("second part title = %q", modules[1].Title)
	}
}

func TestReorderModulesByTier(t *testing.T) {
	adv := course.DifficultyAdvanced
	beg := course.DifficultyBeginner
	mid := course.DifficultyIntermediate
	modules := []course.Module{
		{Title: "Hard", Difficulty: &adv},
		{Title: "Easy", Difficulty: &beg},
		{Title: "Middle", Difficulty: &mid},
		{Title: "AlsoEasy", Difficulty: &beg},
	}
	got := reorderModulesByTier(modules)
	wantOrder := []string{"Easy", "AlsoEasy", "Middle", "Hard"}
	for i, want := range wantOrder {
		if got[i].Title != want {
			t.Fatalf("order = %v, want %v", titlesOf(got), wantOrder)
		}
	}
}

func titlesOf(modules []course.Module) []string {
	out := make([]string, len(modules))
	for i := range modules {
		out[i] = modules[i].Title
	}
	return out
}

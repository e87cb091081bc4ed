package store

import (
	"context"
	"testing"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/learning"
)

func TestLoadPreferencesDefaultsWhenEmpty(t *testing.T) {
	s := openTestStore(t)

	prefs, stored, err := s.LoadPreferences(context.Background())
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if stored {
		t.Fatal("fresh database should report no stored preferences")
	}
	if prefs.SimilarityThreshold != 0.6 || prefs.PreferredAlgorithm != course.AlgorithmHybrid {
		t.Fatalf("defaults = %+v", prefs)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prefs := learning.DefaultPreferences()
	prefs.SimilarityThreshold = 0.75
	prefs.PreferredAlgorithm = course.AlgorithmKMeans
	prefs.MaxClusters = 12
	prefs.UsageCount = 7
	if err := s.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, stored, err := s.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if !stored {
		t.Fatal("stored flag should be true after a save")
	}
	if got.SimilarityThreshold != 0.75 || got.PreferredAlgorithm != course.AlgorithmKMeans {
		t.Fatalf("loaded = %+v", got)
	}
	if got.MaxClusters != 12 || got.UsageCount != 7 {
		t.Fatalf("loaded = %+v", got)
	}

	// A second save replaces the single record.
	prefs.SimilarityThreshold = 0.5
	if err := s.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("SavePreferences update: %v", err)
	}
	got, _, err = s.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got.SimilarityThreshold != 0.5 {
		t.Fatalf("threshold after update = %v, want 0.5", got.SimilarityThreshold)
	}
}

func TestFeedbackHistoryKeepsOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := learning.NewFeedback("course-1", learning.FeedbackExplicitRating, 0.9, learning.DefaultPreferences())
	second := learning.NewFeedback("course-1", learning.FeedbackRejection, 0, learning.DefaultPreferences())
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	for _, fb := range []learning.Feedback{first, second} {
		if err := s.SaveFeedback(ctx, fb); err != nil {
			t.Fatalf("SaveFeedback: %v", err)
		}
	}

	history, err := s.FeedbackHistory(ctx)
	if err != nil {
		t.Fatalf("FeedbackHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	if history[0].ID != first.ID || history[1].ID != second.ID {
		t.Fatal("history should come back oldest first")
	}
	if history[0].Rating != 0.9 || history[1].Kind != learning.FeedbackRejection {
		t.Fatalf("history = %+v", history)
	}
}

func TestABStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	engine := learning.NewEngine(nil)
	testID := engine.CreateABTest("tfidf vs lda", "", course.AlgorithmTfIdf, course.AlgorithmLda, 50)
	engine.RecordABResult(learning.ABResult{
		TestID:           testID,
		CourseID:         "course-1",
		Variant:          learning.VariantA,
		UserSatisfaction: 0.8,
		QualityScore:     0.7,
	})

	for _, test := range engine.ABTests() {
		if err := s.SaveABTest(ctx, test); err != nil {
			t.Fatalf("SaveABTest: %v", err)
		}
	}
	for _, result := range engine.ABResults() {
		if err := s.SaveABResult(ctx, result); err != nil {
			t.Fatalf("SaveABResult: %v", err)
		}
	}

	tests, err := s.ListABTests(ctx)
	if err != nil {
		t.Fatalf("ListABTests: %v", err)
	}
	if len(tests) != 1 || tests[0].ID != testID || tests[0].SampleSize != 1 {
		t.Fatalf("tests = %+v", tests)
	}
	results, err := s.ABResults(ctx)
	if err != nil {
		t.Fatalf("ABResults: %v", err)
	}
	if len(results) != 1 || results[0].UserSatisfaction != 0.8 {
		t.Fatalf("results = %+v", results)
	}
}

func TestLoadEngineRestoresEverything(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	engine := learning.NewEngine(nil)
	engine.RecordFeedback(learning.NewFeedback("course-1", learning.FeedbackExplicitRating, 0.9, learning.DefaultPreferences()))
	testID := engine.CreateABTest("experiment", "", course.AlgorithmKMeans, course.AlgorithmLda, 10)

	if err := s.SaveEngine(ctx, engine); err != nil {
		t.Fatalf("SaveEngine: %v", err)
	}
	for _, fb := range engine.History() {
		if err := s.SaveFeedback(ctx, fb); err != nil {
			t.Fatalf("SaveFeedback: %v", err)
		}
	}

	loaded, err := s.LoadEngine(ctx, nil)
	if err != nil {
		t.Fatalf("LoadEngine: %v", err)
	}
	if got := loaded.Preferences(); got.UsageCount != 1 {
		t.Fatalf("restored UsageCount = %d, want 1", got.UsageCount)
	}
	if len(loaded.History()) != 1 {
		t.Fatalf("restored history = %d, want 1", len(loaded.History()))
	}
	if tests := loaded.ActiveABTests(); len(tests) != 1 || tests[0].ID != testID {
		t.Fatalf("restored tests = %+v", tests)
	}
}

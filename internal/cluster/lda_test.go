package cluster

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"coursepilot/internal/services"
)

func TestLDARejectsFewerDocsThanTopics(t *testing.T) {
	lda := NewLDA(newTestExtractor(), 4, rand.New(rand.NewSource(1)), nil)
	analysis := &Analysis{Titles: []string{"Python Basics", "Python Loops"}}
	if _, err := lda.Cluster(analysis, 0); err == nil {
		t.Fatal("expected error for 2 documents over 4 topics")
	} else if !errors.Is(err, services.ErrInsufficientContent) {
		t.Fatalf("expected ErrInsufficientContent, got %v", err)
	}
}

func TestLDACoversEveryVideo(t *testing.T) {
	lda := NewLDA(newTestExtractor(), 3, rand.New(rand.NewSource(42)), nil)
	analysis, err := lda.Analyze(thematicTitles)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	clusters, err := lda.Cluster(analysis, 0)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	collectIndices(t, clusters, len(thematicTitles))
	for _, cl := range clusters {
		if len(cl.TopicKeywords) == 0 {
			t.Errorf("cluster %v has no topic keywords", cl.Videos)
		}
	}
}

func TestLDADeterministicUnderSeed(t *testing.T) {
	run := func() [][]int {
		lda := NewLDA(newTestExtractor(), 3, rand.New(rand.NewSource(9)), nil)
		analysis, err := lda.Analyze(thematicTitles)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		clusters, err := lda.Cluster(analysis, 0)
		if err != nil {
			t.Fatalf("Cluster: %v", err)
		}
		groups := make([][]int, 0, len(clusters))
		for _, cl := range clusters {
			groups = append(groups, cl.Videos)
		}
		return groups
	}
	if first, second := run(), run(); !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced different groupings: %v vs %v", first, second)
	}
}

func TestHeuristicTopics(t *testing.T) {
	cases := []struct {
		n, want int
	}{
		{1, 2},
		{4, 2},
		{9, 3},
		{16, 4},
		{25, 5},
		{26, 5},   // sqrt rounds up past the default, small corpus caps it
		{100, 10}, // clamp at 10
		{400, 10},
	}
	for _, tc := range cases {
		if got := heuristicTopics(tc.n); got != tc.want {
			t.Errorf("heuristicTopics(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestTopicEntropy(t *testing.T) {
	balanced := []VideoCluster{{Videos: []int{0, 1}}, {Videos: []int{2, 3}}}
	if got := TopicEntropy(balanced, 4); got < 0.99 || got > 1.01 {
		t.Errorf("balanced entropy = %v, want 1", got)
	}
	skewed := []VideoCluster{{Videos: []int{0, 1, 2}}, {Videos: []int{3}}}
	if got := TopicEntropy(skewed, 4); got >= 1 {
		t.Errorf("skewed entropy = %v, want < 1", got)
	}
	if got := TopicEntropy(balanced[:1], 2); got != 0 {
		t.Errorf("single cluster entropy = %v, want 0", got)
	}
}

package features

import (
	"errors"
	"math"
	"testing"

	"coursepilot/internal/services"
)

var sampleTitles = []string{
	"Introduction to Golang Programming",
	"Golang Structs and Interfaces",
	"Golang Goroutines Explained",
	"Advanced Golang Channels",
	"Testing Golang Applications",
}

func TestExtractRejectsSmallCorpus(t *testing.T) {
	e := NewExtractor(0, nil)
	_, err := e.Extract([]string{"One", "Two", "Three", "Four"})
	if err == nil {
		t.Fatal("expected error for corpus below minimum")
	}
	if !errors.Is(err, services.ErrInsufficientContent) {
		t.Fatalf("expected ErrInsufficientContent, got %v", err)
	}
}

func TestExtractProducesVectorPerTitle(t *testing.T) {
	e := NewExtractor(0, nil)
	vectors, err := e.Extract(sampleTitles)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(vectors) != len(sampleTitles) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(sampleTitles))
	}
}

func TestUbiquitousTermCarriesNoWeight(t *testing.T) {
	// "golang" appears in all five titles, so idf = ln(5/5) = 0.
	e := NewExtractor(0, nil)
	vectors, err := e.Extract(sampleTitles)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for i, v := range vectors {
		if w, ok := v.Weights["golang"]; ok && w != 0 {
			t.Errorf("vector %d: golang weight = %v, want 0", i, w)
		}
	}
}

func TestTermFrequencyNormalizedByLength(t *testing.T) {
	titles := []string{
		"kubernetes deployment services pods",
		"kubernetes networking",
		"docker images",
		"docker compose volumes",
		"terraform modules state",
	}
	e := NewExtractor(0, nil)
	vectors, err := e.Extract(titles)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// "kubernetes" has df=2 so idf=ln(5/2). In doc 0 tf=1/4, doc 1 tf=1/2.
	idf := math.Log(5.0 / 2.0)
	if got, want := vectors[0].Weights["kubernetes"], idf/4; math.Abs(got-want) > 1e-9 {
		t.Errorf("doc0 kubernetes = %v, want %v", got, want)
	}
	if got, want := vectors[1].Weights["kubernetes"], idf/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("doc1 kubernetes = %v, want %v", got, want)
	}
}

func TestVocabularyCap(t *testing.T) {
	titles := []string{
		"alpha bravo charlie delta",
		"echo foxtrot gulf hotel",
		"india juliet kilo lima",
		"mike november oscar papa",
		"quebec romeo sierra tango",
	}
	e := NewExtractor(3, nil)
	vectors, err := e.Extract(titles)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	seen := make(map[string]struct{})
	for _, v := range vectors {
		for term := range v.Weights {
			seen[term] = struct{}{}
		}
	}
	if len(seen) > 3 {
		t.Fatalf("vocabulary = %d terms, cap was 3", len(seen))
	}
}

func TestSimilarityMatrixSymmetry(t *testing.T) {
	e := NewExtractor(0, nil)
	vectors, err := e.Extract(sampleTitles)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	m := NewSimilarityMatrix(vectors)
	for i := 0; i < m.Len(); i++ {
		if m.At(i, i) != 1 {
			t.Errorf("diagonal At(%d,%d) = %v, want 1", i, i, m.At(i, i))
		}
		for j := 0; j < m.Len(); j++ {
			if m.At(i, j) != m.At(j, i) {
				t.Errorf("asymmetric at (%d,%d)", i, j)
			}
			if m.At(i, j) < 0 || m.At(i, j) > 1.0000001 {
				t.Errorf("At(%d,%d) = %v outside [0,1]", i, j, m.At(i, j))
			}
		}
	}
}

func TestMeanCentroid(t *testing.T) {
	a := NewVector(map[string]float64{"x": 1, "y": 3})
	b := NewVector(map[string]float64{"x": 3})
	c := Mean([]Vector{a, b})
	if c.Weights["x"] != 2 {
		t.Errorf("mean x = %v, want 2", c.Weights["x"])
	}
	if c.Weights["y"] != 1.5 {
		t.Errorf("mean y = %v, want 1.5", c.Weights["y"])
	}
	if Mean(nil).Norm() != 0 {
		t.Error("mean of no vectors should be zero vector")
	}
}

func TestClusterKeywords(t *testing.T) {
	vectors := []Vector{
		NewVector(map[string]float64{"sql": 2, "joins": 1}),
		NewVector(map[string]float64{"sql": 1, "indexes": 3}),
		NewVector(map[string]float64{"css": 5}),
	}
	keywords := ClusterKeywords(vectors, []int{0, 1}, 2)
	if len(keywords) != 2 {
		t.Fatalf("got %d keywords, want 2", len(keywords))
	}
	if keywords[0] != "indexes" && keywords[0] != "sql" {
		t.Errorf("unexpected top keyword %q", keywords[0])
	}
	for _, kw := range keywords {
		if kw == "css" {
			t.Error("keyword from non-member vector leaked in")
		}
	}
}

func TestClusterKeywordsSkipsLevelMarkers(t *testing.T) {
	vectors := []Vector{
		NewVector(map[string]float64{"intro": 2, "python": 1}),
		NewVector(map[string]float64{"basics": 3, "html": 1}),
	}
	keywords := ClusterKeywords(vectors, []int{0, 1}, 10)
	if len(keywords) != 2 {
		t.Fatalf("got keywords %v, want only the two topic terms", keywords)
	}
	for _, kw := range keywords {
		if kw == "intro" || kw == "basics" {
			t.Errorf("difficulty marker %q kept as a topic keyword", kw)
		}
	}
}

func TestCosineDistance(t *testing.T) {
	a := NewVector(map[string]float64{"x": 1})
	if d := a.CosineDistance(a); math.Abs(d) > 1e-12 {
		t.Errorf("self distance = %v, want 0", d)
	}
	b := NewVector(map[string]float64{"y": 1})
	if d := a.CosineDistance(b); d != 1 {
		t.Errorf("orthogonal distance = %v, want 1", d)
	}
}

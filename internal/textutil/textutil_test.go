package textutil

import (
	"math"
	"sort"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "Learning Golang Basics",
			want:  []string{"learning", "golang", "basics"},
		},
		{
			name:  "filters short and stop words",
			input: "a to the quick fox video",
			want:  []string{"quick", "fox"},
		},
		{
			name:  "handles punctuation",
			input: "Pointers, Slices & Maps!",
			want:  []string{"pointers", "slices", "maps"},
		},
		{
			name:  "folds diacritics",
			input: "Introducción a la programación",
			want:  []string{"introduccion", "programacion"},
		},
		{
			name:  "domain stop words",
			input: "Tutorial Part 12: Goroutines",
			want:  []string{"goroutines"},
		},
		{
			name:  "drops bare numbers",
			input: "2024 Edition 101 Basics",
			want:  []string{"edition", "basics"},
		},
		{
			name:  "keeps mixed alphanumerics",
			input: "Python3 Fundamentals",
			want:  []string{"python3", "fundamentals"},
		},
		{
			name:  "empty string",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"01_intro_to_golang", "01 intro to golang"},
		{"Lecture-05  Advanced   Topics", "Lecture 05 Advanced Topics"},
		{"  plain title  ", "plain title"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.input); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCosineSimilarityNilAndZero(t *testing.T) {
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("CosineSimilarity(nil, nil) = %v, want 0", got)
	}
	zero := &Fingerprint{tokens: map[string]float64{}, norm: 0}
	if got := CosineSimilarity(zero, NewFingerprint("hello world test")); got != 0 {
		t.Errorf("CosineSimilarity(zero norm) = %v, want 0", got)
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	text := "advanced concurrency patterns explained"
	if got := CosineSimilarity(NewFingerprint(text), NewFingerprint(text)); got != 1.0 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := NewFingerprint("channels select goroutines")
	b := NewFingerprint("goroutines channels testing")
	if ab, ba := CosineSimilarity(a, b), CosineSimilarity(b, a); ab != ba {
		t.Errorf("CosineSimilarity not symmetric: (%v, %v)", ab, ba)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	a := NewFingerprint("cooking pasta recipes")
	b := NewFingerprint("quantum physics entanglement")
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity(disjoint) = %v, want 0", got)
	}
}

func TestNewFingerprintNormCalculation(t *testing.T) {
	// "hello hello world" -> hello:2, world:1 -> norm = sqrt(5)
	fp := NewFingerprint("hello hello world")
	if fp == nil {
		t.Fatal("expected fingerprint")
	}
	expectedNorm := math.Sqrt(5)
	if math.Abs(fp.norm-expectedNorm) > 0.0001 {
		t.Errorf("norm = %v, want %v", fp.norm, expectedNorm)
	}
}

func TestNewFingerprintStopWordsOnly(t *testing.T) {
	if fp := NewFingerprint("the video part episode"); fp != nil {
		t.Error("expected nil for stop-word-only text")
	}
}

func TestCorpusIDF(t *testing.T) {
	corpus := NewCorpus()
	corpus.Add(NewFingerprint("golang concurrency goroutines"))
	corpus.Add(NewFingerprint("golang testing benchmarks"))
	corpus.Add(NewFingerprint("rust ownership lifetimes"))

	idf := corpus.IDF()
	if idf == nil {
		t.Fatal("expected IDF map")
	}
	// golang appears in 2 of 3 docs: log(4/3)
	want := math.Log(4.0 / 3.0)
	if math.Abs(idf["golang"]-want) > 0.0001 {
		t.Errorf("idf[golang] = %v, want %v", idf["golang"], want)
	}
	// rust appears once: log(4/2)
	if idf["rust"] <= idf["golang"] {
		t.Error("rarer term should carry higher IDF weight")
	}
}

func TestWithIDFReweights(t *testing.T) {
	fp := NewFingerprint("golang golang concurrency")
	weighted := fp.WithIDF(map[string]float64{"golang": 0.5, "concurrency": 2})
	if weighted == nil {
		t.Fatal("expected weighted fingerprint")
	}
	tokens := weighted.Tokens()
	if tokens["golang"] != 1.0 {
		t.Errorf("golang weight = %v, want 1.0", tokens["golang"])
	}
	if tokens["concurrency"] != 2.0 {
		t.Errorf("concurrency weight = %v, want 2.0", tokens["concurrency"])
	}
}

func TestNaturalLess(t *testing.T) {
	titles := []string{"Lesson 10", "Lesson 2", "Lesson 1", "lesson 21", "Intro"}
	sort.Slice(titles, func(i, j int) bool { return NaturalLess(titles[i], titles[j]) })
	want := []string{"Intro", "Lesson 1", "Lesson 2", "Lesson 10", "lesson 21"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", titles, want)
		}
	}
}

func TestNaturalLessLeadingZeros(t *testing.T) {
	if !NaturalLess("ep 02", "ep 10") {
		t.Error("ep 02 should sort before ep 10")
	}
	if NaturalLess("ep 10", "ep 02") {
		t.Error("ep 10 should not sort before ep 02")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"My Course: Part 1", "My Course- Part 1"},
		{`what/why\how`, "what-why-how"},
		{"quotes\"and<angles>", "quotesandangles"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.input); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

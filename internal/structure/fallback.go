package structure

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/logging"
	"coursepilot/internal/sequence"
	"coursepilot/internal/textutil"
)

var explicitModulePattern = regexp.MustCompile(`(?i)\b(?:module|unit|chapter)\s*#?\s*0*(\d{1,3})\b`)

const fallbackChunkSize = 8

// fallbackStructure applies rule-based grouping when detection was
// inconclusive: explicit module markers first, then shared keywords, then
// fixed-size parts. Order inside each group follows the source.
func (b *Builder) fallbackStructure(videos []course.VideoMetadata, titles []string, detection *sequence.Result) *course.Structure {
	var modules []course.Module
	var rule string

	if grouped := groupByExplicitModules(videos, titles); grouped != nil {
		modules, rule = grouped, "explicit_modules"
	} else if grouped := groupBySharedKeyword(videos, titles); grouped != nil {
		modules, rule = grouped, "shared_keywords"
	} else if len(videos) > fallbackChunkSize {
		modules, rule = chunkIntoParts(videos), "fixed_chunks"
	}

	var structure *course.Structure
	if modules == nil {
		structure = b.sequentialStructure(videos, detection, string(sequence.RecommendFallbackProcessing))
	} else {
		structure = &course.Structure{Modules: modules}
		b.fillMetadata(structure, videos, detection, true, string(sequence.RecommendFallbackProcessing))
	}
	b.logger.Info("fallback structuring applied",
		logging.String("rule", rule),
		logging.Int("modules", len(structure.Modules)))
	return structure
}

// groupByExplicitModules honors module markers authored into the titles.
// Requires markers on at least half the titles spanning at least two modules.
func groupByExplicitModules(videos []course.VideoMetadata, titles []string) []course.Module {
	groups := make(map[int][]int)
	matched := 0
	for i, title := range titles {
		m := explicitModulePattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		groups[n] = append(groups[n], i)
		matched++
	}
	if matched*2 < len(titles) || len(groups) < 2 {
		return nil
	}

	numbers := make([]int, 0, len(groups))
	for n := range groups {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	assigned := make(map[int]struct{})
	modules := make([]course.Module, 0, len(numbers)+1)
	for _, n := range numbers {
		modules = append(modules, moduleFromIndices(fmt.Sprintf("Module %d", n), videos, groups[n]))
		for _, idx := range groups[n] {
			assigned[idx] = struct{}{}
		}
	}
	if rest := unassignedIndices(len(videos), assigned); len(rest) > 0 {
		modules = append(modules, moduleFromIndices("Additional Content", videos, rest))
	}
	return modules
}

// groupBySharedKeyword buckets titles by their most distinctive shared token.
// Applies only when the buckets cover most of the course.
func groupBySharedKeyword(videos []course.VideoMetadata, titles []string) []course.Module {
	tokenDocs := make(map[string][]int)
	for i, title := range titles {
		seen := make(map[string]struct{})
		for _, token := range textutil.Tokenize(title) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			tokenDocs[token] = append(tokenDocs[token], i)
		}
	}

	// Candidate keywords appear in 2 or more titles but not in all of them.
	type bucket struct {
		token   string
		indices []int
	}
	var candidates []bucket
	for token, docs := range tokenDocs {
		if len(docs) >= 2 && len(docs) < len(titles) {
			candidates = append(candidates, bucket{token, docs})
		}
	}
	if len(candidates) < 2 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].indices) != len(candidates[j].indices) {
			return len(candidates[i].indices) > len(candidates[j].indices)
		}
		return candidates[i].token < candidates[j].token
	})

	assigned := make(map[int]struct{})
	var modules []course.Module
	for _, c := range candidates {
		var fresh []int
		for _, idx := range c.indices {
			if _, taken := assigned[idx]; !taken {
				fresh = append(fresh, idx)
			}
		}
		if len(fresh) < 2 {
			continue
		}
		modules = append(modules, moduleFromIndices(titleCaser.String(c.token), videos, fresh))
		for _, idx := range fresh {
			assigned[idx] = struct{}{}
		}
	}
	if len(modules) < 2 || len(assigned)*2 < len(videos) {
		return nil
	}
	if rest := unassignedIndices(len(videos), assigned); len(rest) > 0 {
		modules = append(modules, moduleFromIndices("Additional Content", videos, rest))
	}
	return modules
}

// chunkIntoParts slices the course into fixed-size sequential parts.
func chunkIntoParts(videos []course.VideoMetadata) []course.Module {
	var modules []course.Module
	for start := 0; start < len(videos); start += fallbackChunkSize {
		end := start + fallbackChunkSize
		if end > len(videos) {
			end = len(videos)
		}
		indices := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			indices = append(indices, i)
		}
		modules = append(modules, moduleFromIndices(fmt.Sprintf("Part %d", len(modules)+1), videos, indices))
	}
	return modules
}

func moduleFromIndices(title string, videos []course.VideoMetadata, indices []int) course.Module {
	sections := make([]course.Section, 0, len(indices))
	for _, idx := range indices {
		var d time.Duration
		if videos[idx].DurationSeconds != nil {
			d = time.Duration(*videos[idx].DurationSeconds * float64(time.Second))
		}
		sections = append(sections, course.Section{
			Title:      videos[idx].Title,
			VideoIndex: idx,
			Duration:   d,
		})
	}
	return course.NewModule(title, sections)
}

func unassignedIndices(n int, assigned map[int]struct{}) []int {
	var rest []int
	for i := 0; i < n; i++ {
		if _, ok := assigned[i]; !ok {
			rest = append(rest, i)
		}
	}
	return rest
}

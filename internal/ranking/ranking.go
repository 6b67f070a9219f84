// Package ranking orders, ranks, and deduplicates chapter results. Every
// function here is pure: no I/O, deterministic for a fixed input, safe to
// invoke concurrently from independent viewers.
package ranking

import (
	"math"
	"sort"

	"quiztians/internal/domain"
)

// timeInfinity is the single sentinel for an absent time_taken; a result
// with no recorded time always loses the time tie-break.
const timeInfinity = int64(math.MaxInt64)

// Ranked is a result annotated with its standings position.
type Ranked struct {
	domain.Result
	Rank      int  `json:"rank"`
	Duplicate bool `json:"duplicate"`
}

// Stats summarizes a result set.
type Stats struct {
	Participants int                `json:"participants"`
	AverageScore float64            `json:"averageScore"`
	FastestTime  *int               `json:"fastestTime,omitempty"`
	ChapterAvg   map[string]float64 `json:"chapterAverage,omitempty"`
}

func timeOrInfinity(r domain.Result) int64 {
	if r.TimeTaken == nil {
		return timeInfinity
	}
	return int64(*r.TimeTaken)
}

// precedes is the full ordering key: score descending, time ascending with
// absent treated as infinite, earliest submission last.
func precedes(a, b domain.Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	ta, tb := timeOrInfinity(a), timeOrInfinity(b)
	if ta != tb {
		return ta < tb
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func sameKey(a, b domain.Result) bool {
	return a.Score == b.Score &&
		timeOrInfinity(a) == timeOrInfinity(b) &&
		a.CreatedAt.Equal(b.CreatedAt)
}

// Rank orders the results and assigns rank numbers. The rank of an entry
// is one plus the count of entries strictly ordered before it, so fully
// tied entries share a rank. The input slice is not modified.
func Rank(results []domain.Result) []Ranked {
	sorted := make([]domain.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return precedes(sorted[i], sorted[j])
	})

	occurrences := make(map[string]int, len(sorted))
	for _, r := range sorted {
		occurrences[r.Phone]++
	}

	ranked := make([]Ranked, len(sorted))
	for i, r := range sorted {
		rank := i + 1
		if i > 0 && sameKey(r, sorted[i-1]) {
			rank = ranked[i-1].Rank
		}
		ranked[i] = Ranked{
			Result:    r,
			Rank:      rank,
			Duplicate: occurrences[r.Phone] > 1,
		}
	}
	return ranked
}

// TopN returns the first n ranked entries.
func TopN(results []domain.Result, n int) []Ranked {
	ranked := Rank(results)
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// BestOf collapses repeated attempts to each participant's best result
// (max score, then min time, then earliest) and ranks the survivors.
func BestOf(results []domain.Result) []Ranked {
	best := make(map[string]domain.Result, len(results))
	for _, r := range results {
		current, ok := best[r.Phone]
		if !ok || precedes(r, current) {
			best[r.Phone] = r
		}
	}
	collapsed := make([]domain.Result, 0, len(best))
	for _, r := range best {
		collapsed = append(collapsed, r)
	}
	// Map iteration order is random; restore input order before ranking so
	// the output stays deterministic.
	sort.SliceStable(collapsed, func(i, j int) bool {
		return collapsed[i].Phone < collapsed[j].Phone
	})
	return Rank(collapsed)
}

// Summarize computes descriptive aggregates over a result set.
func Summarize(results []domain.Result) Stats {
	stats := Stats{ChapterAvg: make(map[string]float64)}
	if len(results) == 0 {
		return stats
	}

	phones := make(map[string]struct{}, len(results))
	perChapterTotal := make(map[string]int)
	perChapterCount := make(map[string]int)
	scoreSum := 0
	for _, r := range results {
		phones[r.Phone] = struct{}{}
		scoreSum += r.Score
		perChapterTotal[r.ChapterID] += r.Score
		perChapterCount[r.ChapterID]++
		if r.TimeTaken != nil {
			if stats.FastestTime == nil || *r.TimeTaken < *stats.FastestTime {
				t := *r.TimeTaken
				stats.FastestTime = &t
			}
		}
	}

	stats.Participants = len(phones)
	stats.AverageScore = float64(scoreSum) / float64(len(results))
	for chapter, total := range perChapterTotal {
		stats.ChapterAvg[chapter] = float64(total) / float64(perChapterCount[chapter])
	}
	return stats
}

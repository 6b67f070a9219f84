package ranking_test

import (
	"reflect"
	"testing"
	"time"

	"quiztians/internal/domain"
	"quiztians/internal/ranking"
)

func result(phone string, score int, timeTaken *int, createdAt time.Time) domain.Result {
	return domain.Result{
		Phone:     phone,
		Name:      "P" + phone,
		Place:     "Chennai",
		ChapterID: "chapter-1",
		Score:     score,
		Total:     10,
		TimeTaken: timeTaken,
		CreatedAt: createdAt,
	}
}

func seconds(n int) *int { return &n }

func TestRankOrdersByScoreTimeAndSubmission(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	results := []domain.Result{
		result("1000000001", 8, seconds(120), base),
		result("1000000002", 8, seconds(90), base.Add(time.Minute)),
		result("1000000003", 9, seconds(200), base.Add(2*time.Minute)),
	}

	ranked := ranking.Rank(results)
	got := []string{ranked[0].Phone, ranked[1].Phone, ranked[2].Phone}
	want := []string{"1000000003", "1000000002", "1000000001"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
	if ranked[1].Rank != 2 {
		t.Fatalf("expected second entry rank 2, got %d", ranked[1].Rank)
	}
}

func TestRankTreatsMissingTimeAsInfinite(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	results := []domain.Result{
		result("1000000001", 5, nil, base),
		result("1000000002", 5, seconds(400), base.Add(time.Hour)),
	}

	ranked := ranking.Rank(results)
	if ranked[0].Phone != "1000000002" {
		t.Fatalf("expected timed result first, got %s", ranked[0].Phone)
	}
}

func TestRankBreaksFullTieByEarliestSubmission(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	results := []domain.Result{
		result("1000000001", 7, seconds(100), base.Add(time.Minute)),
		result("1000000002", 7, seconds(100), base),
	}

	ranked := ranking.Rank(results)
	if ranked[0].Phone != "1000000002" {
		t.Fatalf("expected earliest submission first, got %s", ranked[0].Phone)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Fatalf("expected ranks 1,2, got %d,%d", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	results := []domain.Result{
		result("1000000001", 6, seconds(50), base),
		result("1000000002", 6, seconds(50), base), // fully tied with the first
		result("1000000003", 2, nil, base),
	}

	first := ranking.Rank(results)
	second := ranking.Rank(results)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output across invocations")
	}
	// Fully tied entries share a rank.
	if first[0].Rank != 1 || first[1].Rank != 1 {
		t.Fatalf("expected shared rank 1 for tied entries, got %d,%d", first[0].Rank, first[1].Rank)
	}
	if first[2].Rank != 3 {
		t.Fatalf("expected rank 3 after a two-way tie, got %d", first[2].Rank)
	}
}

func TestRankContiguityProperty(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	results := []domain.Result{
		result("1000000001", 3, seconds(10), base),
		result("1000000002", 9, nil, base.Add(time.Second)),
		result("1000000003", 9, seconds(80), base.Add(2*time.Second)),
		result("1000000004", 1, seconds(80), base.Add(3*time.Second)),
		result("1000000005", 3, seconds(10), base),
	}

	ranked := ranking.Rank(results)
	if ranked[0].Rank != 1 {
		t.Fatalf("ranks must start at 1, got %d", ranked[0].Rank)
	}
	for i, r := range ranked {
		// rank == 1 + count of entries strictly ordered before it, which
		// for a sorted slice is the index of the first entry sharing its key.
		expected := i + 1
		for j := i - 1; j >= 0; j-- {
			if ranked[j].Score == r.Score && ranked[j].CreatedAt.Equal(r.CreatedAt) &&
				timesEqual(ranked[j].TimeTaken, r.TimeTaken) {
				expected = ranked[j].Rank
			} else {
				break
			}
		}
		if r.Rank != expected {
			t.Fatalf("entry %d: expected rank %d, got %d", i, expected, r.Rank)
		}
	}
}

func timesEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestDuplicateDetection(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	shared := "9999999999"
	results := []domain.Result{
		result(shared, 4, seconds(100), base),
		result(shared, 6, seconds(90), base.Add(time.Minute)),
		result("1234567890", 5, seconds(80), base),
	}

	ranked := ranking.Rank(results)
	for _, r := range ranked {
		wantDup := r.Phone == shared
		if r.Duplicate != wantDup {
			t.Fatalf("phone %s: expected duplicate=%v, got %v", r.Phone, wantDup, r.Duplicate)
		}
	}
}

func TestTopN(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	results := []domain.Result{
		result("1000000001", 1, seconds(10), base),
		result("1000000002", 2, seconds(10), base),
		result("1000000003", 3, seconds(10), base),
	}

	top := ranking.TopN(results, 2)
	if len(top) != 2 || top[0].Score != 3 || top[1].Score != 2 {
		t.Fatalf("unexpected top slice: %+v", top)
	}
	if got := ranking.TopN(results, 10); len(got) != 3 {
		t.Fatalf("expected clamp to input size, got %d", len(got))
	}
}

func TestBestOfCollapsesRepeatedAttempts(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	results := []domain.Result{
		result("9999999999", 4, seconds(100), base),
		result("9999999999", 6, seconds(300), base.Add(time.Minute)),
		result("9999999999", 6, seconds(120), base.Add(2*time.Minute)),
		result("1234567890", 5, seconds(80), base),
	}

	best := ranking.BestOf(results)
	if len(best) != 2 {
		t.Fatalf("expected one entry per phone, got %d", len(best))
	}
	if best[0].Phone != "9999999999" || best[0].Score != 6 || *best[0].TimeTaken != 120 {
		t.Fatalf("expected best attempt (score 6, 120s) first, got %+v", best[0])
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	other := result("2000000001", 4, nil, base)
	other.ChapterID = "chapter-2"
	results := []domain.Result{
		result("1000000001", 8, seconds(120), base),
		result("1000000002", 6, seconds(60), base),
		other,
	}

	stats := ranking.Summarize(results)
	if stats.Participants != 3 {
		t.Fatalf("expected 3 participants, got %d", stats.Participants)
	}
	if stats.AverageScore != 6 {
		t.Fatalf("expected average 6, got %f", stats.AverageScore)
	}
	if stats.FastestTime == nil || *stats.FastestTime != 60 {
		t.Fatalf("expected fastest time 60, got %v", stats.FastestTime)
	}
	if stats.ChapterAvg["chapter-1"] != 7 || stats.ChapterAvg["chapter-2"] != 4 {
		t.Fatalf("unexpected chapter averages: %v", stats.ChapterAvg)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := ranking.Summarize(nil)
	if stats.Participants != 0 || stats.FastestTime != nil {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

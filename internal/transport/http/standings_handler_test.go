package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"quiztians/internal/domain"
	"quiztians/internal/infra/memory"
)

func seedResults(t *testing.T, store *memory.ResultStore) {
	t.Helper()
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	seconds := func(n int) *int { return &n }
	for _, r := range []domain.Result{
		{Phone: "1000000001", Name: "A", Place: "Salem", ChapterID: "chapter-1", Score: 8, Total: 10, TimeTaken: seconds(120), CreatedAt: base},
		{Phone: "1000000002", Name: "B", Place: "Erode", ChapterID: "chapter-1", Score: 8, Total: 10, TimeTaken: seconds(90), CreatedAt: base},
		{Phone: "1000000003", Name: "C", Place: "Karur", ChapterID: "chapter-1", Score: 9, Total: 10, TimeTaken: seconds(200), CreatedAt: base},
	} {
		if err := store.Insert(context.Background(), r); err != nil {
			t.Fatalf("seed %s: %v", r.Phone, err)
		}
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	seedResults(t, store)

	resp, err := http.Get(server.URL + "/api/chapters/chapter-1/leaderboard?limit=2")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var entries []struct {
		Phone string `json:"phone"`
		Rank  int    `json:"rank"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Phone != "1000000003" || entries[1].Phone != "1000000002" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[1].Rank != 2 {
		t.Fatalf("expected rank 2 for second entry, got %d", entries[1].Rank)
	}
}

func TestStatsEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	seedResults(t, store)

	resp, err := http.Get(server.URL + "/api/chapters/chapter-1/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()

	var stats struct {
		Participants int     `json:"participants"`
		AverageScore float64 `json:"averageScore"`
		FastestTime  *int    `json:"fastestTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Participants != 3 {
		t.Fatalf("expected 3 participants, got %d", stats.Participants)
	}
	if stats.FastestTime == nil || *stats.FastestTime != 90 {
		t.Fatalf("expected fastest time 90, got %v", stats.FastestTime)
	}
}

func TestStandingsWebSocketPushesOnChange(t *testing.T) {
	server, store := newTestServer(t)

	conn := dialWS(t, server, "/ws/standings?chapter=chapter-1")

	msgType, payload := readNext(t, conn)
	if msgType != "standings" {
		t.Fatalf("expected initial standings, got %s", msgType)
	}
	if entries, _ := payload["entries"].([]any); len(entries) != 0 {
		t.Fatalf("expected empty initial standings, got %+v", payload)
	}

	tt := 45
	if err := store.Insert(context.Background(), domain.Result{
		Phone: "1000000001", Name: "A", Place: "Salem", ChapterID: "chapter-1",
		Score: 6, Total: 10, TimeTaken: &tt, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	msgType, payload = readNext(t, conn)
	if msgType != "standings" {
		t.Fatalf("expected refreshed standings, got %s", msgType)
	}
	entries, _ := payload["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after change, got %d", len(entries))
	}
}

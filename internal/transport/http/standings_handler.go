package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"quiztians/internal/app"
)

const defaultTop = 10

// StandingsHandler serves ranked chapter standings: REST snapshots plus a
// websocket that pushes a fresh snapshot on every result-set change.
type StandingsHandler struct {
	standings *app.StandingsService
	upgrader  websocket.Upgrader
}

func NewStandingsHandler(standings *app.StandingsService) *StandingsHandler {
	return &StandingsHandler{
		standings: standings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Leaderboard handles GET /api/chapters/{chapterID}/leaderboard?limit=N.
func (h *StandingsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	chapterID := mux.Vars(r)["chapterID"]
	limit := defaultTop
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.standings.Top(r.Context(), chapterID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

// Stats handles GET /api/chapters/{chapterID}/stats.
func (h *StandingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	chapterID := mux.Vars(r)["chapterID"]
	stats, err := h.standings.Stats(r.Context(), chapterID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// ServeWS handles /ws/standings?chapter= and streams live snapshots.
func (h *StandingsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapter")
	if chapterID == "" {
		http.Error(w, "missing chapter", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshots, cancel, err := h.standings.Watch(r.Context(), chapterID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	// Reader exists only to notice the viewer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[app.Standings]{Type: "standings", Payload: snapshot}); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

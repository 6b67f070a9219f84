package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter assembles the HTTP surface: websocket session and standings
// endpoints plus the REST views ranking consumers poll.
func NewRouter(sessions *SessionHandler, standings *StandingsHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.HandleFunc("/ws/session", sessions.ServeWS)
	router.HandleFunc("/ws/standings", standings.ServeWS)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chapters/{chapterID}/leaderboard", standings.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/chapters/{chapterID}/stats", standings.Stats).Methods(http.MethodGet)
	return router
}

package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"quiztians/internal/app"
	"quiztians/internal/domain"
	"quiztians/internal/session"
)

// SessionHandler drives quiz sessions over a websocket. The client sends
// answers, the manual submit, and intercepted navigation events; the
// server pushes questions, ticks, warnings, and the terminal outcome.
type SessionHandler struct {
	sessions *app.SessionFactory
	upgrader websocket.Upgrader
}

func NewSessionHandler(sessions *app.SessionFactory) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type navigationPayload struct {
	Kind string `json:"kind"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one session for the connection.
func (h *SessionHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := app.StartRequest{
		Participant: domain.Participant{
			Name:     query.Get("name"),
			Phone:    query.Get("phone"),
			Place:    query.Get("place"),
			Language: domain.Language(query.Get("lang")),
		},
		ChapterID: query.Get("chapter"),
		Preview:   query.Get("preview") == "1",
	}
	if req.ChapterID == "" {
		http.Error(w, "missing chapter", http.StatusBadRequest)
		return
	}
	if minutes, err := strconv.Atoi(query.Get("minutes")); err == nil && minutes > 0 {
		req.Duration = time.Duration(minutes) * time.Minute
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctrl, err := h.sessions.Start(r.Context(), req)
	if err != nil {
		writeStartError(conn, err)
		return
	}
	// Single writer goroutine; updates and error feedback share one channel.
	send := make(chan any, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	updatesDone := make(chan struct{})
	go func() {
		defer close(updatesDone)
		for update := range ctrl.Updates() {
			select {
			case send <- outboundMessage[session.Update]{Type: string(update.Kind), Payload: update}:
			case <-writerDone:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			ctrl.Answer(payload.Option)
		case "submit":
			ctrl.Submit()
		case "navigation":
			var payload navigationPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid navigation payload"}}
				continue
			}
			ctrl.Navigate(session.NavKind(payload.Kind))
		default:
			send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		if ctrl.State() == session.StateSubmitted {
			// Drain remaining updates before closing the writer.
			break
		}
	}

	// Closing the session ends its event loop and closes Updates(), so the
	// pump drains out even when nothing flows to the writer (a disconnected
	// preview session produces no ticks).
	ctrl.Close()
	<-updatesDone
	close(send)
	<-writerDone
}

func writeStartError(conn *websocket.Conn, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateAttempt):
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "alreadyAttempted", Payload: errorPayload{Message: err.Error()}})
	default:
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}
}

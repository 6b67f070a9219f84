package session

import "quiztians/internal/domain"

// EventKind discriminates the messages feeding the controller loop.
type EventKind string

const (
	EventTick     EventKind = "tick"
	EventExpire   EventKind = "expire"
	EventAnswer   EventKind = "answer"
	EventAdvance  EventKind = "advance"
	EventNavigate EventKind = "navigate"
	EventSubmit   EventKind = "submit"
)

// Event is one discrete step against session state. Timer ticks, user
// interaction, and navigation interceptions all arrive through the same
// channel, so no two handlers ever mutate the session concurrently.
type Event struct {
	Kind   EventKind
	Option string
	Nav    NavKind
}

// UpdateKind discriminates outbound session updates.
type UpdateKind string

const (
	UpdateQuestion UpdateKind = "question"
	UpdateTick     UpdateKind = "tick"
	UpdateWarning  UpdateKind = "warning"
	UpdateFinished UpdateKind = "finished"
)

// QuestionView is the current question rendered in the participant's
// language. The correct answer is never included.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Locked  bool     `json:"locked"`
	Last    bool     `json:"last"`
}

// Update is pushed to the transport as the session progresses.
type Update struct {
	Kind      UpdateKind      `json:"kind"`
	Question  *QuestionView   `json:"question,omitempty"`
	Remaining int             `json:"remaining,omitempty"`
	Fraction  float64         `json:"fraction,omitempty"`
	Message   string          `json:"message,omitempty"`
	Outcome   *domain.Outcome `json:"outcome,omitempty"`
}

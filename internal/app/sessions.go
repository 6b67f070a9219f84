package app

import (
	"context"
	"time"

	"quiztians/internal/domain"
	"quiztians/internal/session"
)

// SessionDefaults carries configured session parameters.
type SessionDefaults struct {
	Duration     time.Duration
	AdvanceDelay time.Duration
}

// SessionFactory validates participants and boots session controllers with
// the shared infrastructure wiring.
type SessionFactory struct {
	bank     session.QuestionBank
	results  session.ResultStore
	kv       session.KV
	defaults SessionDefaults
}

func NewSessionFactory(bank session.QuestionBank, results session.ResultStore, kv session.KV, defaults SessionDefaults) *SessionFactory {
	return &SessionFactory{bank: bank, results: results, kv: kv, defaults: defaults}
}

// StartRequest is the entry bundle for a new session.
type StartRequest struct {
	Participant domain.Participant
	ChapterID   string
	Duration    time.Duration // zero means the configured default
	Preview     bool
}

// Start validates the request and bootstraps a controller. Validation and
// bootstrap errors happen before Active and are surfaced to the caller.
func (f *SessionFactory) Start(ctx context.Context, req StartRequest) (*session.Controller, error) {
	if err := req.Participant.Validate(); err != nil {
		return nil, err
	}

	duration := req.Duration
	if duration <= 0 {
		duration = f.defaults.Duration
	}

	ctrl := session.NewController(
		f.bank,
		f.results,
		session.NewAttemptGuard(f.results, f.kv),
		session.NewRecoveryStage(f.kv, f.results),
		session.Params{
			Participant:  req.Participant,
			ChapterID:    req.ChapterID,
			Duration:     duration,
			AdvanceDelay: f.defaults.AdvanceDelay,
			Preview:      req.Preview,
		},
	)
	if err := ctrl.Start(ctx); err != nil {
		return ctrl, err
	}
	return ctrl, nil
}

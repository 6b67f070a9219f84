package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiztians/internal/domain"
)

// RecoveryStage bridges a submit decision and its acknowledged write. The
// full result payload is staged in the device-local KV before the network
// write goes out; a staged payload that survives a reload is replayed on
// the next bootstrap. Together with the attempt guard's marker this gives
// at-least-once delivery for forced submissions without a duplicate
// visible session.
type RecoveryStage struct {
	kv      KV
	results ResultStore
}

func NewRecoveryStage(kv KV, results ResultStore) *RecoveryStage {
	return &RecoveryStage{kv: kv, results: results}
}

// Stage serializes the result into the durable store.
func (s *RecoveryStage) Stage(ctx context.Context, result domain.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("stage result: %w", err)
	}
	return s.kv.Put(ctx, stageKey(result.Phone, result.ChapterID), payload)
}

// Clear drops the staged payload once the write is acknowledged.
func (s *RecoveryStage) Clear(ctx context.Context, phone, chapterID string) error {
	return s.kv.Delete(ctx, stageKey(phone, chapterID))
}

// Replay pushes a staged-but-unacknowledged payload through the result
// store. Called first on every bootstrap, before the new session decision.
// A duplicate-attempt rejection means the earlier write actually landed,
// so the stage is cleared in that case too.
func (s *RecoveryStage) Replay(ctx context.Context, phone, chapterID string) error {
	payload, err := s.kv.Get(ctx, stageKey(phone, chapterID))
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}

	var result domain.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		// Unreadable payloads cannot be replayed; drop them.
		return s.kv.Delete(ctx, stageKey(phone, chapterID))
	}

	if err := s.results.Insert(ctx, result); err != nil && !errors.Is(err, domain.ErrDuplicateAttempt) {
		return err
	}
	return s.kv.Delete(ctx, stageKey(phone, chapterID))
}

func stageKey(phone, chapterID string) string {
	return fmt.Sprintf("stage:%s:%s", phone, chapterID)
}

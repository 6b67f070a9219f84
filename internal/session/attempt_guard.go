package session

import (
	"context"
	"fmt"
)

// Verdict is the attempt guard's gate decision.
type Verdict int

const (
	Allow Verdict = iota
	Deny
)

// AttemptGuard decides whether a (phone, chapter) pair may start a session.
// It consults a device-local marker first so a same-device re-entry after a
// successful submission is rejected without a network round trip, and falls
// back to one ResultStore read per entry attempt.
type AttemptGuard struct {
	results ResultStore
	markers KV
}

func NewAttemptGuard(results ResultStore, markers KV) *AttemptGuard {
	return &AttemptGuard{results: results, markers: markers}
}

// Evaluate gates an entry attempt. Store errors are treated as Allow so a
// flaky read cannot lock a participant out; the storage-level uniqueness
// constraint still rejects an actual duplicate at write time.
func (g *AttemptGuard) Evaluate(ctx context.Context, phone, chapterID string) (Verdict, error) {
	marker, err := g.markers.Get(ctx, markerKey(phone, chapterID))
	if err == nil && marker != nil {
		return Deny, nil
	}

	existing, err := g.results.FindByIdentity(ctx, phone, chapterID)
	if err != nil {
		return Allow, err
	}
	if existing != nil {
		return Deny, nil
	}
	return Allow, nil
}

// MarkSubmitted records the local short-circuit marker after a submission
// has been dispatched for (phone, chapter).
func (g *AttemptGuard) MarkSubmitted(ctx context.Context, phone, chapterID string) error {
	return g.markers.Put(ctx, markerKey(phone, chapterID), []byte("1"))
}

func markerKey(phone, chapterID string) string {
	return fmt.Sprintf("attempt:%s:%s", phone, chapterID)
}

package memory

import (
	"context"
	"sync"

	"quiztians/internal/domain"
)

// ResultStore is an in-memory result store with a built-in change feed.
// The (phone, chapter) uniqueness constraint is the map key itself, the
// same guarantee the postgres store gets from its unique index.
type ResultStore struct {
	mu          sync.RWMutex
	results     map[string]domain.Result
	subscribers map[chan domain.ChangeEvent]struct{}
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results:     make(map[string]domain.Result),
		subscribers: make(map[chan domain.ChangeEvent]struct{}),
	}
}

func (s *ResultStore) FindByIdentity(_ context.Context, phone, chapterID string) (*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if result, ok := s.results[identityKey(phone, chapterID)]; ok {
		copied := result
		return &copied, nil
	}
	return nil, nil
}

func (s *ResultStore) Insert(_ context.Context, result domain.Result) error {
	key := identityKey(result.Phone, result.ChapterID)

	s.mu.Lock()
	if _, exists := s.results[key]; exists {
		s.mu.Unlock()
		return domain.ErrDuplicateAttempt
	}
	s.results[key] = result
	event := domain.ChangeEvent{ChapterID: result.ChapterID, Phone: result.Phone, At: result.CreatedAt}
	s.notifyLocked(event)
	s.mu.Unlock()
	return nil
}

func (s *ResultStore) QueryByChapter(_ context.Context, chapterID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, 0)
	for _, result := range s.results {
		if result.ChapterID == chapterID {
			results = append(results, result)
		}
	}
	return results, nil
}

// Subscribe returns a channel of change events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *ResultStore) Subscribe(_ context.Context) (<-chan domain.ChangeEvent, func(), error) {
	ch := make(chan domain.ChangeEvent, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *ResultStore) notifyLocked(event domain.ChangeEvent) {
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest pending event so a slow viewer cannot block inserts.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func identityKey(phone, chapterID string) string {
	return phone + ":" + chapterID
}

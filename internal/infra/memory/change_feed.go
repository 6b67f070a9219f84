package memory

import (
	"context"
	"sync"

	"quiztians/internal/domain"
)

// ChangeFeed is an in-process result change broadcaster, used when the
// result store lives in Postgres but no Redis is configured to fan events
// across nodes.
type ChangeFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.ChangeEvent]struct{}
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subscribers: make(map[chan domain.ChangeEvent]struct{})}
}

func (f *ChangeFeed) Publish(_ context.Context, event domain.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

func (f *ChangeFeed) Subscribe(_ context.Context) (<-chan domain.ChangeEvent, func(), error) {
	ch := make(chan domain.ChangeEvent, 8)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

package app

import (
	"context"
	"log"
	"sync"
	"time"

	"quiztians/internal/domain"
	"quiztians/internal/ranking"
)

// ResultSource is the read side of the persisted result set.
type ResultSource interface {
	QueryByChapter(ctx context.Context, chapterID string) ([]domain.Result, error)
}

// ChangeFeed streams result-set change notifications.
type ChangeFeed interface {
	Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, func(), error)
}

// Standings is one ranked snapshot for a chapter.
type Standings struct {
	ChapterID string           `json:"chapterId"`
	Entries   []ranking.Ranked `json:"entries"`
	Stats     ranking.Stats    `json:"stats"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// StandingsService computes ranked chapter standings on demand and fans
// live snapshots out to viewers as the underlying result set changes. The
// ranking itself is pure, so concurrent viewers never interfere.
type StandingsService struct {
	source ResultSource
	feed   ChangeFeed
	now    func() time.Time

	mu      sync.Mutex
	started bool
	viewers map[chan Standings]string // chan -> chapter filter
	cancel  func()
}

func NewStandingsService(source ResultSource, feed ChangeFeed) *StandingsService {
	return &StandingsService{
		source:  source,
		feed:    feed,
		now:     time.Now,
		viewers: make(map[chan Standings]string),
	}
}

// Standings returns the full ranked snapshot for a chapter.
func (s *StandingsService) Standings(ctx context.Context, chapterID string) (Standings, error) {
	results, err := s.source.QueryByChapter(ctx, chapterID)
	if err != nil {
		return Standings{}, err
	}
	return Standings{
		ChapterID: chapterID,
		Entries:   ranking.Rank(results),
		Stats:     ranking.Summarize(results),
		UpdatedAt: s.now(),
	}, nil
}

// Top returns the first n ranked entries for a chapter.
func (s *StandingsService) Top(ctx context.Context, chapterID string, n int) ([]ranking.Ranked, error) {
	results, err := s.source.QueryByChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	return ranking.TopN(results, n), nil
}

// Stats returns the descriptive aggregates for a chapter.
func (s *StandingsService) Stats(ctx context.Context, chapterID string) (ranking.Stats, error) {
	results, err := s.source.QueryByChapter(ctx, chapterID)
	if err != nil {
		return ranking.Stats{}, err
	}
	return ranking.Summarize(results), nil
}

// Watch delivers an initial snapshot followed by a fresh snapshot whenever
// the chapter's result set changes. The caller must invoke the returned
// cancel function to avoid leaks.
func (s *StandingsService) Watch(ctx context.Context, chapterID string) (<-chan Standings, func(), error) {
	if err := s.ensureFeed(ctx); err != nil {
		return nil, nil, err
	}

	initial, err := s.Standings(ctx, chapterID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan Standings, 8)
	s.mu.Lock()
	s.viewers[ch] = chapterID
	s.mu.Unlock()
	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.viewers[ch]; ok {
			delete(s.viewers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// ensureFeed lazily starts the single change-feed pump shared by all viewers.
func (s *StandingsService) ensureFeed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	events, cancel, err := s.feed.Subscribe(context.Background())
	if err != nil {
		return err
	}
	s.started = true
	s.cancel = cancel

	go func() {
		for event := range events {
			s.refresh(event.ChapterID)
		}
	}()
	return nil
}

func (s *StandingsService) refresh(chapterID string) {
	snapshot, err := s.Standings(context.Background(), chapterID)
	if err != nil {
		log.Printf("standings refresh %s: %v", chapterID, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch, filter := range s.viewers {
		if filter != chapterID {
			continue
		}
		select {
		case ch <- snapshot:
		default:
			// Drop the stale pending snapshot so a slow viewer never
			// blocks the pump.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Close stops the change-feed pump.
func (s *StandingsService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.started = false
}

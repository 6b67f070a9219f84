package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiztians/internal/domain"
)

// ChapterLoader fetches chapter content from a backing store.
type ChapterLoader interface {
	LoadChapter(ctx context.Context, chapterID string) (domain.Chapter, error)
}

// QuestionBank caches chapter question sets with TTL to avoid repeated
// backing-store hits while many sessions open the same chapter.
type QuestionBank struct {
	loader ChapterLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedChapter
}

type cachedChapter struct {
	chapter   domain.Chapter
	expiresAt time.Time
}

func NewQuestionBank(loader ChapterLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedChapter),
	}
}

func (b *QuestionBank) FetchByChapter(ctx context.Context, chapterID string) ([]domain.Question, error) {
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[chapterID]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry.chapter.Questions, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(chapterID, func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[chapterID]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.chapter, nil
		}
		b.mu.RUnlock()

		chapter, err := b.loader.LoadChapter(ctx, chapterID)
		if err != nil {
			return domain.Chapter{}, err
		}

		b.mu.Lock()
		b.cache[chapterID] = cachedChapter{
			chapter:   chapter,
			expiresAt: now.Add(b.ttlWithJitter()),
		}
		b.mu.Unlock()
		return chapter, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.Chapter).Questions, nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticChapterLoader serves chapters from an in-memory map (tests/demos).
type StaticChapterLoader struct {
	chapters map[string]domain.Chapter
}

func NewStaticChapterLoader(chapters map[string]domain.Chapter) *StaticChapterLoader {
	return &StaticChapterLoader{chapters: chapters}
}

func (l *StaticChapterLoader) LoadChapter(_ context.Context, chapterID string) (domain.Chapter, error) {
	if chapter, ok := l.chapters[chapterID]; ok {
		return chapter, nil
	}
	return domain.Chapter{}, domain.ErrChapterNotFound
}

package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiztians/internal/domain"
)

// ChapterLoader fetches chapter content from a backing store (postgres in
// production).
type ChapterLoader interface {
	LoadChapter(ctx context.Context, chapterID string) (domain.Chapter, error)
}

// QuestionBank caches chapter question sets in Redis as JSON under
// chapter:{id}:questions and falls back to the loader on cache miss.
// Singleflight collapses concurrent fills for the same chapter.
type QuestionBank struct {
	client *redis.Client
	loader ChapterLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader ChapterLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) FetchByChapter(ctx context.Context, chapterID string) ([]domain.Question, error) {
	key := b.key(chapterID)

	cached, err := b.client.Get(ctx, key).Bytes()
	if err == nil && len(cached) > 0 {
		if questions, ok := decodeQuestions(cached); ok {
			return questions, nil
		}
	}

	result, err, _ := b.sf.Do(chapterID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := b.client.Get(ctx, key).Bytes()
		if err == nil && len(cached) > 0 {
			if questions, ok := decodeQuestions(cached); ok {
				return questions, nil
			}
		}

		chapter, err := b.loader.LoadChapter(ctx, chapterID)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(chapter.Questions); err == nil {
			_ = b.client.Set(ctx, key, payload, b.ttlWithJitter()).Err()
		}
		return chapter.Questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) key(chapterID string) string {
	return "chapter:" + chapterID + ":questions"
}

func decodeQuestions(payload []byte) ([]domain.Question, bool) {
	var questions []domain.Question
	if err := json.Unmarshal(payload, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

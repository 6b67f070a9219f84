package session

import (
	"context"

	"quiztians/internal/domain"
)

// QuestionBank loads the ordered question set for a chapter.
type QuestionBank interface {
	FetchByChapter(ctx context.Context, chapterID string) ([]domain.Question, error)
}

// ResultStore is the persistence boundary the session engine writes through.
// Insert must enforce (phone, chapter) uniqueness and return
// domain.ErrDuplicateAttempt on conflict.
type ResultStore interface {
	FindByIdentity(ctx context.Context, phone, chapterID string) (*domain.Result, error)
	Insert(ctx context.Context, result domain.Result) error
}

// KV is a durable key-value store scoped to one device. It backs both the
// recovery stage and the attempt guard's local markers; Get returns
// (nil, nil) when the key is absent.
type KV interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

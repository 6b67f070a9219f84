package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiztians/internal/domain"
)

// Notifier announces result inserts to ranking views. Optional.
type Notifier interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// ResultStore persists results in Postgres. The unique index on
// (phone, chapter_id) is the authoritative duplicate-attempt check; the
// client-side guard alone is racy across devices.
type ResultStore struct {
	pool     *pgxpool.Pool
	notifier Notifier
}

func NewResultStore(pool *pgxpool.Pool, notifier Notifier) *ResultStore {
	return &ResultStore{pool: pool, notifier: notifier}
}

func (s *ResultStore) FindByIdentity(ctx context.Context, phone, chapterID string) (*domain.Result, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT phone, name, place, chapter_id, score, total, time_taken, created_at
		 FROM results WHERE phone=$1 AND chapter_id=$2`, phone, chapterID)
	result, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find result: %w", err)
	}
	return &result, nil
}

func (s *ResultStore) Insert(ctx context.Context, result domain.Result) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO results (phone, name, place, chapter_id, score, total, time_taken, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (phone, chapter_id) DO NOTHING`,
		result.Phone, result.Name, result.Place, result.ChapterID,
		result.Score, result.Total, result.TimeTaken, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateAttempt
	}

	if s.notifier != nil {
		event := domain.ChangeEvent{ChapterID: result.ChapterID, Phone: result.Phone, At: result.CreatedAt}
		if err := s.notifier.Publish(ctx, event); err != nil {
			log.Printf("publish result change: %v", err)
		}
	}
	return nil
}

func (s *ResultStore) QueryByChapter(ctx context.Context, chapterID string) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT phone, name, place, chapter_id, score, total, time_taken, created_at
		 FROM results WHERE chapter_id=$1`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (domain.Result, error) {
	var result domain.Result
	var timeTaken *int
	var createdAt time.Time
	if err := row.Scan(&result.Phone, &result.Name, &result.Place, &result.ChapterID,
		&result.Score, &result.Total, &timeTaken, &createdAt); err != nil {
		return domain.Result{}, err
	}
	result.TimeTaken = timeTaken
	result.CreatedAt = createdAt
	return result, nil
}

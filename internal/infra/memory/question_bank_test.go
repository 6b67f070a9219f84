package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiztians/internal/domain"
)

type countingLoader struct {
	ChapterLoader
	calls int
}

func (l *countingLoader) LoadChapter(ctx context.Context, chapterID string) (domain.Chapter, error) {
	l.calls++
	return l.ChapterLoader.LoadChapter(ctx, chapterID)
}

func sampleChapter() domain.Chapter {
	return domain.Chapter{
		ID: "chapter-1",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: domain.Localized{English: "What is 2 + 2?"},
				Options: []domain.Localized{
					{English: "3"}, {English: "4"}, {English: "5"}, {English: "6"},
				},
				Answer: domain.Localized{English: "4"},
			},
		},
	}
}

func TestQuestionBankCaches(t *testing.T) {
	loader := &countingLoader{
		ChapterLoader: NewStaticChapterLoader(map[string]domain.Chapter{
			"chapter-1": sampleChapter(),
		}),
	}
	bank := NewQuestionBank(loader, time.Minute)

	questions, err := bank.FetchByChapter(context.Background(), "chapter-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 || loader.calls != 1 {
		t.Fatalf("expected one loader call, got %d", loader.calls)
	}

	if _, err := bank.FetchByChapter(context.Background(), "chapter-1"); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionBankUnknownChapter(t *testing.T) {
	bank := NewQuestionBank(NewStaticChapterLoader(nil), time.Minute)
	if _, err := bank.FetchByChapter(context.Background(), "nope"); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Fatalf("expected chapter not found, got %v", err)
	}
}

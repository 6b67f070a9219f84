package domain

import (
	"regexp"
	"strings"
	"time"
)

// Language selects which variant of bilingual question text is shown and scored.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTamil   Language = "ta"
)

// Localized holds both language variants of a piece of question text.
type Localized struct {
	English string `json:"en"`
	Tamil   string `json:"ta"`
}

// In returns the variant for lang, falling back to English when the
// Tamil text is missing.
func (l Localized) In(lang Language) string {
	if lang == LanguageTamil && l.Tamil != "" {
		return l.Tamil
	}
	return l.English
}

// Participant identifies one quiz taker. Phone is the identity key
// within a chapter; fields are immutable once a session starts.
type Participant struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Place    string   `json:"place"`
	Language Language `json:"language"`
}

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Validate checks participant fields before a session is allowed to start.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidParticipant
	}
	if !phonePattern.MatchString(p.Phone) {
		return ErrInvalidPhone
	}
	if strings.TrimSpace(p.Place) == "" {
		return ErrInvalidParticipant
	}
	if p.Language != LanguageEnglish && p.Language != LanguageTamil {
		return ErrInvalidLanguage
	}
	return nil
}

// Question models an MCQ with four bilingual options and one correct
// answer value per language. Read-only to the session engine.
type Question struct {
	ID      string      `json:"id"`
	Prompt  Localized   `json:"prompt"`
	Options []Localized `json:"options"`
	Answer  Localized   `json:"answer"`
}

// IsCorrect reports whether the selected option text matches the
// correct answer in the given language.
func (q Question) IsCorrect(selected string, lang Language) bool {
	return selected != "" && selected == q.Answer.In(lang)
}

// Chapter is an identifier plus its ordered question set.
type Chapter struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Result is one participant's finished outcome for one chapter.
// At most one persisted Result exists per (phone, chapter) pair
// outside preview mode; results are never mutated after creation.
type Result struct {
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Place     string    `json:"place"`
	ChapterID string    `json:"chapterId"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	TimeTaken *int      `json:"timeTaken,omitempty"` // seconds; nil when not recorded
	CreatedAt time.Time `json:"createdAt"`
}

// Valid reports whether the score invariant 0 <= score <= total holds.
func (r Result) Valid() bool {
	return r.Score >= 0 && r.Score <= r.Total
}

// Outcome is the terminal bundle a finished session emits to whatever
// renders results or standings next.
type Outcome struct {
	Participant Participant `json:"participant"`
	ChapterID   string      `json:"chapterId"`
	Score       int         `json:"score"`
	Total       int         `json:"total"`
	TimeTaken   *int        `json:"timeTaken,omitempty"`
	State       string      `json:"state"`
}

// ChangeEvent notifies ranking views that the result set for a chapter changed.
type ChangeEvent struct {
	ChapterID string    `json:"chapterId"`
	Phone     string    `json:"phone"`
	At        time.Time `json:"at"`
}

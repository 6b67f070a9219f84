package domain

import "errors"

var (
	// ErrInvalidParticipant is returned when name or place is missing.
	ErrInvalidParticipant = errors.New("participant name and place are required")
	// ErrInvalidPhone is returned when the phone is not a 10-digit number.
	ErrInvalidPhone = errors.New("phone must be a 10-digit number")
	// ErrInvalidLanguage is returned for an unsupported language variant.
	ErrInvalidLanguage = errors.New("unsupported language variant")
	// ErrDuplicateAttempt indicates a result already exists for (phone, chapter).
	ErrDuplicateAttempt = errors.New("chapter already attempted")
	// ErrEmptyQuestionSet indicates the chapter has no usable questions.
	ErrEmptyQuestionSet = errors.New("chapter has no questions")
	// ErrChapterNotFound indicates the chapter could not be loaded.
	ErrChapterNotFound = errors.New("chapter not found")
)

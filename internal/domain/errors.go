package domain

import "errors"

var (
	// ErrInsufficientQuestions is returned when the catalog (after filtering) cannot supply the requested count.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrInvalidAnswerIndex is returned when a submitted option index is outside the presented options.
	ErrInvalidAnswerIndex = errors.New("invalid answer index")
	// ErrAmbiguousOptionText indicates two options of one question share the same text.
	ErrAmbiguousOptionText = errors.New("ambiguous option text")
	// ErrInvalidCorrectIndex indicates a catalog entry whose correct index is out of range.
	ErrInvalidCorrectIndex = errors.New("correct option index out of range")
	// ErrTooFewOptions indicates a catalog entry with fewer than two options.
	ErrTooFewOptions = errors.New("question needs at least two options")
	// ErrDuplicateQuestionID indicates two catalog entries share an id.
	ErrDuplicateQuestionID = errors.New("duplicate question id")
	// ErrInvalidQuestion covers the remaining catalog authoring defects (empty id, bad difficulty, bad time limit).
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrNotStarted is returned when an answer arrives before Start.
	ErrNotStarted = errors.New("quiz session not started")
	// ErrSessionComplete is returned when an answer arrives after the last question.
	ErrSessionComplete = errors.New("quiz session complete")
	// ErrSessionClosed is returned once a session has been torn down.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCatalogNotFound indicates the question catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
)

package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyQuiz is returned when a session is requested for a quiz with no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrInvalidQuiz wraps structural problems in a quiz definition.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrQuestionNotFound indicates a question ID is not part of the session.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotRevealed is returned when judging a question whose answer was never shown.
	ErrAnswerNotRevealed = errors.New("answer not revealed")
	// ErrAccessDenied is returned when the viewer may not start this session.
	ErrAccessDenied = errors.New("access denied")
	// ErrSubmissionFailed marks a failed completion submission; it is retryable.
	ErrSubmissionFailed = errors.New("completion submission failed")
	// ErrStoreUnavailable indicates the persisted store could not be reached.
	ErrStoreUnavailable = errors.New("persisted store unavailable")
)

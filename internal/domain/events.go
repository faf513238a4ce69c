package domain

// EventType names a presentation-facing engine notification.
type EventType string

const (
	EventCursorChanged       EventType = "cursor"
	EventAnswerChanged       EventType = "answer"
	EventAchievementUnlocked EventType = "achievement"
	EventUpsell              EventType = "upsell"
	EventSessionComplete     EventType = "complete"
	EventSubmissionFailed    EventType = "submissionFailed"
	EventSubmitted           EventType = "submitted"
)

// AnswerChange reports the new state of one question.
type AnswerChange struct {
	QuestionID   string      `json:"questionId"`
	State        AnswerState `json:"state"`
	FirstCorrect bool        `json:"firstCorrect,omitempty"`
}

// SessionSummary is carried by the session-complete signal.
type SessionSummary struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
}

// SubmissionFailure is surfaced with a retry affordance.
type SubmissionFailure struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Event is a single notification from a play session. Payload holds one of
// Cursor, AnswerChange, Achievement, SessionSummary, SubmissionFailure or
// CompletionRecord, depending on Type; upsell events carry no payload.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

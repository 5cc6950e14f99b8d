package store

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Label is the role name used when a message is written into a transcript.
func (s Sender) Label() string {
	if s == SenderUser {
		return "User"
	}
	return "Bot"
}

type Message struct {
	ID        int64     `json:"id"` // Sequence number, strictly increasing per conversation
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Sender    Sender    `json:"sender"`
}

type TurnOutcome string

const (
	OutcomeSuccess    TurnOutcome = "success"
	OutcomeFallback   TurnOutcome = "fallback"
	OutcomeSuperseded TurnOutcome = "superseded"
)

// TurnRecord is a diagnostics row for one turn. It never carries message text.
type TurnRecord struct {
	ID             string        `json:"id"` // UUID
	ConversationID string        `json:"conversation_id"`
	Outcome        TurnOutcome   `json:"outcome"`
	FailedStage    string        `json:"failed_stage,omitempty"` // "summary", "response" or empty
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	CreatedAt      time.Time     `json:"created_at"`
}

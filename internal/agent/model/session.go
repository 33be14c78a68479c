package model

import (
	"context"
	"time"
)

// Turn is one message in a session's conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session groups the turns of one conversation together with the state
// snapshot needed to resume an interrupted action.
type Session struct {
	SessionID           string        `json:"session_id"`
	ConversationHistory []Turn        `json:"conversation_history"`
	CurrentState        *RequestState `json:"current_state,omitempty"`
	PageContext         string        `json:"page_context,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	LastMessageAt       time.Time     `json:"last_message_at"`
	IsActive            bool          `json:"is_active"`
}

// SessionRepository persists sessions keyed by session id.
type SessionRepository interface {
	// Get loads a session. A missing session yields an AppError with a
	// not found status.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Save upserts the session and refreshes its activity index.
	Save(ctx context.Context, sess *Session) error

	// Delete removes the session and its index entry.
	Delete(ctx context.Context, sessionID string) error

	// StaleSessionIDs lists sessions whose last message predates the cutoff.
	StaleSessionIDs(ctx context.Context, olderThan time.Time) ([]string, error)
}

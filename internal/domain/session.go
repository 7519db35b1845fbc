// Package domain contains core domain types for the retell skill.
package domain

import (
	"time"
)

// State describes where a session is in the memorization exercise.
type State string

const (
	// StateAwaitingOriginal means the session is waiting for the text the
	// user wants to memorize.
	StateAwaitingOriginal State = "awaiting_original"

	// StateAwaitingUserInput means the original text is stored and the
	// session is waiting for the user's retelling.
	StateAwaitingUserInput State = "awaiting_user_input"
)

// Session tracks one user's progress through the exercise, keyed by the
// platform-provided session ID. OriginalText is stored verbatim; it is
// normalized only at comparison time.
type Session struct {
	SessionID    string
	OriginalText string
	HasOriginal  bool
	State        State
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSession returns a fresh session in the initial state.
func NewSession(sessionID string) *Session {
	now := time.Now()
	return &Session{
		SessionID: sessionID,
		State:     StateAwaitingOriginal,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetOriginal stores the text to memorize and advances the state.
func (s *Session) SetOriginal(text string) {
	s.OriginalText = text
	s.HasOriginal = true
	s.State = StateAwaitingUserInput
	s.UpdatedAt = time.Now()
}

// Reset clears the stored text and returns the session to its initial state.
func (s *Session) Reset() {
	s.OriginalText = ""
	s.HasOriginal = false
	s.State = StateAwaitingOriginal
	s.UpdatedAt = time.Now()
}

// Consistent reports whether the stored text and state agree: the original
// text must be present exactly when the session awaits the retelling.
func (s *Session) Consistent() bool {
	return s.HasOriginal == (s.State == StateAwaitingUserInput)
}

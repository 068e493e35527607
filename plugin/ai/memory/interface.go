// Package memory keeps the recent turns of a conversation.
package memory

import (
	"context"
	"time"
)

// ConversationTurn is one question and the answer given to it.
type ConversationTurn struct {
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewTurn returns a turn stamped with the current time.
func NewTurn(question, answer string) ConversationTurn {
	return ConversationTurn{
		UserMessage:       question,
		AssistantResponse: answer,
		Timestamp:         time.Now(),
	}
}

// Memory is a bounded, ordered history of turns.
// Appending beyond capacity evicts the oldest turn; only Clear removes
// turns otherwise.
type Memory interface {
	// Append adds a turn, evicting the oldest one when full.
	Append(ctx context.Context, turn ConversationTurn) error

	// LastN returns at most n of the most recent turns, oldest first.
	// n <= 0 returns an empty slice.
	LastN(ctx context.Context, n int) ([]ConversationTurn, error)

	// Clear removes every turn.
	Clear(ctx context.Context) error

	// Len returns the number of stored turns.
	Len(ctx context.Context) (int, error)
}

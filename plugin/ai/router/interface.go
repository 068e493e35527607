// Package router classifies what a user message asks the assistant to do.
package router

import "context"

// Intent represents the type of user intent.
type Intent string

const (
	// IntentClearHistory asks to wipe the conversation history.
	IntentClearHistory Intent = "clear_history"
	// IntentAnswer is every other message: answer it from the knowledge base.
	IntentAnswer Intent = "answer"
)

// Classifier maps a user message to an intent.
// On error the returned intent is IntentAnswer.
type Classifier interface {
	Classify(ctx context.Context, input string) (Intent, error)
}

// Mode selects the classification layers.
type Mode string

const (
	ModeRule    Mode = "rule"
	ModeLLM     Mode = "llm"
	ModeLayered Mode = "layered"
)

package answer

// State is one step of the answer state machine.
type State string

const (
	StateAwaitingInput   State = "AWAITING_INPUT"
	StateClassifying     State = "CLASSIFYING_INTENT"
	StateClearingHistory State = "CLEARING_HISTORY"
	StateRetrieving      State = "RETRIEVING"
	StateComposingPrompt State = "COMPOSING_PROMPT"
	StateGenerating      State = "GENERATING"
	StateUpdatingHistory State = "UPDATING_HISTORY"
)

// Fixed replies.
const (
	HistoryClearedReply = "History cleared"
	generationFailed    = "AI generation failed: "
)

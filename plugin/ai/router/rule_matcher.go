package router

import (
	"regexp"
	"strings"
)

// phraseRule is a history-clearing pattern and the confidence it carries.
type phraseRule struct {
	pattern    *regexp.Regexp
	confidence float32
}

// RuleMatcher implements Layer 1 phrase-based intent matching.
// It only recognizes imperative history-clearing requests; anything else,
// including questions that merely mention history, is left to the next layer.
type RuleMatcher struct {
	rules []phraseRule
}

// NewRuleMatcher creates a new rule matcher with the predefined phrase rules.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		rules: []phraseRule{
			// Whole-message commands: "clear history", "please wipe my chat".
			{
				pattern:    regexp.MustCompile(`^(please\s+)?(clear|reset|erase|wipe|delete)\s+(the\s+|my\s+|our\s+|this\s+)?(chat\s+|conversation\s+)?(history|conversation|chat)(\s+please)?[.!]*$`),
				confidence: 0.95,
			},
			{
				pattern:    regexp.MustCompile(`^(please\s+)?forget\s+(everything|our conversation|what i (said|asked))(\s+i\s+(said|asked))?(\s+please)?[.!]*$`),
				confidence: 0.95,
			},
			{
				pattern:    regexp.MustCompile(`^(start over|new conversation)[.!]*$`),
				confidence: 0.95,
			},
			// Embedded requests must name the conversation with a possessive
			// or determiner: "can you clear our chat history?".
			{
				pattern:    regexp.MustCompile(`\b(clear|reset|erase|wipe|delete)\s+(my|our|the|this)\s+(chat|conversation)(\s+history)?\b`),
				confidence: 0.85,
			},
			{
				pattern:    regexp.MustCompile(`\b(clear|reset|erase|wipe|delete)\s+(my|our)\s+history\b`),
				confidence: 0.85,
			},
		},
	}
}

// Match attempts to classify intent using phrase rules.
// Returns: intent, confidence, matched (true if a rule matched)
func (m *RuleMatcher) Match(input string) (Intent, float32, bool) {
	lower := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	if lower == "" {
		return IntentAnswer, 0, false
	}

	for _, r := range m.rules {
		if r.pattern.MatchString(lower) {
			return IntentClearHistory, r.confidence, true
		}
	}
	return IntentAnswer, 0, false
}

package answer

import (
	"strings"

	"github.com/hrygo/ragcontext/plugin/ai"
	"github.com/hrygo/ragcontext/plugin/ai/memory"
)

const groundingInstruction = "Answer the following question based only on the context provided. If you don't know the answer, say 'I don't know.'\n" +
	"Use only information from the knowledge base. If the knowledge base contains irrelevant information for the user's question, disregard it."

// KnowledgeBase joins retrieved documents into the grounding block.
func KnowledgeBase(documents []string) string {
	return strings.Join(documents, "\n")
}

// SystemFrame renders the system message: persona, grounding rules, knowledge base.
func SystemFrame(persona, knowledgeBase string) string {
	var b strings.Builder
	if persona = strings.TrimSpace(persona); persona != "" {
		b.WriteString(persona)
		b.WriteByte('\n')
	}
	b.WriteString(groundingInstruction)
	b.WriteString("\n\nKnowledge base:\n")
	b.WriteString(knowledgeBase)
	return b.String()
}

// ComposeMessages builds the completion request: system frame, then prior
// turns oldest first as user/assistant pairs, then the question.
func ComposeMessages(persona string, documents []string, history []memory.ConversationTurn, question string) []ai.Message {
	turns := make([]ai.Message, 0, 2*len(history))
	for _, turn := range history {
		turns = append(turns,
			ai.UserMessage(turn.UserMessage),
			ai.AssistantMessage(turn.AssistantResponse))
	}
	return ai.FormatMessages(SystemFrame(persona, KnowledgeBase(documents)), question, turns)
}

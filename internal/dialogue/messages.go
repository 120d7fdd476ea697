package dialogue

import "github.com/MrWong99/greeni/pkg/provider/llm"

// AssembleMessages builds the completion input for one turn: a single system
// message, then the stored history in order, then the new child utterance.
// Both features share it, so the system text appears exactly once.
func AssembleMessages(system string, history []Utterance, input string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, u := range history {
		role := llm.RoleUser
		if u.Speaker == SpeakerAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: u.Text})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: input})
}

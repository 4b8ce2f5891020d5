package backend

import (
	"fmt"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
)

const (
	openingInstructions = "You are taking part in an argumentative conversation about the topic. " +
		"Make sure every opinion you give, positive or negative, reflects your own personality, life experience and thoughts on the topic."
	openingFinal = "Give your opening argument: an initial stance on the topic. Your entire response must be shorter than 80 words."

	debateInstructions = "Read and analyse what the others said in the context of the whole conversation. " +
		"Decide whether you agree or disagree with anyone, according to your own personality and life experience. " +
		"Address the other people by name when you answer them. " +
		"Use your own life experiences as examples. " +
		"Bring in aspects of the topic that have not been discussed yet. " +
		"Focus on the latest things the others said and expand on them."
	debateFinal = "If you said the last thing in the conversation, go deeper into your own points; otherwise critique what the others said. " +
		"Your entire response must be shorter than 50 words."

	fallbackSpeaker = "User"
)

type Message struct {
	Speaker string `json:"speaker,omitempty"`
	Content string `json:"content"`
}

// parsePhase maps the request phase to a known one. Anything other than
// "opening" is a debate turn.
func parsePhase(raw string) domain.Phase {
	if strings.EqualFold(strings.TrimSpace(raw), string(domain.PhaseOpening)) {
		return domain.PhaseOpening
	}
	return domain.PhaseDebate
}

// buildMessages lays out the chat for one turn: persona and phase
// instructions, every prior message attributed to its speaker, then the
// closing instruction.
func buildMessages(personality string, conversation []Message, phase domain.Phase) []ports.ChatMessage {
	instructions, final := debateInstructions, debateFinal
	if phase == domain.PhaseOpening {
		instructions, final = openingInstructions, openingFinal
	}

	messages := make([]ports.ChatMessage, 0, len(conversation)+2)
	messages = append(messages, ports.ChatMessage{Role: "user", Content: personality + "\n\n" + instructions})
	for _, msg := range conversation {
		messages = append(messages, ports.ChatMessage{
			Role:    "user",
			Content: fmt.Sprintf("%s said: \"%s\"", speakerName(msg.Speaker), msg.Content),
		})
	}
	messages = append(messages, ports.ChatMessage{Role: "user", Content: final})

	return messages
}

func speakerName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" || strings.EqualFold(name, "unknown") {
		return fallbackSpeaker
	}
	return name
}

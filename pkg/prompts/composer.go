package prompts

import (
	"strings"

	"github.com/resonant-ai/resonant-engine/pkg/models"
)

// ComposePersonalization builds the per-user suffix merged into a base agent
// prompt: persona fields (absent ones skipped), recent knowledge summaries,
// and the user's first name. The output is a pure function of its inputs, so
// composing twice from identical inputs yields an identical string and a
// redundant prompt push is always safe.
func ComposePersonalization(persona *models.Persona, knowledgeSummaries []string, firstName string) string {
	var b strings.Builder

	if firstName != "" {
		b.WriteString("You are speaking with ")
		b.WriteString(firstName)
		b.WriteString(".\n")
	}

	if persona != nil && !persona.IsEmpty() {
		b.WriteString("\nWhat you know about them:\n")
		writeField(&b, "Introduction", persona.Introduction)
		writeField(&b, "What makes them unique", persona.Uniqueness)
		writeField(&b, "Their audience", persona.Audience)
		writeField(&b, "Value they offer", persona.ValueProposition)
		writeField(&b, "Preferred style", persona.Style)
		writeField(&b, "Goals", persona.Goals)
	}

	if len(knowledgeSummaries) > 0 {
		b.WriteString("\nThings they have shared in past conversations:\n")
		for _, s := range knowledgeSummaries {
			if s == "" {
				continue
			}
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// ComposeAgentPrompt appends the personalization suffix to a fixed base
// template. The base text itself is never mutated.
func ComposeAgentPrompt(base string, personalization string) string {
	if personalization == "" {
		return base
	}
	return base + "\n\n" + personalization
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

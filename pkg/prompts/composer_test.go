package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/resonant-ai/resonant-engine/pkg/models"
)

func TestComposePersonalization_Deterministic(t *testing.T) {
	persona := &models.Persona{
		Introduction: "Founder of a devtools startup",
		Audience:     "Engineering leaders",
		Style:        "Direct, a little dry",
	}
	summaries := []string{"Cold outreach beat ads for B2B", "Launched last week"}

	first := ComposePersonalization(persona, summaries, "Ada")
	second := ComposePersonalization(persona, summaries, "Ada")

	assert.Equal(t, first, second, "identical inputs must compose identically")
}

func TestComposePersonalization_SkipsEmptyFields(t *testing.T) {
	persona := &models.Persona{
		Introduction: "Founder",
		// everything else unset
	}

	out := ComposePersonalization(persona, nil, "")

	assert.Contains(t, out, "Introduction: Founder")
	assert.NotContains(t, out, "Their audience")
	assert.NotContains(t, out, "Goals")
	assert.NotContains(t, out, "You are speaking with")
}

func TestComposePersonalization_EmptyPersona(t *testing.T) {
	out := ComposePersonalization(&models.Persona{}, nil, "Ada")

	assert.NotContains(t, out, "What you know about them")
	assert.Contains(t, out, "Ada")
}

func TestComposePersonalization_NilPersona(t *testing.T) {
	out := ComposePersonalization(nil, []string{"a fact"}, "")

	assert.Contains(t, out, "- a fact")
}

func TestComposeAgentPrompt(t *testing.T) {
	t.Run("appends suffix", func(t *testing.T) {
		out := ComposeAgentPrompt("BASE", "SUFFIX")
		assert.True(t, strings.HasPrefix(out, "BASE"), "base template must lead")
		assert.Contains(t, out, "SUFFIX")
	})

	t.Run("empty personalization leaves base untouched", func(t *testing.T) {
		assert.Equal(t, "BASE", ComposeAgentPrompt("BASE", ""))
	})
}

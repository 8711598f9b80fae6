package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "object inside prose",
			input: `Sure, here you go: {"a": 1} Hope that helps!`,
			want:  `{"a": 1}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare code fence",
			input: "```\n[1, 2, 3]\n```",
			want:  `[1, 2, 3]`,
		},
		{
			name:  "nested object",
			input: `{"outer": {"inner": [1, {"deep": true}]}}`,
			want:  `{"outer": {"inner": [1, {"deep": true}]}}`,
		},
		{
			name:  "braces inside string values",
			input: `{"text": "look a } brace and a { brace"}`,
			want:  `{"text": "look a } brace and a { brace"}`,
		},
		{
			name:  "escaped quote inside string",
			input: `{"text": "she said \"hi\""}`,
			want:  `{"text": "she said \"hi\""}`,
		},
		{
			name:    "no json at all",
			input:   "I could not produce a result.",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"a": 1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		X string `json:"x_description"`
		L string `json:"linkedin_description"`
	}

	t.Run("direct JSON", func(t *testing.T) {
		got, err := ParseJSONResponse[payload](`{"x_description": "short", "linkedin_description": "long"}`)
		require.NoError(t, err)
		assert.Equal(t, "short", got.X)
		assert.Equal(t, "long", got.L)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		input := "Here is the rewrite:\n```json\n{\"x_description\": \"a\", \"linkedin_description\": \"b\"}\n```"
		got, err := ParseJSONResponse[payload](input)
		require.NoError(t, err)
		assert.Equal(t, "a", got.X)
	})

	t.Run("type mismatch fails", func(t *testing.T) {
		_, err := ParseJSONResponse[payload](`{"x_description": 42}`)
		assert.Error(t, err)
	})
}

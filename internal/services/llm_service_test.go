package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvjob-dk/cvjob-backend/internal/models"
	"github.com/cvjob-dk/cvjob-backend/internal/workflow"
)

func TestCleanMarkdownJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"content": "hej"}`, `{"content": "hej"}`},
		{"json fence", "```json\n{\"content\": \"hej\"}\n```", `{"content": "hej"}`},
		{"bare fence", "```\n{\"content\": \"hej\"}\n```", `{"content": "hej"}`},
		{"leading whitespace", "  \n{\"content\": \"hej\"}\n  ", `{"content": "hej"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanMarkdownJSON(tc.in))
		})
	}
}

func TestParseLetterResponse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseLetterResponse(`{"content": "Kære Acme..."}`)
		require.NoError(t, err)
		assert.Equal(t, "Kære Acme...", got)
	})

	t.Run("markdown wrapped", func(t *testing.T) {
		got, err := ParseLetterResponse("```json\n{\"content\": \"Kære Acme...\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Kære Acme...", got)
	})

	t.Run("extra key rejected", func(t *testing.T) {
		_, err := ParseLetterResponse(`{"content": "hej", "tone": "formel"}`)
		assert.Error(t, err)
	})

	t.Run("empty content rejected", func(t *testing.T) {
		_, err := ParseLetterResponse(`{"content": ""}`)
		assert.Error(t, err)
	})

	t.Run("missing content rejected", func(t *testing.T) {
		_, err := ParseLetterResponse(`{}`)
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseLetterResponse("Kære Acme, her er dit brev")
		assert.Error(t, err)
	})
}

func TestValidateLetterJSON(t *testing.T) {
	assert.NoError(t, ValidateLetterJSON([]byte(`{"content": "x"}`)))
	assert.Error(t, ValidateLetterJSON([]byte(`{"content": 42}`)))
	assert.Error(t, ValidateLetterJSON([]byte(`[]`)))
}

func TestBuildLetterPrompt(t *testing.T) {
	user := models.User{
		Name:    "Mette Hansen",
		Title:   "Softwareudvikler",
		Profile: "5 års erfaring med backend.",
		CVText:  strings.Repeat("x", 4000),
	}
	job := models.JobPosting{
		Title:         "Udvikler",
		Company:       "Acme",
		ContactPerson: "Lars Larsen",
		Description:   "Acme søger en udvikler.",
	}

	prompt := BuildLetterPrompt(workflow.GenerationRequest{Job: job, User: user, Locale: "da"})

	assert.Contains(t, prompt, "Danish")
	assert.Contains(t, prompt, "Mette Hansen")
	assert.Contains(t, prompt, "Lars Larsen")
	assert.Contains(t, prompt, "Acme søger en udvikler.")
	assert.Contains(t, prompt, `{"content": "<the letter>"}`)
	assert.NotContains(t, prompt, strings.Repeat("x", 3001), "CV text is truncated")

	english := BuildLetterPrompt(workflow.GenerationRequest{Job: job, Locale: "en"})
	assert.Contains(t, english, "English")
	assert.NotContains(t, english, "Name:", "empty applicant fields are omitted")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))

	// A cut landing mid-rune backs up to the previous boundary.
	assert.Equal(t, "æ", truncate("æøå", 3))
	assert.Equal(t, "æø", truncate("æøå", 4))

	long := strings.Repeat("blåbærgrød ", 400)
	cut := truncate(long, 3000)
	assert.LessOrEqual(t, len(cut), 3000)
	assert.True(t, utf8.ValidString(cut))
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/cvjob-dk/cvjob-backend/internal/common"
	"github.com/cvjob-dk/cvjob-backend/internal/config"
	"github.com/cvjob-dk/cvjob-backend/internal/workflow"
)

// LLMService is the generation invoker: it turns a job posting and a user
// profile into a cover letter via the Gemini API.
type LLMService struct {
	Client      llms.Model
	Logger      *slog.Logger
	Temperature float64
}

func NewLLMService(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*LLMService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMService{Client: llm, Logger: logger, Temperature: cfg.Temperature}, nil
}

// letterResponse is the shape the model is instructed to answer with.
type letterResponse struct {
	Content string `json:"content"`
}

// Generate implements workflow.Generator. The model must answer with a JSON
// object holding the letter; the reply is schema-validated before use, and a
// malformed reply classifies as a server error.
func (s *LLMService) Generate(ctx context.Context, req workflow.GenerationRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	s.Logger.Info("llm.request",
		"req_id", rid,
		"job_id", req.Job.ID,
		"company", req.Job.Company,
		"locale", req.Locale,
		"description_len", len(req.Job.Description),
	)

	prompt := BuildLetterPrompt(req)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt,
		llms.WithTemperature(s.Temperature),
	)
	if err != nil {
		s.Logger.Error("llm.request_failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	content, err := ParseLetterResponse(resp)
	if err != nil {
		s.Logger.Error("llm.bad_response", "req_id", rid, "error", err, "raw_len", len(resp))
		return "", common.NewAppError(common.KindServer, "AI-svaret kunne ikke læses", err)
	}

	s.Logger.Info("llm.ok", "req_id", rid, "letter_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

// BuildLetterPrompt assembles the generation prompt. The letter language
// follows the requested locale; CVJob's default audience writes in Danish.
func BuildLetterPrompt(req workflow.GenerationRequest) string {
	lang := "Danish"
	if req.Locale == "en" {
		lang = "English"
	}

	var b strings.Builder
	b.WriteString("You are an expert cover-letter writer. Write a personal, specific cover letter in ")
	b.WriteString(lang)
	b.WriteString(" for the job posting below.\n\n")

	b.WriteString("### APPLICANT\n")
	if req.User.Name != "" {
		b.WriteString("Name: " + req.User.Name + "\n")
	}
	if req.User.Title != "" {
		b.WriteString("Current title: " + req.User.Title + "\n")
	}
	if req.User.Profile != "" {
		b.WriteString("Background:\n" + req.User.Profile + "\n")
	}
	if req.User.CVText != "" {
		b.WriteString("CV (extracted text, first ~3k chars):\n" + truncate(req.User.CVText, 3000) + "\n")
	}

	b.WriteString("\n### JOB POSTING\n")
	b.WriteString("Title: " + req.Job.Title + "\n")
	b.WriteString("Company: " + req.Job.Company + "\n")
	if req.Job.ContactPerson != "" {
		b.WriteString("Contact person: " + req.Job.ContactPerson + "\n")
	}
	b.WriteString("Description:\n" + truncate(req.Job.Description, 20000) + "\n")

	b.WriteString(`
### INSTRUCTIONS
1. Address the contact person if one is given, otherwise use a neutral greeting.
2. Connect the applicant's actual background to the posting's requirements. Do not invent experience.
3. Keep it to 250-400 words, professional but warm.
4. Return ONLY valid JSON matching {"content": "<the letter>"}. No markdown code blocks, no extra keys.
`)
	return b.String()
}

// ParseLetterResponse strips any markdown wrapper the model added, validates
// the JSON against the expected schema, and extracts the letter text.
func ParseLetterResponse(raw string) (string, error) {
	cleaned := cleanMarkdownJSON(raw)
	data := []byte(cleaned)

	if err := ValidateLetterJSON(data); err != nil {
		return "", err
	}
	var out letterResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("unmarshal letter response: %w", err)
	}
	return out.Content, nil
}

// cleanMarkdownJSON removes backticks and a "json" prefix if the model tries
// to be helpful.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// truncate cuts at a rune boundary so Danish text never leaves a broken
// multibyte character at the end of a prompt section.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

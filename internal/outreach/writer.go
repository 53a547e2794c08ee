package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/cold-mailer/internal/ai"
	"github.com/spigell/cold-mailer/internal/utils"
	"go.uber.org/zap"
)

//go:embed email.md
var emailTemplate string

// Persona is the sender the email is written as.
type Persona struct {
	Name    string
	Title   string
	Email   string
	Company string
	Pitch   string
}

type Writer struct {
	generator ai.Generator
	persona   Persona
	logger    *zap.Logger
	maxLogLen int
}

func NewWriter(generator ai.Generator, persona Persona, logger *zap.Logger, maxLogLength int) *Writer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Writer{
		generator: generator,
		persona:   persona,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Draft writes one cold email for job citing links. The model output is
// returned verbatim.
func (w *Writer) Draft(ctx context.Context, job JobPosting, links []string) (string, error) {
	prompt, err := w.buildPrompt(job, links)
	if err != nil {
		return "", &GenerationError{Role: job.Role, Cause: err}
	}

	w.logger.Debug("draft email request",
		zap.String("role", job.Role),
		zap.Int("links", len(links)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, w.maxLogLen)),
	)

	email, err := w.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Role: job.Role, Cause: err}
	}

	w.logger.Debug("draft email response",
		zap.String("role", job.Role),
		zap.Int("response_length", utf8.RuneCountInString(email)),
		zap.String("response_preview", utils.TruncateForLog(email, w.maxLogLen)),
	)

	return email, nil
}

func (w *Writer) buildPrompt(job JobPosting, links []string) (string, error) {
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	signature := ""
	if email := strings.TrimSpace(w.persona.Email); email != "" {
		signature = fmt.Sprintf("\nSign the email with %s and %s.", w.persona.Name, email)
	}

	template := emailTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nWrite a cold email from {{SENDER_NAME}} at {{COMPANY}} citing {{LINK_LIST}}.{{SIGNATURE}}\nEmail:"
	}

	replacer := strings.NewReplacer(
		"{{JOB_JSON}}", string(jobJSON),
		"{{SENDER_NAME}}", w.persona.Name,
		"{{SENDER_TITLE}}", w.persona.Title,
		"{{COMPANY}}", w.persona.Company,
		"{{PITCH}}", strings.TrimSuffix(strings.TrimSpace(w.persona.Pitch), "."),
		"{{LINK_LIST}}", formatLinks(links),
		"{{SIGNATURE}}", signature,
	)

	return replacer.Replace(template), nil
}

// formatLinks renders links as a bracketed list; no links renders as [].
func formatLinks(links []string) string {
	return "[" + strings.Join(links, ", ") + "]"
}

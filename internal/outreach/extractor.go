// Package outreach turns careers page text into job postings and drafts
// outreach emails for them.
package outreach

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/cold-mailer/internal/ai"
	"github.com/spigell/cold-mailer/internal/utils"
	"go.uber.org/zap"
)

//go:embed extract.md
var extractTemplate string

const defaultMaxLogLength = 200

type Extractor struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator ai.Generator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Extract asks the model for the job postings in the cleaned page text.
// An unusable answer is returned as *ExtractionParseError and is not retried.
func (e *Extractor) Extract(ctx context.Context, cleaned string) ([]JobPosting, error) {
	prompt := buildExtractPrompt(cleaned)

	e.logger.Debug("extract jobs request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract jobs: %w", err)
	}

	e.logger.Debug("extract jobs response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	switch result := ParseJobs(raw).(type) {
	case Parsed:
		return result.Jobs, nil
	case Failed:
		return nil, &ExtractionParseError{Reason: result.Reason, Raw: raw}
	default:
		return nil, fmt.Errorf("unexpected parse result %T", result)
	}
}

func buildExtractPrompt(pageText string) string {
	template := extractTemplate
	if strings.TrimSpace(template) == "" {
		template = "Page:\n{{PAGE_TEXT}}\n\nJSON list of jobs with role, experience, skills, description:"
	}
	return strings.ReplaceAll(template, "{{PAGE_TEXT}}", pageText)
}

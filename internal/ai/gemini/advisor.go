package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/interview-prepper/internal/ai"
	"github.com/spigell/interview-prepper/internal/resume"
	"go.uber.org/zap"
)

const advisorSystem = "You are an expert resume coach. Be brief and to the point."

//go:embed prompts/keywords.md
var keywordsTemplate string

//go:embed prompts/resume_feedback.md
var resumeFeedbackTemplate string

// Advisor compares a résumé against the keywords Gemini expects for a job title.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
}

func NewAdvisor(generator contentGenerator, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{generator: generator, logger: logger}
}

var _ ai.ResumeAdvisor = (*Advisor)(nil)

func (a *Advisor) Strengthen(ctx context.Context, resumeText, jobTitle string) (*resume.Advice, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.New("resume text is required")
	}
	jobTitle = strings.TrimSpace(jobTitle)
	if jobTitle == "" {
		return nil, errors.New("job title is required")
	}
	if a.generator == nil {
		return nil, errors.New("gemini advisor has no generator")
	}

	raw, err := a.generator.GenerateContent(ctx, advisorSystem, render(keywordsTemplate, map[string]string{
		"JOB_TITLE": jobTitle,
	}))
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}

	keywords := decodeKeywords(RemoveFirstThink(raw))
	missing := resume.MissingKeywords(resumeText, keywords)

	a.logger.Debug("resume keywords compared",
		zap.String("job_title", jobTitle),
		zap.Int("keywords", keywords.Count()),
		zap.Int("missing", missing.Count()),
	)

	feedback, err := a.generator.GenerateContent(ctx, advisorSystem, render(resumeFeedbackTemplate, map[string]string{
		"RESUME":           resumeText,
		"JOB_TITLE":        jobTitle,
		"MISSING_KEYWORDS": missing.String(),
	}))
	if err != nil {
		return nil, fmt.Errorf("resume feedback: %w", err)
	}

	return &resume.Advice{
		Keywords: keywords,
		Missing:  missing,
		Feedback: RemoveFirstThink(feedback),
	}, nil
}

// decodeKeywords reads the JSON object the prompt asks for and falls back to
// the bullet-list layout when the model ignores the instruction.
func decodeKeywords(raw string) resume.Keywords {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err == nil {
		keywords := resume.Keywords{}
		if err := mapstructure.WeakDecode(data, &keywords); err == nil && keywords.Count() > 0 {
			return keywords
		}
	}

	return resume.ParseKeywordList(raw)
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/interview-prepper/internal/ai"
	"github.com/spigell/interview-prepper/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

const (
	defaultMaxLogLength = 200

	interviewerSystem = "You are an HR interviewer. Your ONLY job is to ask a single HR interview question at a time. " +
		"DO NOT provide answers. DO NOT provide explanations. Only output the question itself."
	evaluatorSystem = "You are an expert HR interview evaluator. Provide detailed, constructive feedback."
)

//go:embed prompts/first_question.md
var firstQuestionTemplate string

//go:embed prompts/next_question.md
var nextQuestionTemplate string

//go:embed prompts/evaluation.md
var evaluationTemplate string

var (
	thinkPattern       = regexp.MustCompile(`(?s)<think>.*?</think>`)
	scorePattern       = regexp.MustCompile(`(?s)<score>(.*?)</score>`)
	reasonPattern      = regexp.MustCompile(`(?s)<reason>(.*?)</reason>`)
	improvementPattern = regexp.MustCompile(`(?s)<improvement>(.*?)</improvement>`)
)

// Interviewer asks and grades interview questions through a Gemini generator.
type Interviewer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewInterviewer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Interviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Interviewer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

var _ ai.Interviewer = (*Interviewer)(nil)

func (i *Interviewer) FirstQuestion(ctx context.Context, req ai.QuestionRequest) (string, error) {
	prompt := render(firstQuestionTemplate, map[string]string{
		"RESUME":          req.Resume,
		"JOB_DESCRIPTION": orNone(req.JobDescription),
		"DIFFICULTY":      req.Difficulty,
	})
	return i.ask(ctx, "first_question", prompt)
}

func (i *Interviewer) NextQuestion(ctx context.Context, req ai.QuestionRequest) (string, error) {
	prompt := render(nextQuestionTemplate, map[string]string{
		"RESUME":          req.Resume,
		"JOB_DESCRIPTION": orNone(req.JobDescription),
		"LAST_ANSWER":     req.LastAnswer,
		"DIFFICULTY":      req.Difficulty,
	})
	return i.ask(ctx, "next_question", prompt)
}

func (i *Interviewer) Evaluate(ctx context.Context, req ai.EvaluationRequest) (*ai.Evaluation, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, errors.New("question is required")
	}

	prompt := render(evaluationTemplate, map[string]string{
		"QUESTION":   req.Question,
		"ANSWER":     req.Answer,
		"DIFFICULTY": req.Difficulty,
	})

	raw, err := i.generate(ctx, "evaluation", evaluatorSystem, prompt)
	if err != nil {
		return nil, err
	}

	evaluation := parseEvaluation(raw)
	i.logger.Debug("answer evaluated",
		zap.Float64("score", evaluation.Score),
		zap.String("difficulty", req.Difficulty),
	)

	return evaluation, nil
}

func (i *Interviewer) ask(ctx context.Context, kind, prompt string) (string, error) {
	raw, err := i.generate(ctx, kind, interviewerSystem, prompt)
	if err != nil {
		return "", err
	}

	question := RemoveFirstThink(raw)
	if question == "" {
		return "", fmt.Errorf("%s: model returned no question", kind)
	}
	return question, nil
}

func (i *Interviewer) generate(ctx context.Context, kind, system, prompt string) (string, error) {
	if i.generator == nil {
		return "", errors.New("gemini interviewer has no generator")
	}

	i.logger.Debug("gemini generate content request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateContent(ctx, system, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}

	i.logger.Debug("gemini generate content response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
	)

	return raw, nil
}

// RemoveFirstThink drops the first <think>...</think> block some reasoning models prepend.
func RemoveFirstThink(text string) string {
	if loc := thinkPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[1]:]
	}
	return strings.TrimSpace(text)
}

func parseEvaluation(raw string) *ai.Evaluation {
	return &ai.Evaluation{
		Score:       parseScore(firstGroup(scorePattern, raw)),
		Reason:      firstGroup(reasonPattern, raw),
		Improvement: firstGroup(improvementPattern, raw),
		Raw:         raw,
	}
}

func firstGroup(pattern *regexp.Regexp, text string) string {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseScore accepts "8", "8.5" and fractions such as "8.5/10" or "1/10".
func parseScore(s string) float64 {
	s = strings.TrimSpace(s)

	var score float64
	if num, denom, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(denom), 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		score = n / d * 10
	} else {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		score = v
	}

	if math.IsNaN(score) {
		return 0
	}
	return math.Min(10, math.Max(0, score))
}

// render fills {{KEY}} placeholders in a single pass, so placeholders inside the
// inserted values are left as they are.
func render(template string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", strings.TrimSpace(values[key]))
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return s
}

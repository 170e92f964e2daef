package ai

import (
	"context"

	"github.com/spigell/interview-prepper/internal/resume"
)

// QuestionRequest carries what the model needs to ask the next interview question.
type QuestionRequest struct {
	Resume         string
	JobDescription string
	Difficulty     string
	// LastAnswer is empty for the opening question.
	LastAnswer string
}

type EvaluationRequest struct {
	Question   string
	Answer     string
	Difficulty string
}

// Evaluation is a graded answer. Score is within [0, 10].
type Evaluation struct {
	Score       float64
	Reason      string
	Improvement string
	Raw         string
}

type Interviewer interface {
	FirstQuestion(ctx context.Context, req QuestionRequest) (string, error)
	NextQuestion(ctx context.Context, req QuestionRequest) (string, error)
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
}

// ResumeAdvisor suggests how a résumé could better match a job.
type ResumeAdvisor interface {
	Strengthen(ctx context.Context, resumeText, jobTitle string) (*resume.Advice, error)
}

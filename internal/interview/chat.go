package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/interview-prepper/internal/ai"
	"github.com/spigell/interview-prepper/internal/difficulty"
	"github.com/spigell/interview-prepper/internal/logger"
	"github.com/spigell/interview-prepper/internal/resume"
	"github.com/spigell/interview-prepper/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reply answers one chat message.
type Reply struct {
	Message string `json:"reply"`
	// Note describes how the question was chosen when no answer was graded.
	Note string `json:"message,omitempty"`

	SuggestedDifficulty string `json:"suggested_difficulty,omitempty"`
	Explanation         string `json:"difficulty_explanation,omitempty"`

	ConfidenceScore    *float64 `json:"confidence_score,omitempty"`
	ConfidenceFeedback string   `json:"confidence_feedback,omitempty"`

	// Evaluation is set when the message was graded as an answer.
	Evaluation *ai.Evaluation `json:"-"`
	Difficulty string         `json:"difficulty"`

	// Report is set when the interview was finished with "exit".
	Report *Report `json:"-"`
}

// Report summarises a finished interview.
type Report struct {
	QAs    []*store.QA    `json:"qas"`
	Advice *resume.Advice `json:"resume_strengthening"`
}

// Chat handles one candidate message. "start" asks the first question, "exit" finishes
// the interview, anything else is graded as the answer to the open question.
// override, when set, forces the difficulty before the message is handled.
func (m *Manager) Chat(ctx context.Context, id, message, override string) (*Reply, error) {
	s, err := m.Session(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.WithSession(m.logger, id, "")

	if label := strings.TrimSpace(override); label != "" {
		level, err := difficulty.ParseLevel(label)
		if err != nil {
			return nil, err
		}
		if level != s.controller.Level() {
			log.Info("difficulty overridden",
				zap.Stringer("from", s.controller.Level()),
				zap.Stringer("to", level),
			)
			s.controller.Reset(level)
		}
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return m.reply(s, emptyMessageReply), nil
	}

	switch strings.ToLower(message) {
	case commandStart:
		return m.start(ctx, s)
	case commandExit:
		return m.finish(ctx, s)
	}

	last, err := m.store.Last(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return m.askFresh(ctx, s, noteStarting)
	case err != nil:
		return nil, err
	case last.Evaluated():
		return m.reask(ctx, s)
	}

	return m.answer(ctx, s, last, message, log)
}

func (m *Manager) reply(s *Session, message string) *Reply {
	return &Reply{Message: message, Difficulty: s.controller.Level().String()}
}

func (m *Manager) request(s *Session, lastAnswer string) ai.QuestionRequest {
	return ai.QuestionRequest{
		Resume:         s.Resume,
		JobDescription: s.JobDescription,
		Difficulty:     s.controller.Level().String(),
		LastAnswer:     lastAnswer,
	}
}

func (m *Manager) start(ctx context.Context, s *Session) (*Reply, error) {
	question, err := m.interviewer.FirstQuestion(ctx, m.request(s, ""))
	if err != nil {
		return nil, fmt.Errorf("first question: %w", err)
	}
	if _, err := m.store.AddQuestion(ctx, s.ID, question, s.controller.Level().String()); err != nil {
		return nil, err
	}
	return m.reply(s, question), nil
}

// askFresh generates an opening-style question when there is nothing to answer.
func (m *Manager) askFresh(ctx context.Context, s *Session, note string) (*Reply, error) {
	reply, err := m.start(ctx, s)
	if err != nil {
		return nil, err
	}
	reply.Note = note
	return reply, nil
}

// reask re-asks the latest unanswered question or creates a new one.
func (m *Manager) reask(ctx context.Context, s *Session) (*Reply, error) {
	open, err := m.store.LastUnanswered(ctx, s.ID)
	if errors.Is(err, store.ErrNotFound) {
		return m.askFresh(ctx, s, noteCreated)
	}
	if err != nil {
		return nil, err
	}

	reply := m.reply(s, open.Question)
	reply.Note = noteContinuing
	return reply, nil
}

func (m *Manager) answer(ctx context.Context, s *Session, last *store.QA, message string, log *zap.Logger) (*Reply, error) {
	var (
		next       string
		evaluation *ai.Evaluation
	)

	level := s.controller.Level().String()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := m.interviewer.NextQuestion(gctx, m.request(s, message))
		if err != nil {
			return fmt.Errorf("next question: %w", err)
		}
		next = q
		return nil
	})
	g.Go(func() error {
		e, err := m.interviewer.Evaluate(gctx, ai.EvaluationRequest{
			Question:   last.Question,
			Answer:     message,
			Difficulty: level,
		})
		if err != nil {
			return fmt.Errorf("evaluate answer: %w", err)
		}
		evaluation = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feedback := fmt.Sprintf("Reason: %s\nImprovement Areas: %s", evaluation.Reason, evaluation.Improvement)
	if err := m.store.SaveEvaluation(ctx, last.ID, message, evaluation.Score, feedback); err != nil {
		return nil, err
	}

	previous := s.controller.Level()
	current, explanation := s.controller.RecordScore(evaluation.Score)

	log.Info("answer graded",
		zap.Int64(logger.FieldQuestion, last.ID),
		zap.Float64("score", evaluation.Score),
		zap.Stringer(logger.FieldDifficulty, current),
	)

	if _, err := m.store.AddQuestion(ctx, s.ID, next, current.String()); err != nil {
		return nil, err
	}

	reply := m.reply(s, next)
	reply.Evaluation = evaluation
	if current != previous {
		reply.SuggestedDifficulty = current.String()
		reply.Explanation = explanation
	}

	confidence := last.ConfidenceScore
	reply.ConfidenceScore = &confidence
	reply.ConfidenceFeedback = last.ConfidenceFeedback

	return reply, nil
}

func (m *Manager) finish(ctx context.Context, s *Session) (*Reply, error) {
	qas, err := m.store.List(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if len(qas) == 0 {
		return m.reply(s, noDataReply), nil
	}

	if _, err := m.store.DeleteSession(ctx, s.ID); err != nil {
		return nil, err
	}

	reply := m.reply(s, fmt.Sprintf("Interview finished with %d questions.", len(qas)))
	reply.Report = &Report{QAs: qas, Advice: s.Advice}
	return reply, nil
}

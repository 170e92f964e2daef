// Package interview runs mock interviews: it asks questions, grades answers,
// scores spoken delivery and adapts the difficulty per session.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/interview-prepper/internal/ai"
	"github.com/spigell/interview-prepper/internal/difficulty"
	"github.com/spigell/interview-prepper/internal/logger"
	"github.com/spigell/interview-prepper/internal/speech"
	"github.com/spigell/interview-prepper/internal/store"
	"github.com/spigell/interview-prepper/internal/utils"
	"go.uber.org/zap"
)

const (
	commandStart = "start"
	commandExit  = "exit"

	emptyMessageReply = "Please type a message."
	noDataReply       = "No interview data found to generate feedback."

	noteStarting   = "Starting new interview"
	noteContinuing = "Continuing with existing question"
	noteCreated    = "Created a new question"
)

var (
	ErrSessionNotFound = errors.New("interview session not found")
	ErrResumeRequired  = errors.New("resume text is required")
)

// Store is the persistence the manager needs. *store.SqlStore implements it.
type Store interface {
	AddQuestion(ctx context.Context, sessionID, question, difficulty string) (*store.QA, error)
	Get(ctx context.Context, id int64) (*store.QA, error)
	Last(ctx context.Context, sessionID string) (*store.QA, error)
	LastUnanswered(ctx context.Context, sessionID string) (*store.QA, error)
	SaveEvaluation(ctx context.Context, id int64, answer string, score float64, feedback string) error
	SaveTranscript(ctx context.Context, id int64, transcript string, confidence float64, feedback string) error
	SaveConfidence(ctx context.Context, id int64, confidence float64, feedback string) error
	List(ctx context.Context, sessionID string) ([]*store.QA, error)
	Answered(ctx context.Context, sessionID string) ([]*store.QA, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

// Config tunes new sessions.
type Config struct {
	Difficulty difficulty.Options
	// Seed makes difficulty exploration reproducible. Negative values seed from the clock.
	Seed int64
	// JobTitle is used for résumé advice when a session does not name one.
	JobTitle string
}

type Manager struct {
	store       Store
	interviewer ai.Interviewer
	advisor     ai.ResumeAdvisor
	cfg         Config
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	seeds    atomic.Int64
	now      func() time.Time
}

// NewManager wires a manager. advisor may be nil to skip résumé advice.
func NewManager(st Store, interviewer ai.Interviewer, advisor ai.ResumeAdvisor, cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:       st,
		interviewer: interviewer,
		advisor:     advisor,
		cfg:         cfg,
		logger:      log,
		sessions:    make(map[string]*Session),
		now:         time.Now,
	}
}

type StartRequest struct {
	Resume         string
	JobDescription string
	JobTitle       string
	// Difficulty is the initial level label; empty uses the configured default.
	Difficulty string
}

// Start opens a session and runs résumé advice. Advice failures are logged and leave Advice nil.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Session, error) {
	resumeText := strings.TrimSpace(req.Resume)
	if resumeText == "" {
		return nil, ErrResumeRequired
	}

	opts := m.cfg.Difficulty
	if label := strings.TrimSpace(req.Difficulty); label != "" {
		level, err := difficulty.ParseLevel(label)
		if err != nil {
			return nil, err
		}
		opts.Initial = level
	}

	id := uuid.NewString()
	log := logger.WithSession(m.logger, id, "")

	if opts.Random == nil && m.cfg.Seed >= 0 {
		opts.Random = difficulty.NewRandomSource(m.cfg.Seed + m.seeds.Add(1) - 1)
	}
	opts.Logger = log

	session := &Session{
		ID:             id,
		Resume:         resumeText,
		JobDescription: strings.TrimSpace(req.JobDescription),
		CreatedAt:      m.now(),
		controller:     difficulty.New(opts),
	}

	if m.advisor != nil {
		if title := m.jobTitle(req); title != "" {
			advice, err := m.advisor.Strengthen(ctx, resumeText, title)
			if err != nil {
				log.Warn("resume strengthening failed", zap.Error(err))
			} else {
				session.Advice = advice
			}
		}
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	log.Info("interview session started", zap.Stringer(logger.FieldDifficulty, opts.Initial))
	return session, nil
}

func (m *Manager) jobTitle(req StartRequest) string {
	for _, candidate := range []string{req.JobTitle, m.cfg.JobTitle, req.JobDescription} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	return ""
}

// Session returns the live session by id.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// End discards the session and its controller. Stored records are kept.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// DifficultyStatus is the current level and every level a session can be at.
type DifficultyStatus struct {
	Current   string   `json:"current_difficulty"`
	Available []string `json:"available_difficulties"`
}

func (m *Manager) Difficulty(id string) (*DifficultyStatus, error) {
	s, err := m.Session(id)
	if err != nil {
		return nil, err
	}
	return &DifficultyStatus{Current: s.Level().String(), Available: difficulty.LevelNames()}, nil
}

// FeedbackItem is an answered question with a shortened confidence assessment.
type FeedbackItem struct {
	ID                 int64     `json:"id"`
	Question           string    `json:"question"`
	Answer             string    `json:"answer"`
	Difficulty         string    `json:"difficulty"`
	Score              float64   `json:"score"`
	Feedback           string    `json:"feedback"`
	Timestamp          time.Time `json:"timestamp"`
	ConfidenceScore    float64   `json:"confidence_score"`
	ConfidenceFeedback string    `json:"confidence_feedback,omitempty"`
}

// Feedback lists the session's answered questions.
func (m *Manager) Feedback(ctx context.Context, id string) ([]FeedbackItem, error) {
	if _, err := m.Session(id); err != nil {
		return nil, err
	}

	answered, err := m.store.Answered(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]FeedbackItem, 0, len(answered))
	for _, qa := range answered {
		items = append(items, FeedbackItem{
			ID:                 qa.ID,
			Question:           qa.Question,
			Answer:             qa.Answer,
			Difficulty:         qa.Difficulty,
			Score:              qa.Score,
			Feedback:           qa.Feedback,
			Timestamp:          qa.CreatedAt,
			ConfidenceScore:    qa.ConfidenceScore,
			ConfidenceFeedback: utils.FirstSentence(qa.ConfidenceFeedback),
		})
	}
	return items, nil
}

// TranscriptResult is the speech analysis of a spoken answer.
type TranscriptResult struct {
	Transcript string          `json:"transcript"`
	Analysis   speech.Analysis `json:"analysis"`
	// QuestionID is the question the transcript was stored against, zero when none was open.
	QuestionID int64 `json:"question_id,omitempty"`
}

// SubmitTranscript scores a spoken answer and attaches it to the latest question when
// that question has no answer yet.
func (m *Manager) SubmitTranscript(ctx context.Context, id, transcript string, durationSeconds float64) (*TranscriptResult, error) {
	s, err := m.Session(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	analysis := speech.Analyze(transcript, durationSeconds)
	result := &TranscriptResult{Transcript: transcript, Analysis: analysis}

	last, err := m.store.Last(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	if last.Answer != "" || last.Evaluated() {
		return result, nil
	}

	if err := m.store.SaveTranscript(ctx, last.ID, transcript, analysis.ConfidenceScore, analysis.Feedback); err != nil {
		return nil, err
	}
	result.QuestionID = last.ID

	logger.WithSession(m.logger, id, "").Debug("transcript stored",
		zap.Int64(logger.FieldQuestion, last.ID),
		zap.Float64("confidence_score", analysis.ConfidenceScore),
		zap.Int("filler_count", analysis.FillerCount),
	)
	return result, nil
}

// UpdateConfidence overwrites a stored confidence score and regenerates the feedback from the stored answer.
func (m *Manager) UpdateConfidence(ctx context.Context, qaID int64, score float64) (*store.QA, error) {
	qa, err := m.store.Get(ctx, qaID)
	if err != nil {
		return nil, err
	}

	feedback := speech.Analyze(qa.Answer, 0).Feedback
	if err := m.store.SaveConfidence(ctx, qaID, score, feedback); err != nil {
		return nil, err
	}

	return m.store.Get(ctx, qaID)
}

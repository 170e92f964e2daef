// Package store persists interview questions, answers and their scores in SQLite.
package store

import (
	"errors"
	"time"
)

// DefaultUser owns records created without an explicit user.
const DefaultUser = "guest"

var ErrNotFound = errors.New("record not found")

// QA is one asked question together with the candidate's answer and its grading.
type QA struct {
	ID                 int64      `json:"id"`
	SessionID          string     `json:"session_id"`
	UserID             string     `json:"user_id"`
	Question           string     `json:"question"`
	Answer             string     `json:"answer"`
	Difficulty         string     `json:"difficulty"`
	Score              float64    `json:"score"`
	Feedback           string     `json:"feedback"`
	ConfidenceScore    float64    `json:"confidence_score"`
	ConfidenceFeedback string     `json:"confidence_feedback"`
	CreatedAt          time.Time  `json:"timestamp"`
	EvaluatedAt        *time.Time `json:"evaluated_at,omitempty"`
}

// Evaluated reports whether the answer has been graded.
func (q *QA) Evaluated() bool {
	return q != nil && q.EvaluatedAt != nil
}

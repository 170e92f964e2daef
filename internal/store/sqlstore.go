package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const qaColumns = `id, session_id, user_id, question, answer, difficulty, score, feedback,
	confidence_score, confidence_feedback, created_at, evaluated_at`

// SqlStore keeps QA records in a SQLite database.
type SqlStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
// The parent directory is created when missing.
func Open(path string) (*SqlStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store path is required")
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SqlStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

func (s *SqlStore) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// AddQuestion stores a new unanswered question for the session.
func (s *SqlStore) AddQuestion(ctx context.Context, sessionID, question, difficulty string) (*QA, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO interview_qa(session_id, user_id, question, difficulty, created_at)
		 VALUES(?, ?, ?, ?, ?)`,
		sessionID, DefaultUser, question, difficulty, s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get returns the record by id or ErrNotFound.
func (s *SqlStore) Get(ctx context.Context, id int64) (*QA, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+qaColumns+" FROM interview_qa WHERE id = ?", id)
	return scanOne(row, "get qa")
}

// Last returns the most recent question of the session.
func (s *SqlStore) Last(ctx context.Context, sessionID string) (*QA, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+qaColumns+" FROM interview_qa WHERE session_id = ? ORDER BY id DESC LIMIT 1",
		sessionID,
	)
	return scanOne(row, "last qa")
}

// LastUnanswered returns the most recent question of the session with an empty answer.
func (s *SqlStore) LastUnanswered(ctx context.Context, sessionID string) (*QA, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+qaColumns+" FROM interview_qa WHERE session_id = ? AND answer = '' ORDER BY id DESC LIMIT 1",
		sessionID,
	)
	return scanOne(row, "last unanswered qa")
}

// SaveEvaluation records the answer with its grade and marks the question evaluated.
func (s *SqlStore) SaveEvaluation(ctx context.Context, id int64, answer string, score float64, feedback string) error {
	return s.update(ctx, "save evaluation",
		`UPDATE interview_qa SET answer = ?, score = ?, feedback = ?, evaluated_at = ?,
		 confidence_score = COALESCE(confidence_score, 0) WHERE id = ?`,
		answer, score, feedback, s.timestamp(), id,
	)
}

// SaveTranscript stores a spoken answer with its confidence analysis.
func (s *SqlStore) SaveTranscript(ctx context.Context, id int64, transcript string, confidence float64, feedback string) error {
	return s.update(ctx, "save transcript",
		"UPDATE interview_qa SET answer = ?, confidence_score = ?, confidence_feedback = ? WHERE id = ?",
		transcript, confidence, feedback, id,
	)
}

// SaveConfidence overwrites the confidence score and feedback.
func (s *SqlStore) SaveConfidence(ctx context.Context, id int64, confidence float64, feedback string) error {
	return s.update(ctx, "save confidence",
		"UPDATE interview_qa SET confidence_score = ?, confidence_feedback = ? WHERE id = ?",
		confidence, feedback, id,
	)
}

func (s *SqlStore) update(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// List returns the session's records in creation order. An empty sessionID lists every record.
func (s *SqlStore) List(ctx context.Context, sessionID string) ([]*QA, error) {
	query := "SELECT " + qaColumns + " FROM interview_qa"
	var args []any
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_at, id"

	return s.query(ctx, "list qas", query, args...)
}

// Answered returns the session's records that have an answer.
func (s *SqlStore) Answered(ctx context.Context, sessionID string) ([]*QA, error) {
	return s.query(ctx, "list answered qas",
		"SELECT "+qaColumns+" FROM interview_qa WHERE session_id = ? AND answer != '' ORDER BY id",
		sessionID,
	)
}

// DeleteSession removes every record of the session and returns how many were deleted.
func (s *SqlStore) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM interview_qa WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return n, nil
}

func (s *SqlStore) query(ctx context.Context, op, query string, args ...any) ([]*QA, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	list := []*QA{}
	for rows.Next() {
		qa, err := scanQA(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, qa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner, op string) (*QA, error) {
	qa, err := scanQA(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return qa, nil
}

func scanQA(row scanner) (*QA, error) {
	var qa QA
	var confidence sql.NullFloat64
	var confidenceFeedback, evaluatedAt sql.NullString
	var createdAt string

	err := row.Scan(&qa.ID, &qa.SessionID, &qa.UserID, &qa.Question, &qa.Answer, &qa.Difficulty,
		&qa.Score, &qa.Feedback, &confidence, &confidenceFeedback, &createdAt, &evaluatedAt)
	if err != nil {
		return nil, err
	}

	qa.ConfidenceScore = nullFloat(confidence)
	qa.ConfidenceFeedback = nullStr(confidenceFeedback)

	if qa.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if evaluatedAt.Valid {
		t, err := time.Parse(timeLayout, evaluatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse evaluated_at: %w", err)
		}
		qa.EvaluatedAt = &t
	}

	return &qa, nil
}

func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullFloat(nf sql.NullFloat64) float64 {
	if nf.Valid {
		return nf.Float64
	}
	return 0
}

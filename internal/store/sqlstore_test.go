package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T) *SqlStore {
	t.Helper()
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestSqlStoreQuestionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.AddQuestion(ctx, "s1", "Tell me about yourself.", "Easy")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if first.ID == 0 || first.UserID != DefaultUser || first.Answer != "" || first.Evaluated() {
		t.Fatalf("unexpected new record: %+v", first)
	}
	if !first.CreatedAt.Equal(time.Date(2026, 3, 1, 9, 0, 1, 0, time.UTC)) {
		t.Fatalf("unexpected created_at: %v", first.CreatedAt)
	}

	if err := s.SaveEvaluation(ctx, first.ID, "I build backends.", 6.5, "Reason: ok\nImprovement Areas: detail"); err != nil {
		t.Fatalf("SaveEvaluation: %v", err)
	}

	second, err := s.AddQuestion(ctx, "s1", "Describe a failure.", "Medium")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	last, err := s.Last(ctx, "s1")
	if err != nil || last.ID != second.ID {
		t.Fatalf("Last: got %+v err %v", last, err)
	}

	unanswered, err := s.LastUnanswered(ctx, "s1")
	if err != nil || unanswered.ID != second.ID {
		t.Fatalf("LastUnanswered: got %+v err %v", unanswered, err)
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Evaluated() || got.Answer != "I build backends." || got.Score != 6.5 {
		t.Fatalf("evaluation not stored: %+v", got)
	}
	if got.ConfidenceScore != 0 || got.ConfidenceFeedback != "" {
		t.Fatalf("confidence must default to zero: %+v", got)
	}

	answered, err := s.Answered(ctx, "s1")
	if err != nil || len(answered) != 1 || answered[0].ID != first.ID {
		t.Fatalf("Answered: got %+v err %v", answered, err)
	}
}

func TestSqlStoreTranscriptAndConfidence(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	qa, err := s.AddQuestion(ctx, "s1", "Why us?", "Easy")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	if err := s.SaveTranscript(ctx, qa.ID, "um because of the mission", 6.1, "Your speech shows good confidence."); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	got, _ := s.Get(ctx, qa.ID)
	if got.Answer != "um because of the mission" || got.ConfidenceScore != 6.1 || got.Evaluated() {
		t.Fatalf("unexpected record after transcript: %+v", got)
	}

	if err := s.SaveConfidence(ctx, qa.ID, 9, "Your speech shows excellent confidence and clarity."); err != nil {
		t.Fatalf("SaveConfidence: %v", err)
	}
	got, _ = s.Get(ctx, qa.ID)
	if got.ConfidenceScore != 9 || got.ConfidenceFeedback != "Your speech shows excellent confidence and clarity." {
		t.Fatalf("unexpected record after confidence update: %+v", got)
	}

	if _, err := s.LastUnanswered(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound once answered, got %v", err)
	}
}

func TestSqlStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Get(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Last(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Last: expected ErrNotFound, got %v", err)
	}
	if err := s.SaveConfidence(ctx, 42, 1, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SaveConfidence: expected ErrNotFound, got %v", err)
	}
	if err := s.SaveEvaluation(ctx, 42, "a", 1, "f"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SaveEvaluation: expected ErrNotFound, got %v", err)
	}
}

func TestSqlStoreListAndDeleteSession(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, item := range []struct{ session, question string }{
		{"a", "q1"}, {"b", "q2"}, {"a", "q3"},
	} {
		if _, err := s.AddQuestion(ctx, item.session, item.question, "Easy"); err != nil {
			t.Fatalf("AddQuestion: %v", err)
		}
	}

	questions := func(list []*QA) []string {
		out := []string{}
		for _, qa := range list {
			out = append(out, qa.Question)
		}
		return out
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"q1", "q2", "q3"}, questions(all)); diff != "" {
		t.Fatalf("unexpected list (-want +got):\n%s", diff)
	}

	sessionA, err := s.List(ctx, "a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"q1", "q3"}, questions(sessionA)); diff != "" {
		t.Fatalf("unexpected session list (-want +got):\n%s", diff)
	}

	n, err := s.DeleteSession(ctx, "a")
	if err != nil || n != 2 {
		t.Fatalf("DeleteSession: got %d err %v", n, err)
	}

	rest, _ := s.List(ctx, "")
	if diff := cmp.Diff([]string{"q2"}, questions(rest)); diff != "" {
		t.Fatalf("unexpected remaining records (-want +got):\n%s", diff)
	}

	empty, err := s.List(ctx, "a")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v err %v", empty, err)
	}
}

func TestOpenReopensFileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "interview.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.AddQuestion(ctx, "s1", "Persisted?", "Hard"); err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	list, err := reopened.List(ctx, "s1")
	if err != nil || len(list) != 1 || list[0].Question != "Persisted?" || list[0].Difficulty != "Hard" {
		t.Fatalf("unexpected records after reopen: %+v err %v", list, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

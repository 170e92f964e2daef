package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spigell/interview-prepper/internal/ai"
	"github.com/spigell/interview-prepper/internal/difficulty"
	"github.com/spigell/interview-prepper/internal/interview"
	"github.com/spigell/interview-prepper/internal/store"
)

func TestDifficultyOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *DifficultyConfig
		initial difficulty.Level
		wantErr error
		errText string
	}{
		{name: "nil uses defaults", cfg: nil, initial: difficulty.Easy},
		{
			name:    "custom",
			cfg:     &DifficultyConfig{Initial: "hard", LearningRate: 0.5, DiscountFactor: 0.5, ExplorationRate: 0},
			initial: difficulty.Hard,
		},
		{name: "unknown level", cfg: &DifficultyConfig{Initial: "expert", LearningRate: 0.1}, wantErr: difficulty.ErrUnknownLevel},
		{name: "rate out of range", cfg: &DifficultyConfig{LearningRate: 1.5}, errText: "learning-rate"},
		{name: "zero learning rate", cfg: &DifficultyConfig{LearningRate: 0, DiscountFactor: 0.9}, errText: "learning-rate"},
		{name: "negative exploration", cfg: &DifficultyConfig{LearningRate: 0.1, ExplorationRate: -0.1}, errText: "exploration-rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts, err := difficultyOptions(tt.cfg)
			if tt.errText != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errText) {
					t.Fatalf("expected %q error, got %v", tt.errText, err)
				}
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.Initial != tt.initial {
				t.Fatalf("expected %s, got %s", tt.initial, opts.Initial)
			}
			if tt.cfg != nil && opts.LearningRate != tt.cfg.LearningRate {
				t.Fatalf("expected learning rate %v, got %v", tt.cfg.LearningRate, opts.LearningRate)
			}
		})
	}
}

func TestPrintHistoryGroupsByDay(t *testing.T) {
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	evaluated := first.Add(time.Minute)

	qas := []*store.QA{
		{Question: "Tell me about yourself", Answer: "I build things", Difficulty: "Easy", Score: 7,
			Feedback: "Reason: clear", CreatedAt: first, EvaluatedAt: &evaluated,
			ConfidenceScore: 8.5, ConfidenceFeedback: "Your speech shows excellent confidence and clarity."},
		{Question: "Why us?", Difficulty: "Medium", CreatedAt: first.Add(time.Hour)},
		{Question: "Biggest failure?", Difficulty: "Medium", CreatedAt: first.AddDate(0, 0, 1)},
	}

	var out bytes.Buffer
	printHistory(&out, qas)
	got := out.String()

	if n := strings.Count(got, "=== Interview Session:"); n != 2 {
		t.Fatalf("expected 2 day headers, got %d:\n%s", n, got)
	}
	for _, fragment := range []string{
		"=== Interview Session: 2024-03-01 ===",
		"=== Interview Session: 2024-03-02 ===",
		"Time: 2024-03-01 09:00:00",
		"Score: 7.0/10",
		"Confidence Score: 8.5/10",
		"A: [No answer yet]",
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("output does not contain %q:\n%s", fragment, got)
		}
	}
	if strings.Count(got, "\nScore: ") != 1 {
		t.Fatalf("only the evaluated answer has a score:\n%s", got)
	}
}

func TestPrintHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	printHistory(&out, nil)

	if !strings.Contains(out.String(), "No interviews found") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestPrintReply(t *testing.T) {
	confidence := 6.5
	reply := &interview.Reply{
		Message:             "Describe a conflict you resolved.",
		Difficulty:          "Medium",
		SuggestedDifficulty: "Medium",
		Explanation:         "Increased difficulty (average score: 8.5)",
		ConfidenceScore:     &confidence,
		ConfidenceFeedback:  "Your speech shows good confidence.",
		Evaluation:          &ai.Evaluation{Score: 8, Reason: "Specific", Improvement: "Add numbers"},
	}

	var out bytes.Buffer
	printReply(&out, reply)
	got := out.String()

	for _, fragment := range []string{
		"Score: 8.0/10",
		"Reason: Specific",
		"Improvement areas: Add numbers",
		"Confidence: 6.5/10. Your speech shows good confidence.",
		"Difficulty changed to Medium: Increased difficulty (average score: 8.5)",
		"[Medium] Describe a conflict you resolved.",
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("output does not contain %q:\n%s", fragment, got)
		}
	}
}

func TestReadTranscript(t *testing.T) {
	got, err := readTranscript(strings.NewReader("um hello there"), []string{"-"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "um hello there" {
		t.Fatalf("unexpected transcript: %q", got)
	}

	if _, err := readTranscript(nil, []string{t.TempDir() + "/missing.txt"}); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

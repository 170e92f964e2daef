package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "tell me about yourself", limit: 0, expect: ""},
		{name: "shorter than limit", input: "answer", limit: 10, expect: "answer"},
		{name: "truncated", input: "describe a conflict", limit: 8, expect: "describe..."},
		{name: "multibyte", input: "résumé review", limit: 6, expect: "résumé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestFirstSentence(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Your speech shows good confidence. You used some fillers.": "Your speech shows good confidence.",
		"No terminator here":     "No terminator here",
		"  Great answer! Really": "Great answer!",
		"":                       "",
	}

	for input, expect := range tests {
		if got := FirstSentence(input); got != expect {
			t.Fatalf("FirstSentence(%q): expected %q, got %q", input, expect, got)
		}
	}
}

func TestWaitUsesSleepFunction(t *testing.T) {
	var slept time.Duration
	err := Wait(context.Background(), 3*time.Second, func(d time.Duration) { slept = d })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 3*time.Second {
		t.Fatalf("expected 3s sleep, got %v", slept)
	}
}

func TestWaitReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	defer close(release)

	err := Wait(ctx, time.Hour, func(time.Duration) { <-release })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForSkipsNonPositiveDuration(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

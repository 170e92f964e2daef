package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty: %v", err)
	}

	t.Setenv("INTERVIEW_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		expect  string
		errPart string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "INTERVIEW_TEST_KEY"}, expect: "from-file"},
		{name: "inline before env", src: Source{Value: " inline ", Env: "INTERVIEW_TEST_KEY"}, expect: "inline"},
		{name: "env fallback", src: Source{Env: "INTERVIEW_TEST_KEY"}, expect: "from-env"},
		{name: "empty file", src: Source{Name: "api key", File: emptyFile}, errPart: "api key file"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "nope")}, errPart: "reading secret"},
		{name: "unset env", src: Source{Name: "api key", Env: "INTERVIEW_TEST_UNSET"}, errPart: "set INTERVIEW_TEST_UNSET"},
		{name: "nothing", src: Source{}, errPart: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.errPart != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errPart) {
					t.Fatalf("expected error containing %q, got %v", tt.errPart, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

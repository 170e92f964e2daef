package interview

import (
	"sync"
	"time"

	"github.com/spigell/interview-prepper/internal/difficulty"
	"github.com/spigell/interview-prepper/internal/resume"
)

// Session is one candidate's interview. Its controller is only touched while mu is held.
type Session struct {
	ID             string
	Resume         string
	JobDescription string
	Advice         *resume.Advice
	CreatedAt      time.Time

	mu         sync.Mutex
	controller *difficulty.Controller
}

// Level returns the session's current difficulty.
func (s *Session) Level() difficulty.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Level()
}

// Snapshot returns a copy of the session's difficulty controller state.
func (s *Session) Snapshot() difficulty.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Snapshot()
}

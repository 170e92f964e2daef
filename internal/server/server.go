// Package server exposes interview sessions over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spigell/interview-prepper/internal/interview"
	"github.com/spigell/interview-prepper/internal/store"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// Interviews is the session API the handlers drive. *interview.Manager implements it.
type Interviews interface {
	Start(ctx context.Context, req interview.StartRequest) (*interview.Session, error)
	Chat(ctx context.Context, id, message, override string) (*interview.Reply, error)
	SubmitTranscript(ctx context.Context, id, transcript string, durationSeconds float64) (*interview.TranscriptResult, error)
	Feedback(ctx context.Context, id string) ([]interview.FeedbackItem, error)
	Difficulty(id string) (*interview.DifficultyStatus, error)
	UpdateConfidence(ctx context.Context, qaID int64, score float64) (*store.QA, error)
	End(id string) error
}

type Options struct {
	Listen string
	// AllowedOrigins limits CORS. Empty allows every origin.
	AllowedOrigins []string
	Debug          bool
}

type Server struct {
	interviews Interviews
	logger     *zap.Logger
	engine     *gin.Engine
	listen     string
}

func New(interviews Interviews, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestID(), accessLog(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	s := &Server{
		interviews: interviews,
		logger:     logger,
		engine:     router,
		listen:     opts.Listen,
	}
	s.registerRoutes(router)
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/interview-prepper/internal/ai/gemini"
	"github.com/spigell/interview-prepper/internal/difficulty"
	"github.com/spigell/interview-prepper/internal/interview"
	"github.com/spigell/interview-prepper/internal/logger"
	"github.com/spigell/interview-prepper/internal/secrets"
	"github.com/spigell/interview-prepper/internal/store"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// application bundles what the interview commands share.
type application struct {
	config  *Config
	logger  *zap.Logger
	store   *store.SqlStore
	manager *interview.Manager
}

func newLogger() *zap.Logger {
	l, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// newApplication loads the config and wires the store, the AI backend and the interview manager.
func newApplication(ctx context.Context, log *zap.Logger) *application {
	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	opts, err := difficultyOptions(config.Difficulty)
	if err != nil {
		log.Fatal("invalid difficulty config", zap.Error(err))
	}

	st, err := store.Open(config.Store.Path)
	if err != nil {
		log.Fatal("opening the interview store", zap.Error(err), zap.String("path", config.Store.Path))
	}
	log.Debug("interview store opened", zap.String("path", config.Store.Path))

	interviewer, advisor, err := newAIBackend(ctx, config.AI, log)
	if err != nil {
		st.Close()
		log.Fatal(
			"initializing the ai backend",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY"),
		)
	}

	manager := interview.NewManager(st, interviewer, advisor, interview.Config{
		Difficulty: opts,
		Seed:       config.Difficulty.Seed,
		JobTitle:   config.Resume.JobTitle,
	}, log)

	return &application{
		config:  config,
		logger:  log,
		store:   st,
		manager: manager,
	}
}

func (a *application) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing the interview store", zap.Error(err))
	}
}

func newAIBackend(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*gemini.Interviewer, *gemini.Advisor, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "gemini"
	}
	if provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, nil, err
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:     apiKey,
		Model:      cfg.Gemini.Model,
		MaxRetries: cfg.Gemini.MaxRetries,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	aiLogger := logger.WithAI(log, provider, generator.Model())

	return gemini.NewInterviewer(generator, aiLogger, cfg.Gemini.MaxLogLength),
		gemini.NewAdvisor(generator, aiLogger),
		nil
}

func difficultyOptions(cfg *DifficultyConfig) (difficulty.Options, error) {
	opts := difficulty.DefaultOptions()
	if cfg == nil {
		return opts, nil
	}

	if strings.TrimSpace(cfg.Initial) != "" {
		level, err := difficulty.ParseLevel(cfg.Initial)
		if err != nil {
			return opts, fmt.Errorf("difficulty.initial: %w", err)
		}
		opts.Initial = level
	}

	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return opts, fmt.Errorf("difficulty.learning-rate must be within (0, 1], got %v", cfg.LearningRate)
	}

	for name, v := range map[string]float64{
		"discount-factor":  cfg.DiscountFactor,
		"exploration-rate": cfg.ExplorationRate,
	} {
		if v < 0 || v > 1 {
			return opts, fmt.Errorf("difficulty.%s must be within [0, 1], got %v", name, v)
		}
	}

	opts.LearningRate = cfg.LearningRate
	opts.DiscountFactor = cfg.DiscountFactor
	opts.ExplorationRate = cfg.ExplorationRate

	return opts, nil
}

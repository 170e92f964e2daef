package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "interview-prepper"
)

type Config struct {
	AI         *AIConfig         `mapstructure:"ai"`
	Difficulty *DifficultyConfig `mapstructure:"difficulty"`
	Store      *StoreConfig      `mapstructure:"store"`
	Server     *ServerConfig     `mapstructure:"server"`
	Resume     *ResumeConfig     `mapstructure:"resume"`
}

type ResumeConfig struct {
	// JobTitle is used for résumé advice when an interview does not name one.
	JobTitle string `mapstructure:"job-title"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type DifficultyConfig struct {
	Initial         string  `mapstructure:"initial"`
	LearningRate    float64 `mapstructure:"learning-rate"`
	DiscountFactor  float64 `mapstructure:"discount-factor"`
	ExplorationRate float64 `mapstructure:"exploration-rate"`
	// Seed makes exploration reproducible. Negative values seed from the clock.
	Seed int64 `mapstructure:"seed"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-prepper runs adaptive mock HR interviews backed by an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env must be loaded before the env bindings are read.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	for key, env := range map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.gemini.api-key":      "GEMINI_API_KEY",
		"store.path":             "INTERVIEW_DB",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-prepper.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("difficulty.initial", "Easy")
	viper.SetDefault("difficulty.learning-rate", 0.1)
	viper.SetDefault("difficulty.discount-factor", 0.9)
	viper.SetDefault("difficulty.exploration-rate", 0.2)
	viper.SetDefault("difficulty.seed", -1)

	viper.SetDefault("store.path", "interview.db")
	viper.SetDefault("server.listen", ":8080")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// The default config file is optional, an explicit one is not.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Difficulty == nil {
		config.Difficulty = &DifficultyConfig{Seed: -1}
	}
	if config.Store == nil {
		config.Store = &StoreConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Resume == nil {
		config.Resume = &ResumeConfig{}
	}

	return config, nil
}

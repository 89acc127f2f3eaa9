package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Solutions SolutionsConfig `mapstructure:"solutions"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type CorpusConfig struct {
	// Candidates are tried in order; the first existing archive wins.
	Candidates    []string      `mapstructure:"candidates"`
	Concurrency   int           `mapstructure:"concurrency"`
	MaxEntryBytes int64         `mapstructure:"max_entry_bytes"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

// DatabaseConfig.URL empty keeps papers in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret    string   `mapstructure:"jwt_secret"`
	APIKeyHashes []string `mapstructure:"api_key_hashes"`
}

type StorageConfig struct {
	ImageBaseURL string `mapstructure:"image_base_url"`
}

type SolutionsConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api_key"`
	CLIPath    string        `mapstructure:"cli_path"`
	CLITimeout time.Duration `mapstructure:"cli_timeout"`
	MaxTokens  int64         `mapstructure:"max_tokens"`
}

const envPrefix = "PAPERNEST"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("corpus.candidates", []string{"data/questions.zip", "questions.zip", "/srv/paper-nest/questions.zip"})
	v.SetDefault("corpus.concurrency", 4)
	v.SetDefault("corpus.max_entry_bytes", 64<<20)
	v.SetDefault("corpus.watch_interval", "1m")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.api_key_hashes", []string{})

	v.SetDefault("storage.image_base_url", "/media")

	v.SetDefault("solutions.provider", "")
	v.SetDefault("solutions.model", "")
	v.SetDefault("solutions.api_key", "")
	v.SetDefault("solutions.cli_path", "claude")
	v.SetDefault("solutions.cli_timeout", "2m")
	v.SetDefault("solutions.max_tokens", 2048)
}

// Load reads defaults, then the config file, then PAPERNEST_* environment
// overrides. With an empty path, config.yaml in the working directory is
// optional; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("solutions.api_key", envPrefix+"_SOLUTIONS_API_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if len(c.Corpus.Candidates) == 0 {
		errs = append(errs, "corpus.candidates must list at least one archive path")
	}
	if c.Corpus.Concurrency < 1 {
		errs = append(errs, "corpus.concurrency must be at least 1")
	}
	switch c.Solutions.Provider {
	case "", "mock", "cli", "anthropic":
	default:
		errs = append(errs, fmt.Sprintf("solutions.provider %q is not one of anthropic, cli, mock", c.Solutions.Provider))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

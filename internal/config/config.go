package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Host string `env:"HOST"`
	Port string `env:"PORT"`

	// Gemini accepts either variable; GOOGLE_API_KEY wins when both are set.
	GoogleAPIKey  string        `env:"GOOGLE_API_KEY"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT"`

	// Hugging Face token, checked in this order.
	HFToken          string `env:"HF_TOKEN"`
	HuggingFaceToken string `env:"HUGGINGFACE_TOKEN"`
	LegacyToken      string `env:"token"`

	ImageInferenceURL  string `env:"HF_INFERENCE_URL"`
	ImageProvidersFile string `env:"IMAGE_PROVIDERS_FILE"`

	// BOT_COMMAND is split on whitespace with no quoting. Arguments that
	// contain spaces go in BOT_ARGV, which wins when set.
	BotCommand   string        `env:"BOT_COMMAND"`
	BotArgv      []string      `env:"BOT_ARGV" envSeparator:","`
	BotWorkdir   string        `env:"BOT_WORKDIR"`
	BotStopGrace time.Duration `env:"BOT_STOP_GRACE"`

	MaxMessageLength int    `env:"MAX_MESSAGE_LENGTH"`
	DatabaseURL      string `env:"DATABASE_URL"`

	Log LogConfig
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS"`
}

// Defaults returns the configuration used when nothing is set in the
// environment or .env file.
func Defaults() *Config {
	return &Config{
		Host:              "0.0.0.0",
		Port:              "5000",
		GeminiModel:       "gemini-1.5-flash",
		GeminiTimeout:     10 * time.Second,
		ImageInferenceURL: "https://api-inference.huggingface.co/models",
		BotCommand:        "node bot.js",
		BotWorkdir:        ".",
		BotStopGrace:      5 * time.Second,
		MaxMessageLength:  4000,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads .env (if present) and overlays the environment on Defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if len(c.BotArgs()) == 0 {
		return fmt.Errorf("BOT_COMMAND must not be empty")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength)
	}
	return nil
}

// TextAPIKey is the Gemini credential, empty when text generation is not configured.
func (c *Config) TextAPIKey() string {
	for _, k := range []string{c.GoogleAPIKey, c.GeminiAPIKey} {
		if k = strings.TrimSpace(k); k != "" {
			return k
		}
	}
	return ""
}

// ImageToken returns the first non-empty Hugging Face credential.
func (c *Config) ImageToken() string {
	for _, k := range []string{c.HFToken, c.HuggingFaceToken, c.LegacyToken} {
		if k = strings.TrimSpace(k); k != "" {
			return k
		}
	}
	return ""
}

func (c *Config) BotArgs() []string {
	var argv []string
	for _, a := range c.BotArgv {
		if a = strings.TrimSpace(a); a != "" {
			argv = append(argv, a)
		}
	}
	if len(argv) > 0 {
		return argv
	}
	return strings.Fields(c.BotCommand)
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

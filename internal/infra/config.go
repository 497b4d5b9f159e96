package infra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents application configuration. Values come from an optional
// TOML file with environment variables taking precedence, so a checked-in
// config file can be overridden per shell.
type Config struct {
	AppEnv     string
	DataDir    string
	ListenAddr string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAITextModel  string
	OpenAIImageModel string
	OpenAIVideoModel string

	FalAPIKey  string
	FalBaseURL string

	Locale string

	RequestsPerMinute int

	HTTPReadTimeout time.Duration
	HTTPIdleTimeout time.Duration
}

// fileConfig mirrors the TOML layout of the optional config file.
type fileConfig struct {
	AppEnv     string `toml:"app_env"`
	DataDir    string `toml:"data_dir"`
	ListenAddr string `toml:"listen_addr"`
	Locale     string `toml:"locale"`

	OpenAI struct {
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"`
		TextModel  string `toml:"text_model"`
		ImageModel string `toml:"image_model"`
		VideoModel string `toml:"video_model"`
	} `toml:"openai"`

	Fal struct {
		APIKey  string `toml:"api_key"`
		BaseURL string `toml:"base_url"`
	} `toml:"fal"`

	RequestsPerMinute int `toml:"requests_per_minute"`
}

// LoadConfig loads configuration from the given TOML path (empty means the
// default location) and applies environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var file fileConfig
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		raw, readErr := os.ReadFile(resolved)
		switch {
		case readErr == nil:
			if unmarshalErr := toml.Unmarshal(raw, &file); unmarshalErr != nil {
				return nil, fmt.Errorf("parse config %s: %w", resolved, unmarshalErr)
			}
		case errors.Is(readErr, os.ErrNotExist) && path == "":
			// Default location only; an explicitly named file must exist.
		default:
			return nil, fmt.Errorf("read config %s: %w", resolved, readErr)
		}
	}

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", coalesce(file.AppEnv, "development")),
		DataDir:           getEnv("BRANDFORGE_DATA_DIR", coalesce(file.DataDir, defaultDataDir())),
		ListenAddr:        getEnv("BRANDFORGE_LISTEN_ADDR", coalesce(file.ListenAddr, "127.0.0.1:8787")),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", file.OpenAI.APIKey),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", coalesce(file.OpenAI.BaseURL, "https://api.openai.com/v1")),
		OpenAITextModel:   getEnv("OPENAI_TEXT_MODEL", coalesce(file.OpenAI.TextModel, "gpt-5.2")),
		OpenAIImageModel:  getEnv("OPENAI_IMAGE_MODEL", coalesce(file.OpenAI.ImageModel, "gpt-image-1.5")),
		OpenAIVideoModel:  getEnv("OPENAI_VIDEO_MODEL", coalesce(file.OpenAI.VideoModel, "sora-2")),
		FalAPIKey:         getEnv("FAL_API_KEY", file.Fal.APIKey),
		FalBaseURL:        getEnv("FAL_BASE_URL", coalesce(file.Fal.BaseURL, "https://queue.fal.run")),
		Locale:            getEnv("BRANDFORGE_LOCALE", coalesce(file.Locale, "en")),
		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", firstPositive(file.RequestsPerMinute, 30)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	return cfg, nil
}

// HasPrimaryCredential reports whether the primary provider can be called.
func (c *Config) HasPrimaryCredential() bool {
	return c.OpenAIAPIKey != ""
}

// HasSecondaryCredential reports whether the fallback provider is configured.
func (c *Config) HasSecondaryCredential() bool {
	return c.FalAPIKey != ""
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return abs, nil
	}
	if fromEnv := os.Getenv("BRANDFORGE_CONFIG"); fromEnv != "" {
		return fromEnv, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	return filepath.Join(home, ".config", "brandforge", "config.toml"), nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./brandforge-data"
	}
	return filepath.Join(home, ".local", "share", "brandforge")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/storage"
	"github.com/joho/godotenv"
)

type OAuth struct {
	DiscordKey         string
	DiscordSecret      string
	DiscordCallbackURL string
	GoogleKey          string
	GoogleSecret       string
	GoogleCallbackURL  string
}

// Config holds every setting of the server.
type Config struct {
	Port             int
	DatabasePath     string
	MigrationsURL    string
	SessionLifetime  time.Duration
	AutosaveInterval time.Duration
	LogLevel         string

	AutoResolveByes     bool
	StrictValidation    bool
	GroupStageThreshold int
	QualifiersPerGroup  int

	CORSOrigins []string
	Archive     storage.S3Config
	OAuth       OAuth
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:  getString("DATABASE_PATH", "judging.db"),
		MigrationsURL: getString("MIGRATIONS_URL", "file://migrations"),
		LogLevel:      getString("LOG_LEVEL", "info"),
		CORSOrigins:   getList("CORS_ORIGINS"),
		Archive: storage.S3Config{
			Endpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
			Region:          os.Getenv("ARCHIVE_REGION"),
			Bucket:          os.Getenv("ARCHIVE_BUCKET"),
			AccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
			PublicBaseURL:   os.Getenv("ARCHIVE_PUBLIC_BASE_URL"),
		},
		OAuth: OAuth{
			DiscordKey:         os.Getenv("DISCORD_KEY"),
			DiscordSecret:      os.Getenv("DISCORD_SECRET"),
			DiscordCallbackURL: os.Getenv("DISCORD_CALLBACK_URL"),
			GoogleKey:          os.Getenv("GOOGLE_KEY"),
			GoogleSecret:       os.Getenv("GOOGLE_SECRET"),
			GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		},
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.SessionLifetime, err = getDuration("SESSION_LIFETIME", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutosaveInterval, err = getDuration("AUTOSAVE_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoResolveByes, err = getBool("AUTO_RESOLVE_BYES", true); err != nil {
		return nil, err
	}
	if cfg.StrictValidation, err = getBool("STRICT_VALIDATION", false); err != nil {
		return nil, err
	}
	if cfg.GroupStageThreshold, err = getInt("GROUP_STAGE_THRESHOLD", bracket.DefaultGroupStageThreshold); err != nil {
		return nil, err
	}
	if cfg.QualifiersPerGroup, err = getInt("QUALIFIERS_PER_GROUP", bracket.DefaultQualifiersPerGroup); err != nil {
		return nil, err
	}
	if cfg.QualifiersPerGroup < 1 {
		return nil, fmt.Errorf("QUALIFIERS_PER_GROUP must be at least 1, got %d", cfg.QualifiersPerGroup)
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return v, nil
}

// getList splits a comma separated variable, dropping empty items.
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

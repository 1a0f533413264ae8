package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Practice      PracticeConfig
	Ledger        LedgerConfig
	Questions     QuestionsConfig
	Seed          SeedConfig
	Grading       GradingConfig
	UI            UIConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// PracticeConfig describes the shared grading database learners query against.
type PracticeConfig struct {
	Driver string
	DSN    string
}

// LedgerConfig describes the store holding graded submission history.
type LedgerConfig struct {
	Driver string
	DSN    string
}

type QuestionsConfig struct {
	File string
}

type SeedConfig struct {
	Dir   string
	Files []string
}

type GradingConfig struct {
	AnswerTimeout time.Duration
}

type UIConfig struct {
	PreviewRows    int
	SchemaCacheTTL time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("SQLDRILL_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid SQLDRILL_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "SQLDRILL_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLDRILL_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLDRILL_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLDRILL_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLDRILL_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLDRILL_PRACTICE_DRIVER", &cfg.Practice.Driver); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLDRILL_PRACTICE_DSN", &cfg.Practice.DSN); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLDRILL_LEDGER_DRIVER", &cfg.Ledger.Driver); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLDRILL_LEDGER_DSN", &cfg.Ledger.DSN); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLDRILL_QUESTIONS_FILE", &cfg.Questions.File); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SQLDRILL_SEED_DIR", &cfg.Seed.Dir); err != nil {
		return Config{}, err
	}
	if err := applyStringList(lookup, "SQLDRILL_SEED_FILES", &cfg.Seed.Files); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLDRILL_ANSWER_TIMEOUT", &cfg.Grading.AnswerTimeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "SQLDRILL_PREVIEW_ROWS", &cfg.UI.PreviewRows); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SQLDRILL_SCHEMA_CACHE_TTL", &cfg.UI.SchemaCacheTTL); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SQLDRILL_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "SQLDRILL_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Practice.Driver != "sqlite" && cfg.Practice.Driver != "duckdb" {
		return Config{}, fmt.Errorf("invalid SQLDRILL_PRACTICE_DRIVER: %q", cfg.Practice.Driver)
	}
	if cfg.Ledger.Driver != "sqlite" && cfg.Ledger.Driver != "postgres" {
		return Config{}, fmt.Errorf("invalid SQLDRILL_LEDGER_DRIVER: %q", cfg.Ledger.Driver)
	}
	if cfg.Grading.AnswerTimeout <= 0 {
		return Config{}, fmt.Errorf("answer timeout must be positive")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "sqldrill-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Practice: PracticeConfig{
			Driver: "sqlite",
			DSN:    "drill.db",
		},
		Ledger: LedgerConfig{
			Driver: "sqlite",
			DSN:    "drill.db",
		},
		Questions: QuestionsConfig{
			File: "answers.json",
		},
		Seed: SeedConfig{
			Dir:   "school",
			Files: []string{"STUDENTS.sql", "TEACHERS.sql", "COURSES.sql", "CHOICES.sql"},
		},
		Grading: GradingConfig{
			AnswerTimeout: 2 * time.Second,
		},
		UI: UIConfig{
			PreviewRows:    10,
			SchemaCacheTTL: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyStringList(lookup LookupFunc, key string, dst *[]string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("invalid %s: empty list", key)
	}
	*dst = values
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}

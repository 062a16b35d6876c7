package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"chemquest/internal/app"
	"chemquest/internal/audio"
	"chemquest/internal/catalog"
	"chemquest/internal/domain"
	"chemquest/internal/scoring"
	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CHEMQUEST_REDIS_ADDR.
const EnvPrefix = "CHEMQUEST_"

type Config struct {
	Server   Server   `yaml:"server" envPrefix:"SERVER_"`
	Redis    Redis    `yaml:"redis" envPrefix:"REDIS_"`
	Postgres Postgres `yaml:"postgres" envPrefix:"POSTGRES_"`
	Catalog  Catalog  `yaml:"catalog" envPrefix:"CATALOG_"`
	Quiz     Quiz     `yaml:"quiz" envPrefix:"QUIZ_"`
	Audio    Audio    `yaml:"audio" envPrefix:"AUDIO_"`
	Log      Log      `yaml:"log" envPrefix:"LOG_"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	TTL      string `yaml:"ttl" env:"TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"URL"`
}

// Catalog selects the question catalog. Path loads a YAML file instead of the embedded default.
type Catalog struct {
	ID   string `yaml:"id" env:"ID"`
	Path string `yaml:"path" env:"PATH"`
	TTL  string `yaml:"ttl" env:"TTL"`
}

// Quiz holds the session defaults and scoring constants.
type Quiz struct {
	QuestionCount       int    `yaml:"question_count" env:"QUESTION_COUNT"`
	Difficulty          string `yaml:"difficulty" env:"DIFFICULTY"`
	PerQuestionSeconds  int    `yaml:"per_question_seconds" env:"PER_QUESTION_SECONDS"`
	FeedbackDelay       string `yaml:"feedback_delay" env:"FEEDBACK_DELAY"`
	Variant             string `yaml:"variant" env:"VARIANT"`
	NormalizationFactor int    `yaml:"normalization_factor" env:"NORMALIZATION_FACTOR"`
	BasePoints          int    `yaml:"base_points" env:"BASE_POINTS"`
	PerSecondWeight     int    `yaml:"per_second_weight" env:"PER_SECOND_WEIGHT"`
	Seed                int64  `yaml:"seed" env:"SEED"`
}

type Audio struct {
	Enabled    bool    `yaml:"enabled" env:"ENABLED"`
	Volume     float64 `yaml:"volume" env:"VOLUME"`
	SampleRate int     `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
	Env   string `yaml:"env" env:"ENV"`
}

// Default returns the configuration used when no file or overrides are present.
func Default() Config {
	count := scoring.DefaultCountBased()
	points := scoring.DefaultPointsWithBonus()
	return Config{
		Server:  Server{Port: "8080"},
		Redis:   Redis{TTL: "10m"},
		Catalog: Catalog{ID: catalog.DefaultID, TTL: "10m"},
		Quiz: Quiz{
			QuestionCount:       app.DefaultOptions().QuestionCount,
			FeedbackDelay:       app.DefaultOptions().FeedbackDelay.String(),
			Variant:             scoring.NameCountBased,
			NormalizationFactor: count.NormalizationFactor,
			BasePoints:          points.BasePoints,
			PerSecondWeight:     points.PerSecondWeight,
		},
		Audio: Audio{
			Enabled:    true,
			Volume:     audio.DefaultOptions().Volume,
			SampleRate: audio.DefaultSampleRate,
		},
		Log: Log{Level: "info", Env: "development"},
	}
}

// Load reads YAML config from path on top of Default, then applies CHEMQUEST_* environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// ScoringVariant resolves the configured scoring variant.
func (q Quiz) ScoringVariant() (scoring.Variant, error) {
	return scoring.ParseVariant(q.Variant,
		scoring.CountBased{NormalizationFactor: q.NormalizationFactor},
		scoring.PointsWithBonus{
			BasePoints:      q.BasePoints,
			PerSecondWeight: q.PerSecondWeight,
		},
	)
}

// Options converts the quiz section into session defaults.
func (q Quiz) Options() (app.Options, error) {
	variant, err := q.ScoringVariant()
	if err != nil {
		return app.Options{}, err
	}
	difficulty := domain.Difficulty(q.Difficulty)
	if difficulty != domain.DifficultyAny && !difficulty.Valid() {
		return app.Options{}, fmt.Errorf("quiz difficulty %q: %w", q.Difficulty, domain.ErrInvalidQuestion)
	}
	return app.Options{
		QuestionCount:      q.QuestionCount,
		Difficulty:         difficulty,
		PerQuestionSeconds: q.PerQuestionSeconds,
		FeedbackDelay:      TTLDuration(q.FeedbackDelay, app.DefaultOptions().FeedbackDelay),
		Variant:            variant,
	}, nil
}

// Options converts the audio section into synthesizer options.
func (a Audio) Options() audio.Options {
	return audio.Options{Volume: a.Volume, Enabled: a.Enabled}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

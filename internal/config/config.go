package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trivia-session-engine/internal/app"
	"trivia-session-engine/internal/phase"
	"trivia-session-engine/internal/selection"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Content struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"content"`
	Session struct {
		QuestionsPerPhase int    `yaml:"questions_per_phase"`
		QuestionTimeLimit string `yaml:"question_time_limit"`
		PauseTimeout      string `yaml:"pause_timeout"`
		TTL               string `yaml:"ttl"`
		Retention         string `yaml:"retention"`
		SweepInterval     string `yaml:"sweep_interval"`
		TimeoutGrace      string `yaml:"timeout_grace"`
	} `yaml:"session"`
	Selection struct {
		// Adaptive is a pointer so an omitted key keeps the default of true.
		Adaptive *bool `yaml:"adaptive"`
		Seed     int64 `yaml:"seed"`
	} `yaml:"selection"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
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

// SessionSettings converts the session section, filling gaps with the engine defaults.
func (c Config) SessionSettings() app.Settings {
	def := app.DefaultSettings()
	return app.Settings{
		QuestionTimeLimit: TTLDuration(c.Session.QuestionTimeLimit, def.QuestionTimeLimit),
		PauseTimeout:      TTLDuration(c.Session.PauseTimeout, def.PauseTimeout),
		TTL:               TTLDuration(c.Session.TTL, def.TTL),
		Retention:         TTLDuration(c.Session.Retention, def.Retention),
		TimeoutGrace:      TTLDuration(c.Session.TimeoutGrace, def.TimeoutGrace),
		SweepInterval:     TTLDuration(c.Session.SweepInterval, def.SweepInterval),
	}
}

// SessionStoreTTL returns the Redis key TTL of session snapshots. It never drops below
// session TTL + retention, so a key outlives the point where the session goes stale.
func (c Config) SessionStoreTTL() time.Duration {
	settings := c.SessionSettings()
	floor := settings.TTL + settings.Retention
	ttl := TTLDuration(c.Redis.TTL, floor)
	if ttl < floor {
		return floor
	}
	return ttl
}

// Phases returns the phase tables with the configured phase size.
func (c Config) Phases() phase.Config {
	phases := phase.DefaultConfig()
	if c.Session.QuestionsPerPhase > 0 {
		phases.QuestionsPerPhase = c.Session.QuestionsPerPhase
	}
	return phases
}

// SelectionConfig returns the selector settings.
func (c Config) SelectionConfig() selection.Config {
	sel := selection.DefaultConfig()
	sel.Phases = c.Phases()
	if c.Selection.Adaptive != nil {
		sel.Adaptive = *c.Selection.Adaptive
	}
	return sel
}

// SelectionSeed returns the configured seed, or a time-based one when unset.
func (c Config) SelectionSeed() int64 {
	if c.Selection.Seed != 0 {
		return c.Selection.Seed
	}
	return time.Now().UnixNano()
}

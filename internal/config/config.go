package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Stage struct {
		// Path to the sqlite file backing the recovery stage and attempt
		// markers; empty keeps them in memory.
		Path string `yaml:"path"`
	} `yaml:"stage"`
	Quiz struct {
		DurationMinutes int    `yaml:"duration_minutes"`
		AdvanceDelay    string `yaml:"advance_delay"`
		CacheTTL        string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
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

// QuizDuration returns the configured quiz duration or the fallback.
func (c Config) QuizDuration(fallback time.Duration) time.Duration {
	if c.Quiz.DurationMinutes > 0 {
		return time.Duration(c.Quiz.DurationMinutes) * time.Minute
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Routing  RoutingConfig  `yaml:"routing"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type RoutingConfig struct {
	AutoAssignThreshold  int `yaml:"auto_assign_threshold"`
	DuplicateWindowHours int `yaml:"duplicate_window_hours"`
	RateLimitPerMinute   int `yaml:"rate_limit_per_minute"`
}

type ScoringConfig struct {
	Weights ScoringWeights `yaml:"weights"`
}

type ScoringWeights struct {
	Category    float64 `yaml:"category"`
	PriceRange  float64 `yaml:"price_range"`
	Tier        float64 `yaml:"tier"`
	Workload    float64 `yaml:"workload"`
	Performance float64 `yaml:"performance"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.Routing.DuplicateWindowHours) * time.Hour
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Routing: RoutingConfig{
			AutoAssignThreshold:  80,
			DuplicateWindowHours: 24,
			RateLimitPerMinute:   120,
		},
		Scoring: ScoringConfig{
			Weights: ScoringWeights{
				Category:    0.30,
				PriceRange:  0.25,
				Tier:        0.20,
				Workload:    0.15,
				Performance: 0.10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LEADROUTER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("LEADROUTER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("LEADROUTER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("LEADROUTER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("LEADROUTER_NATS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("LEADROUTER_AUTO_ASSIGN_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Routing.AutoAssignThreshold = n
		}
	}
	if v := os.Getenv("LEADROUTER_DUPLICATE_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Routing.DuplicateWindowHours = n
		}
	}
	if v := os.Getenv("LEADROUTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

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
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		TTL  string `yaml:"ttl"`
		Seed string `yaml:"seed"` // optional CSV loaded into the in-memory bank
	} `yaml:"bank"`
	Gemini Gemini `yaml:"gemini"`
	Game   struct {
		TimerSeconds int    `yaml:"timer_seconds"`
		BotTarget    int    `yaml:"bot_target"`
		TickInterval string `yaml:"tick_interval"`
		BotInterval  string `yaml:"bot_interval"`
	} `yaml:"game"`
}

// Gemini configures the hosted question generator.
type Gemini struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// IsEnabled reports whether an API key is configured.
func (g Gemini) IsEnabled() bool {
	return g.APIKey != ""
}

// Load reads YAML config from path. GEMINI_API_KEY overrides the file.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
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

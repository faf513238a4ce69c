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
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Completion struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"completion"`
	Play struct {
		RestrictedCeiling int    `yaml:"restricted_ceiling"`
		CheckpointEvery   int    `yaml:"checkpoint_every"`
		AchievementTTL    string `yaml:"achievement_ttl"`
		SpeedThreshold    string `yaml:"speed_threshold"`
		ThrowbackWeeks    int    `yaml:"throwback_weeks"`
		Streaks           []int  `yaml:"streaks"`
	} `yaml:"play"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path and fills in play defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Play.RestrictedCeiling <= 0 {
		c.Play.RestrictedCeiling = 6
	}
	if c.Play.CheckpointEvery <= 0 {
		c.Play.CheckpointEvery = 5
	}
	if c.Play.ThrowbackWeeks <= 0 {
		c.Play.ThrowbackWeeks = 4
	}
	if len(c.Play.Streaks) == 0 {
		c.Play.Streaks = []int{3, 5, 10}
	}
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

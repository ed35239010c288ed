package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		StaticDir    string `yaml:"static_dir"`
		SessionTTL   string `yaml:"session_ttl"`
		CookieSecure bool   `yaml:"cookie_secure"`
	} `yaml:"server"`
	Quiz struct {
		SampleSize        int     `yaml:"sample_size"`
		Penalty           float64 `yaml:"penalty"`
		ImmediateFeedback bool    `yaml:"immediate_feedback"`
		TimeLimit         string  `yaml:"time_limit"`
		LeaderboardLimit  int     `yaml:"leaderboard_limit"`
	} `yaml:"quiz"`
	Storage struct {
		QuestionsPath   string `yaml:"questions_path"`
		LeaderboardPath string `yaml:"leaderboard_path"`
		StatsPath       string `yaml:"stats_path"`
		CacheTTL        string `yaml:"cache_ttl"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Admin struct {
		Username     string `yaml:"username"`
		PasswordHash string `yaml:"password_hash"` // bcrypt
		TokenSecret  string `yaml:"token_secret"`
		TokenTTL     string `yaml:"token_ttl"`
	} `yaml:"admin"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads YAML config from path and fills in defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills every unset field with the classic deployment values.
func (c *Config) ApplyDefaults() {
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "static"
	}
	if c.Quiz.SampleSize <= 0 {
		c.Quiz.SampleSize = 40
	}
	if c.Quiz.Penalty <= 0 {
		c.Quiz.Penalty = 2.5
	}
	if c.Quiz.LeaderboardLimit <= 0 {
		c.Quiz.LeaderboardLimit = 50
	}
	if c.Storage.QuestionsPath == "" {
		c.Storage.QuestionsPath = "questions.csv"
	}
	if c.Storage.LeaderboardPath == "" {
		c.Storage.LeaderboardPath = "leaderboard.csv"
	}
	if c.Storage.StatsPath == "" {
		c.Storage.StatsPath = "wrong_answers.csv"
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
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

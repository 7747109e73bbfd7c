package config

import (
	"time"

	"opportunity-engine/pkg/logger"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Trends     TrendsConfig     `mapstructure:"trends"`
	Report     ReportConfig     `mapstructure:"report"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// ExtractionConfig covers the performance API. The token is supplied per run.
type ExtractionConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Country       string        `mapstructure:"country"`
	Location      string        `mapstructure:"location"`
	ShowKeywords  string        `mapstructure:"show_keywords"`
	Locale        string        `mapstructure:"locale"`
	Year          int           `mapstructure:"year"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	CourtesyDelay time.Duration `mapstructure:"courtesy_delay"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type TrendsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Endpoint       string        `mapstructure:"endpoint"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	LocationCode   int           `mapstructure:"location_code"`
	LanguageCode   string        `mapstructure:"language_code"`
	Delay          time.Duration `mapstructure:"delay"`
	RateLimitPause time.Duration `mapstructure:"rate_limit_pause"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// Logging converts the logger section for logger.New.
func (c LoggerConfig) Logging() logger.Config {
	return logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		TimeFormat: c.TimeFormat,
	}
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}

package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/extraction"
	"opportunity-engine/pkg/trends"
)

const (
	EnvPrefix = "OPPORTUNITY"

	DefaultExtractionEndpoint = "https://boost.fattorettosrl.it/api/internal_linking_opportunities"
	DefaultTrendsEndpoint     = "https://api.dataforseo.com/v3/keywords_data/google_trends/explore/live"
	DefaultYear               = 2025
)

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	configPath string
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads configPath on top of the defaults and the environment. An empty path
// loads defaults and environment only.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configPath = configPath
	m.setupViper(configPath)

	config, err := m.read()
	if err != nil {
		return nil, err
	}
	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	config, err := m.read()
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := m.validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)
}

// setDefaults registers every key so that AutomaticEnv can override it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session_ttl", "1h")

	v.SetDefault("extraction.endpoint", DefaultExtractionEndpoint)
	v.SetDefault("extraction.country", "ITA")
	v.SetDefault("extraction.location", extraction.DefaultLocation)
	v.SetDefault("extraction.show_keywords", extraction.DefaultShowKeywords)
	v.SetDefault("extraction.locale", "it")
	v.SetDefault("extraction.year", DefaultYear)
	v.SetDefault("extraction.max_attempts", extraction.DefaultMaxAttempts)
	v.SetDefault("extraction.courtesy_delay", extraction.DefaultCourtesyDelay)
	v.SetDefault("extraction.timeout", api.ExtractionRequestTimeout)

	v.SetDefault("trends.enabled", true)
	v.SetDefault("trends.endpoint", DefaultTrendsEndpoint)
	v.SetDefault("trends.username", "")
	v.SetDefault("trends.password", "")
	v.SetDefault("trends.location_code", trends.DefaultLocationCode)
	v.SetDefault("trends.language_code", trends.DefaultLanguageCode)
	v.SetDefault("trends.delay", trends.DefaultDelay)
	v.SetDefault("trends.rate_limit_pause", trends.DefaultRateLimitPause)
	v.SetDefault("trends.timeout", api.TrendRequestTimeout)

	v.SetDefault("report.output_dir", ".")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "rfc3339")
}

func (m *manager) validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session_ttl cannot be negative")
	}

	if config.Extraction.MaxAttempts <= 0 {
		return fmt.Errorf("extraction.max_attempts must be positive")
	}

	if config.Extraction.Year < 2000 || config.Extraction.Year > 2100 {
		return fmt.Errorf("extraction.year out of range: %d", config.Extraction.Year)
	}

	if config.Extraction.Endpoint == "" {
		return fmt.Errorf("extraction.endpoint cannot be empty")
	}

	if config.Extraction.Country == "" {
		return fmt.Errorf("extraction.country cannot be empty")
	}

	if config.Trends.Enabled && config.Trends.Endpoint == "" {
		return fmt.Errorf("trends.endpoint cannot be empty when trends are enabled")
	}

	if config.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir cannot be empty")
	}

	return nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaEmbedderConfig holds configuration for a local Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// RecordStoreConfig selects and configures the incident record store.
type RecordStoreConfig struct {
	Type     string          `yaml:"type"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Postgres *PostgresConfig `yaml:"postgres,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant collection.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PostgresConfig contains connection details for a pgvector-enabled database.
type PostgresConfig struct {
	DSNEnv   string `yaml:"dsn_env"`
	Table    string `yaml:"table"`
	MaxConns int    `yaml:"max_conns"`
}

// AnalyticsConfig holds the defaults of the analytics pipeline.
type AnalyticsConfig struct {
	FetchLimit       int     `yaml:"fetch_limit"`
	SearchLimit      int     `yaml:"search_limit"`
	TrendWindowDays  int     `yaml:"trend_window_days"`
	RiskDays         int     `yaml:"risk_days"`
	HotspotDays      int     `yaml:"hotspot_days"`
	HotspotThreshold int     `yaml:"hotspot_threshold"`
	FrequencyWeight  float64 `yaml:"frequency_weight"`
	SeverityWeight   float64 `yaml:"severity_weight"`
}

// IngestConfig configures the setup loader.
type IngestConfig struct {
	Path        string `yaml:"path"`
	Concurrency int    `yaml:"concurrency"`
	BatchSize   int    `yaml:"batch_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr                string   `yaml:"addr"`
	CorsOrigins         []string `yaml:"cors_origins"`
	SearchRatePerMinute int      `yaml:"search_rate_per_minute"`
	ReadTimeoutSecs     int      `yaml:"read_timeout_secs"`
	WriteTimeoutSecs    int      `yaml:"write_timeout_secs"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	RecordStore RecordStoreConfig `yaml:"record_store"`
	Analytics   AnalyticsConfig   `yaml:"analytics"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/safetyintel/config.yaml.
// If neither exists, it writes defaults to ~/.config/safetyintel/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "safetyintel", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "hash"},
		RecordStore: RecordStoreConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hash"
	}
	if cfg.Embedder.Dimension == 0 {
		switch cfg.Embedder.Type {
		case "openai":
			cfg.Embedder.Dimension = 1536
		case "ollama":
			cfg.Embedder.Dimension = 768
		default:
			cfg.Embedder.Dimension = 256
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}

	if cfg.RecordStore.Type == "" {
		cfg.RecordStore.Type = "memory"
	}
	if cfg.RecordStore.Type == "qdrant" {
		if cfg.RecordStore.Qdrant == nil {
			cfg.RecordStore.Qdrant = &QdrantConfig{}
		}
		if cfg.RecordStore.Qdrant.URL == "" {
			cfg.RecordStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.RecordStore.Qdrant.Collection == "" {
			cfg.RecordStore.Qdrant.Collection = "crime_incidents"
		}
		if cfg.RecordStore.Qdrant.TimeoutSecs == 0 {
			cfg.RecordStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.RecordStore.Type == "postgres" {
		if cfg.RecordStore.Postgres == nil {
			cfg.RecordStore.Postgres = &PostgresConfig{}
		}
		if cfg.RecordStore.Postgres.DSNEnv == "" {
			cfg.RecordStore.Postgres.DSNEnv = "DATABASE_URL"
		}
		if cfg.RecordStore.Postgres.Table == "" {
			cfg.RecordStore.Postgres.Table = "crime_incidents"
		}
		if cfg.RecordStore.Postgres.MaxConns == 0 {
			cfg.RecordStore.Postgres.MaxConns = 10
		}
	}

	a := &cfg.Analytics
	if a.FetchLimit == 0 {
		a.FetchLimit = 1000
	}
	if a.SearchLimit == 0 {
		a.SearchLimit = 5
	}
	if a.TrendWindowDays == 0 {
		a.TrendWindowDays = 15
	}
	if a.RiskDays == 0 {
		a.RiskDays = 30
	}
	if a.HotspotDays == 0 {
		a.HotspotDays = 30
	}
	if a.HotspotThreshold == 0 {
		a.HotspotThreshold = 3
	}
	if a.FrequencyWeight == 0 {
		a.FrequencyWeight = 5
	}
	if a.SeverityWeight == 0 {
		a.SeverityWeight = 7
	}

	if cfg.Ingest.Path == "" {
		cfg.Ingest.Path = "sample_data/crime_reports.json"
	}
	if cfg.Ingest.Concurrency == 0 {
		cfg.Ingest.Concurrency = 4
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 64
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.CorsOrigins) == 0 {
		cfg.Server.CorsOrigins = []string{"*"}
	}
	if cfg.Server.SearchRatePerMinute == 0 {
		cfg.Server.SearchRatePerMinute = 10
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 10
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = 30
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// applyEnvOverrides lets deployments switch the operational knobs without
// editing the YAML file.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("SAFETYINTEL_RECORD_STORE"); v != "" && v != cfg.RecordStore.Type {
		cfg.RecordStore.Type = v
		applyConfigDefaults(cfg)
	}
	if v := os.Getenv("SAFETYINTEL_QDRANT_URL"); v != "" && cfg.RecordStore.Qdrant != nil {
		cfg.RecordStore.Qdrant.URL = v
	}
	if v := os.Getenv("SAFETYINTEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SAFETYINTEL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

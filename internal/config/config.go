// Package config provides configuration management for the humandbs-sub002
// ingestion and search pipeline.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PipelineConfig is the fully resolved configuration for every pipeline
// stage and the search layer.
type PipelineConfig struct {
	Portal   PortalConfig   `mapstructure:"portal"`
	Index    IndexConfig    `mapstructure:"index"`
	Relation RelationConfig `mapstructure:"relation"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Concurrency int         `mapstructure:"concurrency"`
}

// PortalConfig carries the base URL used to resolve root-relative links
// (spec.md §4.3.2).
type PortalConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// IndexConfig names the three logical Elasticsearch indices.
type IndexConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	ResearchIndex  string   `mapstructure:"research_index"`
	VersionIndex   string   `mapstructure:"research_version_index"`
	DatasetIndex   string   `mapstructure:"dataset_index"`
}

// RelationConfig points at the external study->dataset relation service.
type RelationConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CacheFile  string        `mapstructure:"cache_file"`
	CacheKind  string        `mapstructure:"cache_kind"` // "file" (default) or "redis"
	RedisURL   string        `mapstructure:"redis_url"`
	LRUSize    int           `mapstructure:"lru_size"`
}

// FetchConfig governs the cached HTTP fetcher's retry/backoff behavior
// (spec.md §4.1).
type FetchConfig struct {
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	BackoffCap     time.Duration `mapstructure:"backoff_cap"`
	Multiplier     float64       `mapstructure:"multiplier"`
	JitterFraction float64       `mapstructure:"jitter_fraction"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
}

// PathsConfig names the on-disk layout from spec.md §6.
type PathsConfig struct {
	ResultsDir   string `mapstructure:"results_dir"`
	ConfigDir    string `mapstructure:"config_dir"`
	CacheDir     string `mapstructure:"cache_dir"`
	AdminUIDFile string `mapstructure:"admin_uid_file"`
}

// Manager loads and exposes PipelineConfig, following the teacher's
// load-once-on-construction shape.
type Manager struct {
	config *PipelineConfig
}

// NewManager constructs a Manager, loading configuration from defaults,
// an optional YAML file, and environment variables (HUMANDBS_* prefix).
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/humandbs-sub002/")

	viper.SetEnvPrefix("HUMANDBS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables.
	}

	cfg := &PipelineConfig{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = cfg
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("portal.base_url", "https://humandbs.dbcls.jp")

	viper.SetDefault("index.addresses", []string{"http://localhost:9200"})
	viper.SetDefault("index.research_index", "research")
	viper.SetDefault("index.research_version_index", "research-version")
	viper.SetDefault("index.dataset_index", "dataset")

	viper.SetDefault("relation.endpoint", "http://localhost:9100/relations")
	viper.SetDefault("relation.timeout", "10s")
	viper.SetDefault("relation.cache_file", "./cache/relation-cache.json")
	viper.SetDefault("relation.cache_kind", "file")
	viper.SetDefault("relation.lru_size", 2048)

	viper.SetDefault("fetch.initial_backoff", "100ms")
	viper.SetDefault("fetch.backoff_cap", "5s")
	viper.SetDefault("fetch.multiplier", 2.0)
	viper.SetDefault("fetch.jitter_fraction", 0.25)
	viper.SetDefault("fetch.max_retries", 3)
	viper.SetDefault("fetch.rate_per_second", 5.0)

	viper.SetDefault("paths.results_dir", "./results")
	viper.SetDefault("paths.config_dir", "./config")
	viper.SetDefault("paths.cache_dir", "./cache/html")
	viper.SetDefault("paths.admin_uid_file", "./config/admin-uids.json")

	viper.SetDefault("concurrency", 5)
}

// GetConfig returns the resolved configuration.
func (m *Manager) GetConfig() *PipelineConfig {
	return m.config
}

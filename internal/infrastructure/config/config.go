package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Ethereum EthereumConfig `mapstructure:"ethereum"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Health   HealthConfig   `mapstructure:"health"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string `mapstructure:"env"`
	LogLevel       string `mapstructure:"log_level"`
	HTTPPort       int    `mapstructure:"http_port"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
	BatchSize      int    `mapstructure:"batch_size"`
}

// EthereumConfig represents the JSON-RPC provider configuration
type EthereumConfig struct {
	RPCURL             string        `mapstructure:"rpc_url"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	TransferCategories []string      `mapstructure:"transfer_categories"`
	MaxTransferCount   int           `mapstructure:"max_transfer_count"`
}

// ExplorerConfig tunes the transfer pager, log scanner and token cache
type ExplorerConfig struct {
	MaxPages       int           `mapstructure:"max_pages"`
	LogScanSpan    uint64        `mapstructure:"log_scan_span"`
	LogScanBlocks  uint64        `mapstructure:"log_scan_blocks"`
	TokenCacheSize int           `mapstructure:"token_cache_size"`
	TokenCacheTTL  time.Duration `mapstructure:"token_cache_ttl"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                 string        `mapstructure:"url"`
	StreamName          string        `mapstructure:"stream_name"`
	SubjectPrefix       string        `mapstructure:"subject_prefix"`
	ConsumerGroup       string        `mapstructure:"consumer_group"`
	ConnectTimeout      time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts   int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay      time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages  int           `mapstructure:"max_pending_messages"`
	Enabled             bool          `mapstructure:"enabled"`
	DecodedSubject      string        `mapstructure:"decoded_subject"`
	LookupSubject       string        `mapstructure:"lookup_subject"`
	LookupResultSubject string        `mapstructure:"lookup_result_subject"`
}

// HealthConfig represents health check configuration
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from environment variables and the default config locations
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from an explicit file. An empty path searches
// the default locations.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/chain-explorer")
	}

	// Environment variables
	v.AutomaticEnv()

	// Map environment variables to nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that have no usable fallback
func (c *Config) Validate() error {
	if c.App.WorkerPoolSize <= 0 {
		return fmt.Errorf("app.worker_pool_size must be positive, got %d", c.App.WorkerPoolSize)
	}
	if c.App.BatchSize <= 0 {
		return fmt.Errorf("app.batch_size must be positive, got %d", c.App.BatchSize)
	}
	if c.Explorer.LogScanSpan == 0 {
		return fmt.Errorf("explorer.log_scan_span must be at least 1")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.http_port", 8080)
	v.SetDefault("app.worker_pool_size", 10)
	v.SetDefault("app.batch_size", 100)

	// Ethereum defaults
	v.SetDefault("ethereum.rpc_url", "http://localhost:8545")
	v.SetDefault("ethereum.request_timeout", "15s")
	v.SetDefault("ethereum.transfer_categories", []string{"external", "internal", "erc20", "erc721", "erc1155"})
	v.SetDefault("ethereum.max_transfer_count", 1000)

	// Explorer defaults
	v.SetDefault("explorer.max_pages", 1)
	v.SetDefault("explorer.log_scan_span", 1)
	v.SetDefault("explorer.log_scan_blocks", 10)
	v.SetDefault("explorer.token_cache_size", 8)
	v.SetDefault("explorer.token_cache_ttl", "1h")

	// NATS defaults
	v.SetDefault("nats.url", "nats://ethereum-nats:4222")
	v.SetDefault("nats.stream_name", "TRANSACTIONS")
	v.SetDefault("nats.subject_prefix", "transactions")
	v.SetDefault("nats.consumer_group", "chain-explorer")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_pending_messages", 10000)
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.decoded_subject", "transactions.decoded")
	v.SetDefault("nats.lookup_subject", "explorer.lookup")
	v.SetDefault("nats.lookup_result_subject", "explorer.lookup.result")

	// Health defaults
	v.SetDefault("health.interval", "30s")
	v.SetDefault("health.timeout", "5s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Bind env for well-known variables
	_ = v.BindEnv("nats.url", "NATS_URL")
	_ = v.BindEnv("ethereum.rpc_url", "ETH_RPC_URL")
}

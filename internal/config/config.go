package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/drips-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// URIConfig holds URI resolver configuration
type URIConfig struct {
	IPFSGateways []string `mapstructure:"ipfs_gateways"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL             string        `mapstructure:"url"`
	StreamName      string        `mapstructure:"stream_name"`
	ConsumerName    string        `mapstructure:"consumer_name"`
	MaxReconnects   int           `mapstructure:"max_reconnects"`
	ReconnectWait   time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName  string        `mapstructure:"connection_name"`
	AckWait         time.Duration `mapstructure:"ack_wait"`
	MaxDeliver      int           `mapstructure:"max_deliver"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// EthereumConfig holds Ethereum-specific configuration
type EthereumConfig struct {
	WebSocketURL      string       `mapstructure:"websocket_url"`
	RPCURL            string       `mapstructure:"rpc_url"`
	ChainID           domain.Chain `mapstructure:"chain_id"`
	StartBlock        uint64       `mapstructure:"start_block"`
	DripsAddress      string       `mapstructure:"drips_address"`
	RepoDriverAddress string       `mapstructure:"repo_driver_address"`
	NftDriverAddress  string       `mapstructure:"nft_driver_address"`
}

// DripsConfig holds protocol settings that change how events are projected
type DripsConfig struct {
	// VisibilityThresholdBlockNumber is the block from which minted drip lists are visible
	VisibilityThresholdBlockNumber uint64 `mapstructure:"visibility_threshold_block_number"`
}

// SubscriptionConfig holds subscription manager configuration
type SubscriptionConfig struct {
	ResubscribeInterval time.Duration `mapstructure:"resubscribe_interval"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
	CursorSaveFreq      uint64        `mapstructure:"cursor_save_freq"`  // Save cursor every N blocks
	CursorSaveDelay     time.Duration `mapstructure:"cursor_save_delay"` // Or save cursor every N seconds
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int           `mapstructure:"pool_size"`
	WorkerQueueSize int           `mapstructure:"queue_size"`
	NakDelay        time.Duration `mapstructure:"nak_delay"`
	NakMaxDelay     time.Duration `mapstructure:"nak_max_delay"`
}

// MetadataConfig holds account metadata fetching configuration
type MetadataConfig struct {
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`

	// RequestsPerSecond caps requests per gateway host, zero disables the limit
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RedisConfig holds the optional metadata cache configuration. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EventSubscriberConfig holds configuration for event-subscriber
type EventSubscriberConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Database     DatabaseConfig     `mapstructure:"database"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Ethereum     EthereumConfig     `mapstructure:"ethereum"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
}

// EventProcessorConfig holds configuration for event-processor
type EventProcessorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Drips      DripsConfig    `mapstructure:"drips"`
	Worker     WorkerConfig   `mapstructure:"worker"`
	URI        URIConfig      `mapstructure:"uri"`
	Metadata   MetadataConfig `mapstructure:"metadata"`
	Redis      RedisConfig    `mapstructure:"redis"`
}

// LoadEventSubscriberConfig loads configuration for event-subscriber
func LoadEventSubscriberConfig(configFile string, envPath string) (*EventSubscriberConfig, error) {
	v := configureViper("event-subscriber", configFile, envPath)

	// Set defaults
	setCommonDefaults(v)
	v.SetDefault("nats.connection_name", "event-subscriber")
	v.SetDefault("subscription.resubscribe_interval", "5m")
	v.SetDefault("subscription.retry_delay", "5s")
	v.SetDefault("subscription.cursor_save_freq", 10)
	v.SetDefault("subscription.cursor_save_delay", "30s")

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var config EventSubscriberConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Ethereum.validate(); err != nil {
		return nil, err
	}
	if config.Ethereum.WebSocketURL == "" {
		return nil, errors.New("ethereum.websocket_url is required")
	}

	return &config, nil
}

// LoadEventProcessorConfig loads configuration for event-processor
func LoadEventProcessorConfig(configFile string, envPath string) (*EventProcessorConfig, error) {
	v := configureViper("event-processor", configFile, envPath)

	// Set defaults
	setCommonDefaults(v)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("nats.connection_name", "event-processor")
	v.SetDefault("nats.consumer_name", "event-processor")
	v.SetDefault("nats.ack_wait", "60s")
	v.SetDefault("nats.max_deliver", 10)
	v.SetDefault("worker.pool_size", 8)
	v.SetDefault("worker.queue_size", 64)
	v.SetDefault("worker.nak_delay", "5s")
	v.SetDefault("worker.nak_max_delay", "5m")
	v.SetDefault("uri.ipfs_gateways", []string{"https://ipfs.io", "https://dweb.link"})
	v.SetDefault("metadata.http_timeout", "30s")
	v.SetDefault("metadata.max_body_bytes", 1024*1024) // 1MB
	v.SetDefault("metadata.requests_per_second", 5)
	v.SetDefault("metadata.burst", 10)
	v.SetDefault("redis.ttl", "0s")

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var config EventProcessorConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Ethereum.validate(); err != nil {
		return nil, err
	}
	if config.Ethereum.RPCURL == "" {
		return nil, errors.New("ethereum.rpc_url is required")
	}

	return &config, nil
}

func setCommonDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "DRIPS_EVENTS")
	v.SetDefault("nats.duplicate_window", "2h")
	v.SetDefault("ethereum.chain_id", "eip155:1")
}

// readInConfig reads the config file, tolerating a missing one so env-only deployments work
func readInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// validate checks the chain id and that every contract address is set and well formed
func (c *EthereumConfig) validate() error {
	if !domain.IsValidChain(c.ChainID) {
		return fmt.Errorf("unsupported ethereum.chain_id: %s", c.ChainID)
	}

	for key, address := range map[string]string{
		"ethereum.drips_address":       c.DripsAddress,
		"ethereum.repo_driver_address": c.RepoDriverAddress,
		"ethereum.nft_driver_address":  c.NftDriverAddress,
	} {
		if address == "" {
			return fmt.Errorf("%s is required", key)
		}
		if !common.IsHexAddress(address) {
			return fmt.Errorf("%s is not a valid address: %s", key, address)
		}
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/event-processor/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("DRIPS_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.duplicate_window",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.rpc_url",
		"ethereum.chain_id",
		"ethereum.start_block",
		"ethereum.drips_address",
		"ethereum.repo_driver_address",
		"ethereum.nft_driver_address",
		// Drips
		"drips.visibility_threshold_block_number",
		// Subscription
		"subscription.resubscribe_interval",
		"subscription.retry_delay",
		"subscription.cursor_save_freq",
		"subscription.cursor_save_delay",
		// Worker
		"worker.pool_size",
		"worker.queue_size",
		"worker.nak_delay",
		"worker.nak_max_delay",
		// URI
		"uri.ipfs_gateways",
		// Metadata
		"metadata.http_timeout",
		"metadata.max_body_bytes",
		"metadata.requests_per_second",
		"metadata.burst",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		"redis.ttl",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

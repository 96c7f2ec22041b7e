// Package config loads bucketdag node configuration from a YAML file, a
// .env file and the environment, in that order of increasing precedence.
//
// Version: v0.1.0
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bucketdag/core/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a bucketdag node.
type Config struct {
	Network struct {
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		DiscoveryTag   string   `mapstructure:"discovery_tag" json:"discovery_tag"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	Sync struct {
		PingIntervalSeconds int `mapstructure:"ping_interval_seconds" json:"ping_interval_seconds"`
		BlobFetchTimeoutSec int `mapstructure:"blob_fetch_timeout_seconds" json:"blob_fetch_timeout_seconds"`
		PingTimeoutSeconds  int `mapstructure:"ping_timeout_seconds" json:"ping_timeout_seconds"`
		MaxWalkDepth        int `mapstructure:"max_walk_depth" json:"max_walk_depth"`
		QueueCapacity       int `mapstructure:"queue_capacity" json:"queue_capacity"`
	} `mapstructure:"sync" json:"sync"`

	Storage struct {
		DataDir string `mapstructure:"data_dir" json:"data_dir"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// PingInterval returns the configured ping interval as a time.Duration.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Sync.PingIntervalSeconds) * time.Second
}

// BlobFetchTimeout returns the configured blob fetch timeout as a
// time.Duration.
func (c *Config) BlobFetchTimeout() time.Duration {
	return time.Duration(c.Sync.BlobFetchTimeoutSec) * time.Second
}

// PingTimeout returns the configured ping timeout as a time.Duration.
func (c *Config) PingTimeout() time.Duration {
	return time.Duration(c.Sync.PingTimeoutSeconds) * time.Second
}

func setDefaults() {
	viper.SetDefault("network.listen_addr", "/ip4/0.0.0.0/tcp/0")
	viper.SetDefault("network.discovery_tag", "bucketdag-mdns")
	viper.SetDefault("sync.ping_interval_seconds", 60)
	viper.SetDefault("sync.blob_fetch_timeout_seconds", 30)
	viper.SetDefault("sync.ping_timeout_seconds", 5)
	viper.SetDefault("sync.max_walk_depth", 100_000)
	viper.SetDefault("sync.queue_capacity", 256)
	viper.SetDefault("storage.data_dir", "./data")
	viper.SetDefault("logging.level", "info")
}

// Load reads configuration from cmd/config or config (whichever exists),
// merges an environment-specific override file when env is non-empty, then
// loads a .env file (if present) and applies environment variable
// overrides. The resulting configuration is stored in AppConfig.
func Load(env string) (*Config, error) {
	_ = godotenv.Load() // optional .env; missing file is not an error

	setDefaults()
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("bucketdag")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the BUCKETDAG_ENV environment
// variable to select an override file.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("BUCKETDAG_ENV", ""))
}

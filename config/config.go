package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Skinflow SkinflowConfig `yaml:"skinflow"`
	Logging  LoggingConfig  `yaml:"logging"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Source   SourceConfig   `yaml:"source"`
	Client   ClientConfig   `yaml:"client"`
	Export   ExportConfig   `yaml:"export"`
	Storage  StorageConfig  `yaml:"storage"`
}

type SkinflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	DashboardName string `yaml:"dashboard_name"`
}

type CatalogConfig struct {
	Input      string `yaml:"input"`
	Checkpoint string `yaml:"checkpoint"`
}

type SourceConfig struct {
	Steam SteamSourceConfig `yaml:"steam"`
}

type SteamSourceConfig struct {
	ListingURL     string               `yaml:"listing_url"`
	HistogramURL   string               `yaml:"histogram_url"`
	OverviewURL    string               `yaml:"overview_url"`
	AppID          int                  `yaml:"app_id"`
	Country        string               `yaml:"country"`
	Currency       int                  `yaml:"currency"`
	Language       string               `yaml:"language"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type ClientConfig struct {
	Timeout   time.Duration   `yaml:"timeout"`
	UserAgent string          `yaml:"user_agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	MinDelay          time.Duration `yaml:"min_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	Backoff           time.Duration `yaml:"backoff"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
}

type ExportConfig struct {
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Default returns the built-in configuration. The binary is expected to run
// with no config file at all, so every field carries a usable default.
func Default() *Config {
	return &Config{
		Skinflow: SkinflowConfig{
			Name:    "skinflow",
			Version: "1.0.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Catalog: CatalogConfig{
			Input:      "skin_info_sanitized.json",
			Checkpoint: "complete_skin_info.json",
		},
		Source: SourceConfig{
			Steam: SteamSourceConfig{
				ListingURL:   "https://steamcommunity.com/market/listings/730",
				HistogramURL: "https://steamcommunity.com/market/itemordershistogram",
				OverviewURL:  "https://steamcommunity.com/market/priceoverview/",
				AppID:        730,
				Country:      "US",
				Currency:     1,
				Language:     "english",
				ConnectionPool: ConnectionPoolConfig{
					MaxIdleConns:    10,
					MaxConnsPerHost: 10,
					IdleConnTimeout: 90 * time.Second,
				},
			},
		},
		Client: ClientConfig{
			Timeout:   30 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			RateLimit: RateLimitConfig{
				MinDelay:   1500 * time.Millisecond,
				MaxDelay:   3 * time.Second,
				Backoff:    5 * time.Second,
				MaxRetries: 5,
				Burst:      1,
			},
		},
		Export: ExportConfig{
			Parquet: ParquetConfig{
				Enabled:     false,
				Dir:         "exports",
				Compression: "snappy",
			},
		},
	}
}

const defaultConfigPath = "config/config.yml"

// LoadConfig reads the YAML file at path over the built-in defaults. A missing
// file is not an error: the defaults alone describe a runnable setup. When the
// default path is requested, APP_ENV may redirect to an environment specific
// file.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	path = resolveEnvSpecificPath(path, defaultConfigPath, environmentConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if verr := validateConfig(config); verr != nil {
				return nil, fmt.Errorf("configuration validation failed: %w", verr)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Skinflow.Name == "" {
		return fmt.Errorf("skinflow.name is required")
	}

	if cfg.Skinflow.Version == "" {
		return fmt.Errorf("skinflow.version is required")
	}

	if cfg.Catalog.Input == "" {
		return fmt.Errorf("catalog.input is required")
	}
	if cfg.Catalog.Checkpoint == "" {
		return fmt.Errorf("catalog.checkpoint is required")
	}

	steam := cfg.Source.Steam
	if steam.ListingURL == "" {
		return fmt.Errorf("source.steam.listing_url is required")
	}
	if steam.HistogramURL == "" {
		return fmt.Errorf("source.steam.histogram_url is required")
	}
	if steam.OverviewURL == "" {
		return fmt.Errorf("source.steam.overview_url is required")
	}
	if steam.AppID <= 0 {
		return fmt.Errorf("source.steam.app_id must be greater than 0")
	}
	if steam.Currency <= 0 {
		return fmt.Errorf("source.steam.currency must be greater than 0")
	}

	if cfg.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be greater than 0")
	}

	rl := cfg.Client.RateLimit
	if rl.MinDelay <= 0 {
		return fmt.Errorf("client.rate_limit.min_delay must be greater than 0")
	}
	if rl.MaxDelay < rl.MinDelay {
		return fmt.Errorf("client.rate_limit.max_delay must be >= min_delay")
	}
	if rl.Backoff <= 0 {
		return fmt.Errorf("client.rate_limit.backoff must be greater than 0")
	}
	if rl.MaxRetries < 0 {
		return fmt.Errorf("client.rate_limit.max_retries must not be negative")
	}
	if rl.RequestsPerMinute < 0 {
		return fmt.Errorf("client.rate_limit.requests_per_minute must not be negative")
	}
	if rl.RequestsPerMinute > 0 && rl.Burst <= 0 {
		return fmt.Errorf("client.rate_limit.burst must be greater than 0 when requests_per_minute is set")
	}

	if cfg.Export.Parquet.Enabled && cfg.Export.Parquet.Dir == "" {
		return fmt.Errorf("export.parquet.dir is required when parquet export is enabled")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}

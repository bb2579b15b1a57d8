// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines the hwpdump configuration schema.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	S3      S3Config      `yaml:"s3"`
	Decoder DecoderConfig `yaml:"decoder"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type SourceConfig struct {
	// Kind is "dir" or "s3".
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	KMSKeyARN       string `yaml:"kms_key_arn"`
}

type DecoderConfig struct {
	Workers int  `yaml:"workers"`
	Strict  bool `yaml:"strict"`
}

type CacheConfig struct {
	Bytes int `yaml:"bytes"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	SourceDir = "dir"
	SourceS3  = "s3"

	defaultWorkers    = 4
	defaultCacheBytes = 64 << 20
	defaultRegion     = "us-east-1"
	defaultLogLevel   = "warn"
)

// Load reads the YAML file at path (optional), applies HWPSCALE_*
// environment overrides, then overrides (command-line flags), then defaults,
// and validates the result.
func Load(path string, overrides ...func(*Config)) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	for _, o := range overrides {
		o(&cfg)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Source.Kind = envOrDefault("HWPSCALE_SOURCE_KIND", cfg.Source.Kind)
	cfg.Source.Path = envOrDefault("HWPSCALE_SOURCE_PATH", cfg.Source.Path)
	cfg.S3.Bucket = envOrDefault("HWPSCALE_S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Prefix = envOrDefault("HWPSCALE_S3_PREFIX", cfg.S3.Prefix)
	cfg.S3.Endpoint = envOrDefault("HWPSCALE_S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Region = envOrDefault("HWPSCALE_S3_REGION", cfg.S3.Region)
	cfg.S3.PathStyle = parseEnvBool("HWPSCALE_S3_PATH_STYLE", cfg.S3.PathStyle)
	cfg.S3.AccessKeyID = envOrDefault("HWPSCALE_S3_ACCESS_KEY", cfg.S3.AccessKeyID)
	cfg.S3.SecretAccessKey = envOrDefault("HWPSCALE_S3_SECRET_KEY", cfg.S3.SecretAccessKey)
	cfg.S3.SessionToken = envOrDefault("HWPSCALE_S3_SESSION_TOKEN", cfg.S3.SessionToken)
	cfg.S3.KMSKeyARN = envOrDefault("HWPSCALE_S3_KMS_ARN", cfg.S3.KMSKeyARN)
	cfg.Decoder.Workers = parseEnvInt("HWPSCALE_WORKERS", cfg.Decoder.Workers)
	cfg.Decoder.Strict = parseEnvBool("HWPSCALE_STRICT", cfg.Decoder.Strict)
	cfg.Cache.Bytes = parseEnvInt("HWPSCALE_CACHE_BYTES", cfg.Cache.Bytes)
	cfg.Metrics.Addr = envOrDefault("HWPSCALE_METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Log.Level = envOrDefault("HWPSCALE_LOG_LEVEL", cfg.Log.Level)
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Kind == "" {
		if cfg.S3.Bucket != "" {
			cfg.Source.Kind = SourceS3
		} else {
			cfg.Source.Kind = SourceDir
		}
	}
	if cfg.Source.Kind == SourceS3 && cfg.S3.Region == "" {
		cfg.S3.Region = defaultRegion
	}
	if cfg.Decoder.Workers == 0 {
		cfg.Decoder.Workers = defaultWorkers
	}
	if cfg.Cache.Bytes == 0 {
		cfg.Cache.Bytes = defaultCacheBytes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Source.Kind {
	case SourceDir:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for source.kind=dir")
		}
	case SourceS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required for source.kind=s3")
		}
	default:
		return fmt.Errorf("source.kind %q is not supported", c.Source.Kind)
	}
	if c.Decoder.Workers < 0 {
		return fmt.Errorf("decoder.workers must be positive, got %d", c.Decoder.Workers)
	}
	if c.Cache.Bytes < 0 {
		return fmt.Errorf("cache.bytes must not be negative, got %d", c.Cache.Bytes)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", c.Log.Level)
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		return val
	}
	return fallback
}

func parseEnvInt(name string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseEnvBool(name string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		switch strings.ToLower(val) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}

// Package config loads the scanner configuration: defaults, an optional
// yaml file, then environment overrides (a .env file is honored when
// present).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/forensio/imageinv/pkg/logger"
)

// ArchiveConfig describes the optional post-run upload of the outputs to
// an S3-compatible bucket. Credentials normally come from the environment,
// not the yaml file.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
	Prefix    string `yaml:"prefix"`
}

// Config is the full scanner configuration.
type Config struct {
	Source      string        `yaml:"source"`
	ReportPath  string        `yaml:"reportPath"`
	MapPath     string        `yaml:"mapPath"`
	MapTitle    string        `yaml:"mapTitle"`
	Concurrency int           `yaml:"concurrency"`
	Log         logger.Config `yaml:"log"`
	Archive     ArchiveConfig `yaml:"archive"`
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env just means plain environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		ReportPath:  "report.csv",
		MapPath:     "locations.kml",
		Concurrency: 4,
		Log: logger.Config{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr", "logs/imageinv.log"},
			MaxSize:     50,
			MaxBackups:  3,
			MaxAge:      14,
			Compress:    true,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("IMAGEINV_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv("IMAGEINV_REPORT"); v != "" {
		cfg.ReportPath = v
	}
	if v := os.Getenv("IMAGEINV_MAP"); v != "" {
		cfg.MapPath = v
	}
	if v := os.Getenv("IMAGEINV_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("IMAGEINV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET_NAME"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("MINIO_REGION"); v != "" {
		cfg.Archive.Region = v
	}
}

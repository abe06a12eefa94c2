package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines tool configuration.
type Config struct {
	DB     DBConfig     `yaml:"db"`
	Cache  CacheConfig  `yaml:"cache"`
	Images ImagesConfig `yaml:"images"`
	Log    LogConfig    `yaml:"log"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	Dir      string `yaml:"dir"`
	TTLHours int    `yaml:"ttl_hours"`
}

type ImagesConfig struct {
	// Dir holds the source image files referenced by task frames. When set,
	// exports copy the files into the archive.
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		DB: DBConfig{
			Path: "labelport.db",
		},
		Cache: CacheConfig{
			Dir:      "export_cache",
			TTLHours: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("LABELPORT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dbPath := os.Getenv("LABELPORT_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if cacheDir := os.Getenv("LABELPORT_CACHE_DIR"); cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if ttlStr := os.Getenv("LABELPORT_CACHE_TTL_HOURS"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LABELPORT_CACHE_TTL_HOURS: %w", err)
		}
		cfg.Cache.TTLHours = ttl
	}
	if imagesDir := os.Getenv("LABELPORT_IMAGES_DIR"); imagesDir != "" {
		cfg.Images.Dir = imagesDir
	}
	if level := os.Getenv("LABELPORT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

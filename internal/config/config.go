// Package config loads nestboard settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"nestboard/internal/storage"
)

// EnvPrefix is the prefix of every environment variable read. The rest of the
// name is lowercased and "_" becomes a key separator: NESTBOARD_STORAGE_DRIVER
// sets storage.driver.
const EnvPrefix = "NESTBOARD_"

type Config struct {
	DataDir string              `koanf:"data"`
	Storage storage.Config      `koanf:"storage"`
	Blobs   storage.BlobsConfig `koanf:"blobs"`
	History HistoryConfig       `koanf:"history"`
	GC      GCConfig            `koanf:"gc"`
	Links   LinksConfig         `koanf:"links"`
	Backup  BackupConfig        `koanf:"backup"`
	Log     LogConfig           `koanf:"log"`
}

type HistoryConfig struct {
	Limit int `koanf:"limit"`
}

type GCConfig struct {
	Delay   int `koanf:"delay"`
	Workers int `koanf:"workers"`
}

type LinksConfig struct {
	TTL int `koanf:"ttl"`
}

type BackupConfig struct {
	Dir      string `koanf:"dir"`
	Schedule string `koanf:"schedule"`
	Keep     int    `koanf:"keep"`
	Interval int    `koanf:"interval"`
	Watch    string `koanf:"watch"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		DataDir: dataDir,
		Storage: storage.Config{Driver: storage.DriverSQLite},
		History: HistoryConfig{Limit: 50},
		GC:      GCConfig{Delay: 10, Workers: 4},
		Links:   LinksConfig{TTL: 50},
		Backup:  BackupConfig{Keep: 20, Interval: 100},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nestboard"
	}
	return filepath.Join(home, ".local", "share", "nestboard")
}

// Load reads the environment over the defaults. Overrides are dotted keys
// (such as "storage.driver") that win over the environment, typically set
// from command-line flags.
func Load(overrides map[string]any) (Config, error) {
	return load(env.Provider(EnvPrefix, ".", envKey), overrides)
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

func load(p koanf.Provider, overrides map[string]any) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(p, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return Config{}, fmt.Errorf("set %s: %w", key, err)
		}
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.resolvePaths()
	return cfg, nil
}

// resolvePaths places file-based stores and backups under DataDir unless set.
func (c *Config) resolvePaths() {
	if c.Storage.Path == "" {
		switch strings.ToLower(c.Storage.Driver) {
		case "", storage.DriverSQLite:
			c.Storage.Path = filepath.Join(c.DataDir, "nestboard.db")
		case storage.DriverBolt:
			c.Storage.Path = filepath.Join(c.DataDir, "nestboard.bolt")
		}
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = filepath.Join(c.DataDir, "backups")
	}
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "", storage.DriverSQLite, storage.DriverBolt, storage.DriverMemory:
	case storage.DriverRedis, storage.DriverPostgres, storage.DriverMySQL, storage.DriverMongo:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if strings.EqualFold(c.Blobs.Driver, storage.BlobDriverS3) && (c.Blobs.Endpoint == "" || c.Blobs.Bucket == "") {
		return fmt.Errorf("blobs.endpoint and blobs.bucket are required for s3 blobs")
	}
	if c.History.Limit <= 0 || c.GC.Delay <= 0 {
		return fmt.Errorf("history.limit and gc.delay must be positive")
	}
	return nil
}

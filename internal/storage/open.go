package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"nestboard/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	BlobDriverDefault = ""
	BlobDriverS3      = "s3"
)

// Config selects and locates the record backend.
type Config struct {
	Driver   string `koanf:"driver"`
	Path     string `koanf:"path"`
	DSN      string `koanf:"dsn"`
	Database string `koanf:"database"`
	Password string `koanf:"password"`
}

// BlobsConfig optionally moves the blob store to an object bucket.
type BlobsConfig struct {
	Driver   string `koanf:"driver"`
	Endpoint string `koanf:"endpoint"`
	Bucket   string `koanf:"bucket"`
	Access   string `koanf:"access"`
	Secret   string `koanf:"secret"`
	Secure   bool   `koanf:"secure"`
}

// OpenEngine opens the configured backend and fails if it is unavailable.
func OpenEngine(ctx context.Context, cfg Config) (Port, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case DriverBolt:
		return OpenBolt(cfg.Path)
	case DriverRedis:
		return OpenRedis(ctx, cfg.DSN, cfg.Password)
	case DriverPostgres:
		dsn, err := postgresDSN(cfg.DSN, cfg.Password)
		if err != nil {
			return nil, err
		}
		return OpenPostgres(ctx, dsn)
	case DriverMySQL:
		dsn, err := mysqlDSN(cfg.DSN, cfg.Password)
		if err != nil {
			return nil, err
		}
		return OpenMySQL(ctx, dsn)
	case DriverMongo:
		return OpenMongo(ctx, cfg.DSN, cfg.Database)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDriver, cfg.Driver)
	}
}

// Open opens the configured backend, degrading to an in-memory Port when the
// engine cannot be opened. The second return reports whether that happened.
func Open(ctx context.Context, cfg Config, blobs BlobsConfig, logger zerolog.Logger) (Port, bool) {
	port, err := OpenEngine(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.Driver).Msg("storage unavailable, using in-memory store")
		return NewMemory(), true
	}

	if strings.ToLower(blobs.Driver) != BlobDriverS3 {
		return port, false
	}
	objects, err := OpenObjects(ctx, ObjectConfig{
		Endpoint: blobs.Endpoint,
		Bucket:   blobs.Bucket,
		Access:   blobs.Access,
		Secret:   blobs.Secret,
		Secure:   blobs.Secure,
	})
	if err != nil {
		logger.Warn().Err(err).Str("endpoint", blobs.Endpoint).Msg("object storage unavailable, keeping blobs in the main store")
		return port, false
	}
	return NewSplit(port, objects), false
}

// postgresDSN converts URL DSNs to key/value form and injects the password.
func postgresDSN(dsn, password string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		kv, err := pq.ParseURL(dsn)
		if err != nil {
			return "", fmt.Errorf("parse postgres url: %w", err)
		}
		dsn = kv
	}
	if password != "" && !strings.Contains(dsn, "password=") {
		dsn += " password=" + password
	}
	return dsn, nil
}

func mysqlDSN(dsn, password string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if password != "" {
		cfg.Passwd = password
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

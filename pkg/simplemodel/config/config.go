// Package config loads model and storage configuration from JSON files and
// environment variables, and builds the configured Database and FileStore.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-model/pkg/content/upload"
	uploadfs "github.com/tendant/simple-model/pkg/content/upload/fs"
	uploadmemory "github.com/tendant/simple-model/pkg/content/upload/memory"
	uploads3 "github.com/tendant/simple-model/pkg/content/upload/s3"
	"github.com/tendant/simple-model/pkg/simplemodel"
	"github.com/tendant/simple-model/pkg/simplemodel/driver/memory"
	driverpg "github.com/tendant/simple-model/pkg/simplemodel/driver/postgres"
)

// Config is the root configuration. Fields load from JSON config files and
// environment variables; env values win.
type Config struct {
	Environment string `json:"environment" env:"ENVIRONMENT" env-default:"development"`

	// Model conventions
	IDConvention string `json:"id_convention" env:"ID_CONVENTION" env-default:"uuid"`
	KeyNaming    string `json:"key_naming" env:"KEY_NAMING" env-default:"snake_case"`

	// Database configuration
	DatabaseType string `json:"database_type" env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL  string `json:"database_url" env:"DATABASE_URL"`
	DBSchema     string `json:"db_schema" env:"DB_SCHEMA"`

	// File storage configuration
	Upload UploadConfig `json:"upload"`
}

// UploadConfig selects and configures the file storage backend.
type UploadConfig struct {
	Backend string `json:"backend" env:"UPLOAD_BACKEND" env-default:"memory"`

	// Filesystem backend
	BaseDir   string `json:"base_dir" env:"UPLOAD_BASE_DIR" env-default:"./data/uploads"`
	URLPrefix string `json:"url_prefix" env:"UPLOAD_URL_PREFIX"`

	// S3 backend
	S3 S3Config `json:"s3"`
}

// S3Config configures the S3 file storage backend.
type S3Config struct {
	Region                 string `json:"region" env:"S3_REGION" env-default:"us-east-1"`
	Bucket                 string `json:"bucket" env:"S3_BUCKET"`
	AccessKeyID            string `json:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey        string `json:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
	Endpoint               string `json:"endpoint" env:"S3_ENDPOINT"`
	UsePathStyle           bool   `json:"use_path_style" env:"S3_USE_PATH_STYLE"`
	PresignDuration        int    `json:"presign_duration" env:"S3_PRESIGN_DURATION" env-default:"3600"`
	CreateBucketIfNotExist bool   `json:"create_bucket_if_not_exist" env:"S3_CREATE_BUCKET"`
}

// Option applies configuration on top of loaded values.
type Option func(*Config) error

// Load reads configuration from the environment, applies the supplied
// options, and validates the result.
func Load(opts ...Option) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return finish(cfg, opts)
}

// LoadFile reads a JSON config file, layers environment variables on top,
// applies the supplied options, and validates the result.
func LoadFile(path string, opts ...Option) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(cfg, opts)
}

func finish(cfg Config, opts []Option) (*Config, error) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WithDatabaseURL overrides the database connection string and switches the
// database type to postgres.
func WithDatabaseURL(url string) Option {
	return func(c *Config) error {
		c.DatabaseType = "postgres"
		c.DatabaseURL = url
		return nil
	}
}

// WithKeyNaming overrides the record key naming convention.
func WithKeyNaming(naming simplemodel.KeyNaming) Option {
	return func(c *Config) error {
		c.KeyNaming = string(naming)
		return nil
	}
}

// WithIDConvention overrides the identifier convention.
func WithIDConvention(convention simplemodel.IDConvention) Option {
	return func(c *Config) error {
		c.IDConvention = string(convention)
		return nil
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if !simplemodel.IDConvention(c.IDConvention).IsValid() {
		return fmt.Errorf("id_convention must be 'uuid' or 'serial', got %q", c.IDConvention)
	}
	if !simplemodel.KeyNaming(c.KeyNaming).IsValid() {
		return fmt.Errorf("key_naming must be 'snake_case' or 'camelCase', got %q", c.KeyNaming)
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.Upload.Backend {
	case "memory":
	case "fs":
		if c.Upload.BaseDir == "" {
			return errors.New("upload base_dir is required for the fs backend")
		}
	case "s3":
		if c.Upload.S3.Bucket == "" {
			return errors.New("s3 bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported upload backend: %s", c.Upload.Backend)
	}

	return nil
}

// BuildDatabase creates a Database from the configuration, with the
// configured driver, key naming, and identifier convention. Extra options
// (hooks, event sinks) are appended after the config-derived ones.
func (c *Config) BuildDatabase(opts ...simplemodel.Option) (*simplemodel.Database, error) {
	driver, err := c.buildDriver()
	if err != nil {
		return nil, fmt.Errorf("failed to build driver: %w", err)
	}

	options := []simplemodel.Option{
		simplemodel.WithDriver(driver),
		simplemodel.WithKeyNaming(simplemodel.KeyNaming(c.KeyNaming)),
		simplemodel.WithIDConvention(simplemodel.IDConvention(c.IDConvention)),
	}
	options = append(options, opts...)

	return simplemodel.New(options...)
}

func (c *Config) buildDriver() (simplemodel.Driver, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := newPool(c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
		return driverpg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildFileStore creates the configured file storage backend.
func (c *Config) BuildFileStore() (upload.FileStore, error) {
	switch c.Upload.Backend {
	case "memory":
		return uploadmemory.New(), nil
	case "fs":
		return uploadfs.New(uploadfs.Config{
			BaseDir:   c.Upload.BaseDir,
			URLPrefix: c.Upload.URLPrefix,
		})
	case "s3":
		return uploads3.New(uploads3.Config{
			Region:                 c.Upload.S3.Region,
			Bucket:                 c.Upload.S3.Bucket,
			AccessKeyID:            c.Upload.S3.AccessKeyID,
			SecretAccessKey:        c.Upload.S3.SecretAccessKey,
			Endpoint:               c.Upload.S3.Endpoint,
			UsePathStyle:           c.Upload.S3.UsePathStyle,
			PresignDuration:        c.Upload.S3.PresignDuration,
			CreateBucketIfNotExist: c.Upload.S3.CreateBucketIfNotExist,
		})
	default:
		return nil, fmt.Errorf("unsupported upload backend: %s", c.Upload.Backend)
	}
}

func newPool(databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres and optionally sets
// search_path for the session. It fails if the schema (when provided) does
// not exist.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := newPool(databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

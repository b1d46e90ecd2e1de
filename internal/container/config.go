// Package container provides dependency injection and lifecycle management
// for the pallet voucher service.
package container

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database DatabaseConfig
	Auth     AuthConfig
	Voucher  VoucherConfig
	Storage  StorageConfig
	Events   EventsConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is sqlite3 or pgx
	Driver string

	// DSN is a file path for SQLite, a connection URL for Postgres
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AutoMigrate applies pending migrations on start
	AutoMigrate bool
}

// AuthConfig holds token signing settings and the bootstrap account.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// Admin is created on start when Username is set
	AdminUsername string
	AdminPassword string
	AdminTenant   string
}

// VoucherConfig holds issuance settings.
type VoucherConfig struct {
	PublicBaseURL   string
	Timezone        string
	QRSize          int
	DefaultValidity time.Duration
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// BaseDir holds the generated QR images
	BaseDir string
}

// EventsConfig holds broker settings. An empty RedisAddr keeps events in process.
type EventsConfig struct {
	Enabled   bool
	RedisAddr string
	Topic     string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			DSN:             "data/vpallet.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		Voucher: VoucherConfig{
			PublicBaseURL:   "http://localhost:8080",
			Timezone:        "America/Sao_Paulo",
			QRSize:          256,
			DefaultValidity: 7 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			BaseDir: "data",
		},
		Events: EventsConfig{
			Enabled: true,
			Topic:   "vpallet.events",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if _, err := time.LoadLocation(c.Voucher.Timezone); err != nil {
		return fmt.Errorf("voucher.timezone: %w", err)
	}
	return nil
}

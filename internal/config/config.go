package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is read when no config file is given
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Voucher  VoucherConfig  `mapstructure:"voucher"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Events   EventsConfig   `mapstructure:"events"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration. For sqlite3 the DSN is a file path.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuthConfig holds token signing and the optional bootstrap account
type AuthConfig struct {
	JWTSecret      string         `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration  `mapstructure:"token_ttl"`
	BcryptCost     int            `mapstructure:"bcrypt_cost"`
	BootstrapAdmin BootstrapAdmin `mapstructure:"bootstrap_admin"`
}

// BootstrapAdmin is created on start when Username is set
type BootstrapAdmin struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Tenant   string `mapstructure:"tenant"`
}

// VoucherConfig holds issuance settings
type VoucherConfig struct {
	PublicBaseURL       string `mapstructure:"public_base_url"`
	Timezone            string `mapstructure:"timezone"`
	QRSize              int    `mapstructure:"qr_size"`
	DefaultValidityDays int    `mapstructure:"default_validity_days"`
}

// StorageConfig holds the artifact directory
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// EventsConfig selects where domain events are forwarded
type EventsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	RedisAddr string `mapstructure:"redis_addr"`
	Topic     string `mapstructure:"topic"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from a YAML file and VPALLET_* environment variables.
// A missing file is tolerated only when configPath is empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VPALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultPath
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/vpallet.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 0)

	v.SetDefault("voucher.public_base_url", "http://localhost:8080")
	v.SetDefault("voucher.timezone", "America/Sao_Paulo")
	v.SetDefault("voucher.qr_size", 256)
	v.SetDefault("voucher.default_validity_days", 7)

	v.SetDefault("storage.base_dir", "data")

	v.SetDefault("events.enabled", true)
	v.SetDefault("events.topic", "vpallet.events")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the keys without defaults so AutomaticEnv can see them on Unmarshal
func bindEnvVars(v *viper.Viper) error {
	for _, key := range []string{
		"auth.jwt_secret",
		"database.dsn",
		"auth.bootstrap_admin.username",
		"auth.bootstrap_admin.password",
		"auth.bootstrap_admin.tenant",
		"events.redis_addr",
	} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("database.driver must be sqlite3 or pgx, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (VPALLET_AUTH_JWT_SECRET)")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must have at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BootstrapAdmin.Username != "" && c.Auth.BootstrapAdmin.Password == "" {
		return fmt.Errorf("auth.bootstrap_admin.password is required when a username is set")
	}

	if _, err := time.LoadLocation(c.Voucher.Timezone); err != nil {
		return fmt.Errorf("voucher.timezone: %w", err)
	}
	if c.Voucher.DefaultValidityDays <= 0 {
		return fmt.Errorf("voucher.default_validity_days must be positive")
	}
	if c.Voucher.PublicBaseURL == "" {
		return fmt.Errorf("voucher.public_base_url is required")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	return nil
}

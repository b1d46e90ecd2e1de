package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: pgx
  dsn: postgres://vpallet@localhost/vpallet
voucher:
  public_base_url: https://vales.example.com
  qr_size: 512
events:
  redis_addr: localhost:6379
`)
	t.Setenv("VPALLET_AUTH_JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("VPALLET_SERVER_PORT", "9191")
	t.Setenv("VPALLET_AUTH_BOOTSTRAP_ADMIN_USERNAME", "admin")
	t.Setenv("VPALLET_AUTH_BOOTSTRAP_ADMIN_PASSWORD", "troque-esta-senha")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://vpallet@localhost/vpallet", cfg.Database.DSN)
	assert.Equal(t, "0123456789abcdef-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "admin", cfg.Auth.BootstrapAdmin.Username)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 512, cfg.Voucher.QRSize)
	assert.Equal(t, "America/Sao_Paulo", cfg.Voucher.Timezone)
	assert.Equal(t, 7, cfg.Voucher.DefaultValidityDays)
	assert.Equal(t, "localhost:6379", cfg.Events.RedisAddr)
	assert.Equal(t, "vpallet.events", cfg.Events.Topic)
}

func TestLoad_DefaultPathMayBeMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VPALLET_AUTH_JWT_SECRET", "0123456789abcdef-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "data/vpallet.db", cfg.Database.DSN)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	t.Setenv("VPALLET_AUTH_JWT_SECRET", "0123456789abcdef-secret")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite3", DSN: "x.db"},
			Auth:     AuthConfig{JWTSecret: "0123456789abcdef", TokenTTL: time.Hour},
			Voucher:  VoucherConfig{PublicBaseURL: "http://localhost", Timezone: "UTC", DefaultValidityDays: 7},
			Storage:  StorageConfig{BaseDir: "data"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret is required"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "curto" }, "at least 16"},
		{"bad timezone", func(c *Config) { c.Voucher.Timezone = "Mars/Olympus" }, "voucher.timezone"},
		{"zero validity", func(c *Config) { c.Voucher.DefaultValidityDays = 0 }, "default_validity_days"},
		{"admin without password", func(c *Config) { c.Auth.BootstrapAdmin.Username = "admin" }, "bootstrap_admin.password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Driver: "pgx", DSN: "postgres://x", AutoMigrate: true},
		Auth: AuthConfig{
			JWTSecret:      "0123456789abcdef",
			TokenTTL:       time.Hour,
			BootstrapAdmin: BootstrapAdmin{Username: "admin", Password: "senha-forte", Tenant: "Matriz"},
		},
		Voucher: VoucherConfig{PublicBaseURL: "https://vales.example.com", Timezone: "UTC", QRSize: 300, DefaultValidityDays: 3},
		Storage: StorageConfig{BaseDir: "/var/lib/vpallet"},
		Events:  EventsConfig{Enabled: true, RedisAddr: "redis:6379", Topic: "t"},
		Server:  ServerConfig{Port: 9000},
	}

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())
	assert.Equal(t, "pgx", cc.Database.Driver)
	assert.True(t, cc.Database.AutoMigrate)
	assert.Equal(t, "admin", cc.Auth.AdminUsername)
	assert.Equal(t, "Matriz", cc.Auth.AdminTenant)
	assert.Equal(t, 72*time.Hour, cc.Voucher.DefaultValidity)
	assert.Equal(t, 300, cc.Voucher.QRSize)
	assert.Equal(t, "redis:6379", cc.Events.RedisAddr)
	assert.Equal(t, 9000, cc.Server.Port)
}

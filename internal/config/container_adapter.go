package config

import (
	"time"

	"github.com/valepallet/vpallet/internal/container"
)

// ToContainerConfig converts the file-based Config into the container's configuration.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Auth: container.AuthConfig{
			JWTSecret:     c.Auth.JWTSecret,
			TokenTTL:      c.Auth.TokenTTL,
			BcryptCost:    c.Auth.BcryptCost,
			AdminUsername: c.Auth.BootstrapAdmin.Username,
			AdminPassword: c.Auth.BootstrapAdmin.Password,
			AdminTenant:   c.Auth.BootstrapAdmin.Tenant,
		},
		Voucher: container.VoucherConfig{
			PublicBaseURL:   c.Voucher.PublicBaseURL,
			Timezone:        c.Voucher.Timezone,
			QRSize:          c.Voucher.QRSize,
			DefaultValidity: time.Duration(c.Voucher.DefaultValidityDays) * 24 * time.Hour,
		},
		Storage: container.StorageConfig{
			BaseDir: c.Storage.BaseDir,
		},
		Events: container.EventsConfig{
			Enabled:   c.Events.Enabled,
			RedisAddr: c.Events.RedisAddr,
			Topic:     c.Events.Topic,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/client"
	"github.com/valepallet/vpallet/internal/config"
	"github.com/valepallet/vpallet/internal/container"
	"github.com/valepallet/vpallet/internal/domain/credential"
	"github.com/valepallet/vpallet/pkg/database"
	"github.com/valepallet/vpallet/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "vpallet",
		Usage: "Operate the pallet voucher service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"VPALLET_CONFIG"},
			},
		},
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrateAction,
			},
			{
				Name:  "useradd",
				Usage: "create an operator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "tenant-name", Usage: "attach the user to this tenant, creating it when missing"},
				},
				Action: useraddAction,
			},
			{
				Name:      "decode",
				Usage:     "decode QR content in either payload form",
				ArgsUsage: "<payload>",
				Action:    decodeAction,
			},
			{
				Name:      "scan",
				Usage:     "submit QR content to a running server",
				ArgsUsage: "<payload>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Value: "http://localhost:8080", EnvVars: []string{"VPALLET_SERVER"}},
					&cli.StringFlag{Name: "token", Usage: "bearer token", EnvVars: []string{"VPALLET_TOKEN"}},
					&cli.StringFlag{Name: "username", Usage: "log in instead of passing --token"},
					&cli.StringFlag{Name: "password"},
				},
				Action: scanAction,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func migrateAction(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.New(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.NewMigrator(db, logger).Up(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d migration(s) applied\n", applied)
	return nil
}

func useraddAction(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cc := cfg.ToContainerConfig()
	cc.Events.Enabled = false
	cc.Auth.AdminUsername = ""

	ctr, err := container.NewContainer(cc, logger)
	if err != nil {
		return err
	}
	if err := ctr.Start(c.Context); err != nil {
		return err
	}
	defer ctr.Close()

	user, err := ctr.Services().Auth.CreateUser(c.Context, c.String("username"), c.String("password"), c.String("tenant-name"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "user %s created (id %s)\n", user.Username, user.ID)
	return nil
}

func decodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: vpallet decode <payload>")
	}
	p, err := credential.Parse(c.Args().First())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func scanAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: vpallet scan [--server URL] (--token T | --username U --password P) <payload>")
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	api := client.New(c.String("server"), nil)
	switch {
	case c.String("token") != "":
		api.SetToken(c.String("token"))
	case c.String("username") != "":
		if _, err := api.Login(ctx, c.String("username"), c.String("password")); err != nil {
			return err
		}
	default:
		return errors.New("scan needs --token or --username/--password")
	}

	res, err := api.Scan(ctx, c.Args().First())
	if err != nil {
		return err
	}

	number := ""
	if res.Voucher != nil {
		number = res.Voucher.Number
	}
	switch res.Outcome {
	case "cycle_complete":
		fmt.Fprintf(c.App.Writer, "vale %s: ciclo já concluído (%s)\n", number, res.Status)
	default:
		fmt.Fprintf(c.App.Writer, "vale %s: %s -> %s\n", number, res.From, res.Status)
	}
	return nil
}

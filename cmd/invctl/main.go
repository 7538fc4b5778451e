package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"

	"github.com/gutterguard/inventory/internal/app"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/repository/postgres"
	"github.com/gutterguard/inventory/pkg/logger"
)

type appKey struct{}

func openApp(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(c.String("log-level"))

	inv, err := app.New(c.Context, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialise services: %w", err)
	}
	c.Context = context.WithValue(c.Context, appKey{}, inv)
	return nil
}

func closeApp(c *cli.Context) error {
	if inv, ok := c.Context.Value(appKey{}).(*app.App); ok && inv != nil {
		inv.Close()
	}
	return nil
}

func fromContext(c *cli.Context) *app.App {
	return c.Context.Value(appKey{}).(*app.App)
}

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"}
}

func main() {
	app := &cli.App{
		Name:  "invctl",
		Usage: "Inspect and maintain gutter guard inventory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "forecast",
				Usage:  "Show the mesh runway forecast",
				Flags:  []cli.Flag{jsonFlag(), &cli.BoolFlag{Name: "components", Usage: "Show component forecasts instead"}},
				Before: openApp,
				After:  closeApp,
				Action: runForecast,
			},
			{
				Name:   "reorder",
				Usage:  "Suggest mesh order quantities",
				Flags:  []cli.Flag{jsonFlag()},
				Before: openApp,
				After:  closeApp,
				Action: runReorder,
			},
			{
				Name:   "summary",
				Usage:  "Show stock and usage totals",
				Flags:  []cli.Flag{jsonFlag()},
				Before: openApp,
				After:  closeApp,
				Action: runSummary,
			},
			{
				Name:  "sync-orders",
				Usage: "Fetch orders from Shopify and refresh the usage cache",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.IntFlag{Name: "days", Usage: "Trailing window in days", Value: 180},
				},
				Before: openApp,
				After:  closeApp,
				Action: runSyncOrders,
			},
			{
				Name:  "yield",
				Usage: "Estimate what a coil will press into",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.Float64Flag{Name: "weight-kg", Usage: "Coil weight in kg", Required: true},
					&cli.StringFlag{Name: "coil-type", Usage: "Coil type", Value: "corrugated"},
				},
				Before: openApp,
				After:  closeApp,
				Action: runYield,
			},
			{
				Name:  "stocktake",
				Usage: "Count sheets and stocktake application",
				Subcommands: []*cli.Command{
					{
						Name:  "template",
						Usage: "Write an XLSX count sheet",
						Flags: []cli.Flag{
							&cli.StringSliceFlag{Name: "category", Usage: "Category to include (repeatable, default all)"},
							&cli.StringFlag{Name: "out", Usage: "Output file", Value: "stocktake.xlsx"},
						},
						Before: openApp,
						After:  closeApp,
						Action: runStocktakeTemplate,
					},
					{
						Name:      "apply",
						Usage:     "Replace a category's stock with counted sheets",
						ArgsUsage: "FILE...",
						Flags: []cli.Flag{
							jsonFlag(),
							&cli.StringFlag{Name: "category", Usage: "Category being counted", Required: true},
						},
						Before: openApp,
						After:  closeApp,
						Action: runStocktakeApply,
					},
				},
			},
			{
				Name:  "backup",
				Usage: "Manage stock backups",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Back up every collection",
						Before: openApp,
						After:  closeApp,
						Action: runBackupCreate,
					},
					{
						Name:   "list",
						Usage:  "List backups, newest first",
						Flags:  []cli.Flag{jsonFlag()},
						Before: openApp,
						After:  closeApp,
						Action: runBackupList,
					},
					{
						Name:      "restore",
						Usage:     "Restore a backup by name",
						ArgsUsage: "NAME",
						Before:    openApp,
						After:     closeApp,
						Action:    runBackupRestore,
					},
				},
			},
			{
				Name:  "migrate",
				Usage: "Create the postgres document table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
				},
				Action: runMigrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("invctl failed")
	}
}

func runMigrate(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(c.Context, postgres.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "inventory_documents is ready")
	return nil
}

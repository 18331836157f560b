package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/photocard/photocard-api/internal/config"
	"github.com/photocard/photocard-api/internal/pkg/database"
	"github.com/photocard/photocard-api/internal/pkg/logger"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to init logger")
	}

	if err := newApp(cfg.DatabaseURL).Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Migration command failed")
	}
}

func newApp(defaultURL string) *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "database-url",
		Usage:   "PostgreSQL connection string",
		EnvVars: []string{"DATABASE_URL"},
		Value:   defaultURL,
	}

	return &cli.App{
		Name:  "migrate",
		Usage: "manage the photocard database schema",
		Flags: []cli.Flag{dbFlag},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return database.MigrateUp(c.String("database-url"))
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					return database.MigrateDown(c.String("database-url"), c.Int("steps"))
				},
			},
			{
				Name:  "status",
				Usage: "print the current schema version",
				Action: func(c *cli.Context) error {
					st, err := database.GetMigrationStatus(c.String("database-url"))
					if err != nil {
						return err
					}
					if !st.Applied {
						fmt.Fprintln(c.App.Writer, "no migrations applied")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", st.Version, st.Dirty)
					return nil
				},
			},
		},
	}
}

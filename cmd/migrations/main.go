package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/libraryms/libraryms/pkg/config"
	"github.com/libraryms/libraryms/pkg/database"
	"github.com/libraryms/libraryms/pkg/migrations"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)

	app := &cli.App{
		Name:        "migrations",
		Usage:       "manage the library database schema",
		Description: "Runs, rolls back and creates migrations for the library database.",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return errors.WithStack(migrator.Init(c.Context))
				},
			},
			{
				Name:  "migrate",
				Usage: "apply every pending migration",
				Action: func(c *cli.Context) error {
					group, err := migrations.BringUpToDate(c.Context, db)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("There are no new migrations to run")
						return nil
					}
					fmt.Printf("Migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: func(c *cli.Context) error {
					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return errors.WithStack(err)
					}
					if group.IsZero() {
						fmt.Println("There are no groups to roll back")
						return nil
					}
					fmt.Printf("Rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "create a Go migration",
				ArgsUsage: "<words of the migration name>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("a migration name is required", 1)
					}
					name := strings.Join(c.Args().Slice(), "_")
					mf, err := migrator.CreateGoMigration(c.Context, name, migrate.WithGoTemplate(migrationTemplate))
					if err != nil {
						return errors.WithStack(err)
					}
					fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					ms, err := migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return errors.WithStack(err)
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("Unapplied migrations: %s\n", ms.Unapplied())
					fmt.Printf("Last migration group: %s\n", ms.LastGroup())
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, "")
		return errors.WithStack(err)
	}

	down := func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, "")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
`

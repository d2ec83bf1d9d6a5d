package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/config"
	"github.com/kyanagi/yamabuki-cup-app/internal/db"
	"github.com/kyanagi/yamabuki-cup-app/internal/importer"
	"github.com/kyanagi/yamabuki-cup-app/internal/service"
	"github.com/kyanagi/yamabuki-cup-app/internal/store"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "yamabuki",
		Usage: "Yamabuki Cup admin tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the YAML config file"},
		},
		Commands: []*cli.Command{
			newMigrateCommand(),
			newEntriesCommand(),
		},
	}
}

func openDB(c *cli.Context) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	database, err := db.Open(c.Context, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return cfg, database, nil
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply every pending migration",
				Action: func(c *cli.Context) error {
					cfg, database, err := openDB(c)
					if err != nil {
						return err
					}
					defer database.Close()

					if err := db.RunMigrations(database.DB, cfg.Database.Driver); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Migrations applied")
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					cfg, database, err := openDB(c)
					if err != nil {
						return err
					}
					defer database.Close()

					steps := c.Int("steps")
					if steps < 1 {
						return fmt.Errorf("steps must be at least 1, got %d", steps)
					}
					if err := db.RollbackMigrations(database.DB, cfg.Database.Driver, steps); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Rolled back %d migration(s)\n", steps)
					return nil
				},
			},
		},
	}
}

func newEntriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "entries",
		Usage: "entry list and waitlist",
		Subcommands: []*cli.Command{
			{
				Name:      "import-priorities",
				Usage:     "apply a CSV or XLSX priority sheet",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "capacity", Usage: "accepted entry capacity (defaults to the configured one)"},
				},
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						return fmt.Errorf("a priority sheet is required")
					}
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", path, err)
					}
					rows, err := importer.Parse(path, data)
					if err != nil {
						return err
					}

					cfg, database, err := openDB(c)
					if err != nil {
						return err
					}
					defer database.Close()

					capacity := cfg.Entry.Capacity
					if c.IsSet("capacity") {
						capacity = c.Int("capacity")
					}
					entries := service.NewEntryService(database, store.NewEntryStore(database), store.NewMatchStore(database), slog.Default(), nil)
					result, err := entries.BulkReassignPriorities(c.Context, rows, capacity)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Applied %d rows: %d accepted, %d waitlisted, %d pending\n",
						len(rows), result.Accepted, result.Waitlisted, result.Pending)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "print non-cancelled entries in priority order",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "waitlist", Usage: "print promotion candidates only"},
				},
				Action: func(c *cli.Context) error {
					_, database, err := openDB(c)
					if err != nil {
						return err
					}
					defer database.Close()

					entries := service.NewEntryService(database, store.NewEntryStore(database), store.NewMatchStore(database), slog.Default(), nil)
					list, err := entries.ForEntryList(c.Context)
					if c.Bool("waitlist") {
						list, err = entries.PromotionCandidates(c.Context)
					}
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "PRIORITY\tSTATUS\tPHASE\tENTRY\tPLAYER")
					for _, e := range list {
						priority := "-"
						if e.Priority != nil {
							priority = strconv.Itoa(*e.Priority)
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", priority, e.Status, e.EntryPhase, e.ID, e.PlayerID)
					}
					return w.Flush()
				},
			},
		},
	}
}

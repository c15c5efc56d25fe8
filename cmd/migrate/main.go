package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"supaco_backend/migrations"
	"supaco_backend/platform/db"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// CLI represents the migrate command line.
type CLI struct {
	DatabaseURL string `env:"DATABASE_URL" required:"" help:"PostgreSQL connection URL"`

	Up      UpCmd      `cmd:"" help:"Apply pending migrations"`
	Down    DownCmd    `cmd:"" help:"Roll back the last migration"`
	Status  StatusCmd  `cmd:"" help:"Show migration status"`
	Version VersionCmd `cmd:"" help:"Print the current schema version"`
}

// GetDatabaseURL implements config.DatabaseConfig.
func (c *CLI) GetDatabaseURL() string { return c.DatabaseURL }

func (c *CLI) migrator() (*db.Migrator, error) {
	m, err := db.NewMigrator(c, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return m, nil
}

// UpCmd applies pending migrations.
type UpCmd struct{}

func (c *UpCmd) Run(ctx context.Context, cli *CLI) error {
	m, err := cli.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("applied %d migration(s)\n", applied)
	return nil
}

// DownCmd rolls back the most recent migration.
type DownCmd struct{}

func (c *DownCmd) Run(ctx context.Context, cli *CLI) error {
	m, err := cli.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(ctx); err != nil {
		return err
	}
	fmt.Println("rolled back 1 migration")
	return nil
}

// StatusCmd lists migrations and whether they are applied.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx context.Context, cli *CLI) error {
	m, err := cli.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Printf("%05d  %-8s %s\n", s.Version, state, s.Path)
	}
	return nil
}

// VersionCmd prints the current schema version.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx context.Context, cli *CLI) error {
	m, err := cli.migrator()
	if err != nil {
		return err
	}
	defer m.Close()

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Println(version)
	return nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("migrate"),
		kong.Description("Manage the database schema"),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package main is the entry point for the Ladle database migration tool.
// It applies the embedded schema migrations for either database backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/config"
	"github.com/prn-tf/ladle/internal/repository"
	"github.com/prn-tf/ladle/internal/repository/postgres"
	"github.com/prn-tf/ladle/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// migrator is implemented by both database backends.
type migrator interface {
	Migrate(ctx context.Context) error
	Version(ctx context.Context) (int, error)
	Close() error
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Ladle Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "status":
		if err := runMigrateCommand(command, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runMigrateCommand(command string, args []string) error {
	flags := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := flags.String("config", "", "path to configuration file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := config.MustLoad(*configPath)
	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	switch command {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		version, err := db.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Migrations applied, schema version %d\n", version)
		return nil

	case "status":
		version, err := db.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Driver:         %s\n", cfg.Database.Driver)
		fmt.Printf("Schema version: %d\n", version)
		return nil
	}

	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (migrator, error) {
	logger := zerolog.Nop()

	switch cfg.Driver {
	case repository.DriverPostgres:
		return postgres.NewDB(ctx, cfg, logger)
	case repository.DriverSQLite:
		return sqlite.NewDB(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func printUsage() {
	fmt.Println(`Ladle Migration Tool

Usage:
  ladle-migrate <command> [arguments]

Commands:
  up          Apply all pending migrations
  status      Show the current schema version
  version     Print version information
  help        Show this help message

The database connection comes from the standard Ladle configuration
(config file or LADLE_DATABASE_* environment variables).

Examples:
  ladle-migrate up --config /etc/ladle/config.yaml
  LADLE_DATABASE_DRIVER=sqlite LADLE_DATABASE_PATH=./data/ladle.db ladle-migrate status`)
}

// Package main is the entry point for the Ladle admin CLI.
// This tool provides administrative commands for managing user accounts.
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
	"github.com/prn-tf/ladle/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Ladle Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUserCommand(os.Args[2:]); err != nil {
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

func runUserCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("user subcommand required (create, list, activate, deactivate)")
	}

	subcommand := args[0]
	flags := flag.NewFlagSet("user "+subcommand, flag.ExitOnError)
	configPath := flags.String("config", "", "path to configuration file")
	email := flags.String("email", "", "user email address")
	name := flags.String("name", "", "user display name")
	password := flags.String("password", "", "user password")
	superuser := flags.Bool("superuser", false, "grant staff and superuser privileges")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	cfg := config.MustLoad(*configPath)
	logger := zerolog.Nop()
	ctx := context.Background()

	repos, closeDB, err := openRepositories(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	users := service.NewUserService(repos.User, cfg.Auth.BcryptCost, logger)
	tokens := service.NewTokenService(repos.Token, repos.User, nil, 0, logger)

	switch subcommand {
	case "create":
		if *email == "" || *password == "" {
			return fmt.Errorf("--email and --password are required")
		}
		out, err := users.Register(ctx, service.RegisterInput{
			Email:     *email,
			Name:      *name,
			Password:  *password,
			Superuser: *superuser,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %d (%s)\n", out.User.ID, out.User.Email)
		return nil

	case "list":
		all, err := users.List(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-6s %-40s %-25s %-8s %-10s\n", "ID", "EMAIL", "NAME", "ACTIVE", "SUPERUSER")
		for _, user := range all {
			fmt.Printf("%-6d %-40s %-25s %-8t %-10t\n", user.ID, user.Email, user.Name, user.IsActive, user.IsSuperuser)
		}
		return nil

	case "activate", "deactivate":
		if *email == "" {
			return fmt.Errorf("--email is required")
		}
		user, err := repos.User.GetByEmail(ctx, *email)
		if err != nil {
			return err
		}

		active := subcommand == "activate"
		if err := users.SetActive(ctx, user.ID, active); err != nil {
			return err
		}
		if !active {
			revoked, err := tokens.RevokeAll(ctx, user.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Deactivated user %s, revoked %d token(s)\n", user.Email, revoked)
			return nil
		}
		fmt.Printf("Activated user %s\n", user.Email)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

// openRepositories connects to the configured database backend.
func openRepositories(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, func(), error) {
	switch cfg.Driver {
	case repository.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRepositories(db), func() { db.Close() }, nil

	case repository.DriverSQLite:
		db, err := sqlite.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewRepositories(db), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func printUsage() {
	fmt.Println(`Ladle Admin CLI

Usage:
  ladle-admin <command> [arguments]

Commands:
  user        Manage users (create, list, activate, deactivate)
  version     Print version information
  help        Show this help message

Examples:
  ladle-admin user create --email admin@example.com --password changeme --superuser
  ladle-admin user list
  ladle-admin user deactivate --email cook@example.com

Deactivating a user also revokes all of their auth tokens.

Use "ladle-admin user <subcommand> --help" for flag details.`)
}

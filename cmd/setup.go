package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/learnx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) configFile() string {
	if r.configPath != "" {
		return r.configPath
	}
	return "config.toml"
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back latest migration\n")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}

// SetupConfig writes the config file from the template and records the auth project settings.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configFile()

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return err
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
	}

	authURL, err := r.valueOrPrompt(cmd.String("url"), "Auth service URL", "https://<project>.supabase.co", false)
	if err != nil {
		return err
	}
	anonKey, err := r.valueOrPrompt(cmd.String("anon-key"), "Anon key", "", true)
	if err != nil {
		return err
	}

	if authURL != "" {
		config.Auth.URL = authURL
	}
	if anonKey != "" {
		config.Auth.AnonKey = anonKey
	}

	if err := shared.SaveConfig(path, config); err != nil {
		return err
	}
	r.config = config
	r.logger.Info("config saved", "path", path)

	r.writePlain("✓ Configuration saved to %s\n", path)
	if !config.Auth.Configured() {
		r.writePlainln("Set auth.url and auth.anon_key before signing in.")
	}
	return nil
}

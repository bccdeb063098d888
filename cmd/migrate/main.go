// Command migrate manages the database schema via goose. The create
// and validate commands work offline; everything else needs a database.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/db"
	"github.com/dukastore/backend/pkg/logger"
	"github.com/dukastore/backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(*cmd, *dir, *name, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd, dir, name, version string) error {
	// Offline commands first; no reason to demand a DSN for them.
	switch cmd {
	case "create":
		if name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(dir, name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil

	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": cmd,
		"dir": dir,
	})

	sqlDB, closeDB, err := openDB(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeDB()

	switch cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, dir, cmd)
	case "version":
		if version == "" {
			return fmt.Errorf("missing -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dir, version)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func openDB(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*sql.DB, func(), error) {
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("extracting sql handle: %w", err)
	}
	return sqlDB, func() { client.Close() }, nil
}

package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"vpe/internal/database"
	"vpe/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const usage = "usage: migrate <up [N] | down [N] | version | force V>"

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if len(os.Args) < 2 {
		logger.Get().Fatal(usage)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run(command string, args []string) error {
	cfg, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	m, err := migrate.New("file://migrations", migrateURL(cfg))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Get().Warnw("migrate close", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	switch command {
	case "up":
		return up(m, args)
	case "down":
		return down(m, args)
	case "version":
		return version(m)
	case "force":
		return force(m, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

// migrateURL builds the URL-style DSN golang-migrate expects, escaping
// credentials that the key=value form in database.Config tolerates raw.
func migrateURL(cfg *database.Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     cfg.DBName,
		RawQuery: "sslmode=" + cfg.SSLMode,
	}
	return u.String()
}

func steps(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("step count must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func up(m *migrate.Migrate, args []string) error {
	n, err := steps(args)
	if err != nil {
		return err
	}
	if n > 0 {
		err = m.Steps(n)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	logger.Get().Info("Migrations applied")
	return nil
}

func down(m *migrate.Migrate, args []string) error {
	n, err := steps(args)
	if err != nil {
		return err
	}
	if n == 0 {
		n = 1
	}
	if err := m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	logger.Get().Infof("Rolled back %d migration(s)", n)
	return nil
}

func version(m *migrate.Migrate) error {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Get().Info("No migrations applied yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	logger.Get().Infof("Version: %d, Dirty: %v", v, dirty)
	return nil
}

// force marks the schema version without running migrations, for
// recovering from a dirty state.
func force(m *migrate.Migrate, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("force requires a version\n%s", usage)
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("version must be an integer, got %q", args[0])
	}
	if err := m.Force(v); err != nil {
		return fmt.Errorf("force failed: %w", err)
	}
	logger.Get().Infof("Forced version to %d", v)
	return nil
}

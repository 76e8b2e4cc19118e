package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Schema migration runner for the schedule database. Commands: up, down,
// version, force <n>.
func main() {
	databaseURL := flag.String("database", os.Getenv("DATABASE_URL"), "Database URL (defaults to DATABASE_URL)")
	migrationsPath := flag.String("path", "migrations", "Path to migrations directory")
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database URL is required. Use -database flag or DATABASE_URL environment variable")
	}

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	m, err := migrate.New("file://"+*migrationsPath, *databaseURL)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		runUp(m)
	case "down":
		runDown(m)
	case "version":
		printVersion(m)
	case "force":
		forceVersion(m, flag.Arg(1))
	default:
		log.Fatalf("Unknown command: %s (use: up, down, version, force)", command)
	}
}

func runUp(m *migrate.Migrate) {
	log.Println("Applying migrations...")
	err := m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Println("Schema already up to date")
	case err != nil:
		log.Fatalf("Failed to apply migrations: %v", err)
	default:
		log.Println("Migrations applied")
	}
}

func runDown(m *migrate.Migrate) {
	log.Println("Rolling back migrations...")
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Failed to roll back migrations: %v", err)
	}
	log.Println("Rollback complete")
}

func printVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Println("No migrations applied yet")
		return
	}
	if err != nil {
		log.Fatalf("Failed to read version: %v", err)
	}
	log.Printf("Current version: %d (dirty: %v)", version, dirty)
}

func forceVersion(m *migrate.Migrate, arg string) {
	if arg == "" {
		log.Fatal("force requires a version number: migrate force <version>")
	}
	var version int
	if _, err := fmt.Sscanf(arg, "%d", &version); err != nil {
		log.Fatalf("Invalid version number %q: %v", arg, err)
	}
	if err := m.Force(version); err != nil {
		log.Fatalf("Failed to force version: %v", err)
	}
	log.Printf("Forced version to %d", version)
}

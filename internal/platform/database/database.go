package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"strings"
	"time"

	"nomination_ledger/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Driver names the SQL dialect behind a *sql.DB.
type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", name)
	}
}

var (
	DB      *sql.DB
	Dialect Driver
)

// Open returns a pinged pool for driver. SQLite gets a single connection so
// that writers queue in Go instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case Postgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("database.Open: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	case SQLite:
		db, err = sql.Open("sqlite3", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("database.Open: %w", err)
		}
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("database.Open: unsupported driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database.Open: ping: %w", err)
	}
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Migrate applies the embedded schema for driver. Every statement is
// idempotent, so it runs on each start.
func Migrate(ctx context.Context, db *sql.DB, driver Driver) error {
	b, err := schemaFS.ReadFile("schema/" + string(driver) + ".sql")
	if err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}
	if _, err := db.ExecContext(ctx, strings.TrimSpace(string(b))); err != nil {
		return fmt.Errorf("database.Migrate(%s): %w", driver, err)
	}
	return nil
}

// Connect opens and migrates the database described by config.AppConfig.
func Connect() {
	var err error
	Dialect, err = ParseDriver(config.AppConfig.DBDriver)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	DB, err = Open(ctx, Dialect, config.AppConfig.DBConnStr)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := Migrate(ctx, DB, Dialect); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	log.Printf("Successfully connected to %s database!", Dialect)
}

func Close() {
	if DB != nil {
		DB.Close()
		log.Println("Database connection closed.")
	}
}

package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database named by url. "sqlite://<path>" opens the
// embedded engine on a single shared connection; "postgres://" and
// "postgresql://" go through pgx.
func Open(url string) (*sqlx.DB, error) {
	driver, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		if err := ensureDir(url); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverSQLite:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ParseURL maps a DATABASE_URL value to a driver name and its DSN.
func ParseURL(url string) (string, string, error) {
	value := strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(value, "sqlite://"):
		path := strings.TrimPrefix(value, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("db: empty sqlite path")
		}
		return DriverSQLite, "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	case strings.HasPrefix(value, "postgres://"), strings.HasPrefix(value, "postgresql://"):
		return DriverPostgres, value, nil
	default:
		return "", "", fmt.Errorf("db: unsupported database url %q", value)
	}
}

func ensureDir(url string) error {
	path := strings.TrimPrefix(strings.TrimSpace(url), "sqlite://")
	if path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// DataDir is the directory holding the database file, or "." for servers
// reached over the network.
func DataDir(url string) string {
	value := strings.TrimSpace(url)
	if !strings.HasPrefix(value, "sqlite://") {
		return "."
	}
	path := strings.TrimPrefix(value, "sqlite://")
	if path == "" || path == ":memory:" {
		return "."
	}
	return filepath.Dir(path)
}

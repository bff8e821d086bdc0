package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/aryan0dhankhar/coachsync/internal/store"
	"github.com/aryan0dhankhar/coachsync/internal/store/sqlstore"
	"github.com/aryan0dhankhar/coachsync/pkg/config"
)

// ConnectionPool manages database connections
type ConnectionPool struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// NewConnectionPool opens the configured backend and verifies it answers.
func NewConnectionPool(ctx context.Context, cfg config.Database, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch cfg.Driver {
	case "sqlite":
		// One writer at a time; concurrent writers only collect SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 25))
		db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctxTest, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctxTest); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected successfully",
		slog.String("driver", cfg.Driver),
		slog.String("database", describe(cfg)),
	)
	return &ConnectionPool{db: db, driver: cfg.Driver, logger: logger}, nil
}

// DSN builds the driver connection string. An explicit DATABASE_URL wins for
// postgres.
func DSN(cfg config.Database) (string, error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		), nil
	case "sqlite":
		q := url.Values{}
		q.Add("_pragma", "busy_timeout(5000)")
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "foreign_keys(1)")
		return "file:" + cfg.SQLitePath + "?" + q.Encode(), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// GetDB returns the underlying sql.DB connection
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Driver is the database/sql driver name.
func (cp *ConnectionPool) Driver() string {
	return cp.driver
}

// Store wraps the pool in the instrumented relation client.
func (cp *ConnectionPool) Store() store.Client {
	dialect := store.DialectPostgres
	if cp.driver == "sqlite" {
		dialect = store.DialectSQLite
	}
	return store.Instrument(sqlstore.New(cp.db, dialect, cp.logger))
}

// Close closes the database connection
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health checks the database health
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctxTest, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return cp.db.PingContext(ctxTest)
}

func describe(cfg config.Database) string {
	if cfg.Driver == "sqlite" {
		return cfg.SQLitePath
	}
	return cfg.Name
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

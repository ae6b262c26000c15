// Copyright 2025 Certen Protocol

package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/certen/ledgercore/pkg/cell"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresBackend is a Backend over a single `cells(hash, encoding)` table,
// suitable for a deployment that wants the durability and replication
// story of a shared Postgres instance rather than a local GoLevelDB file.
type PostgresBackend struct {
	db     *sql.DB
	logger *log.Logger
}

// PostgresOption configures a PostgresBackend at construction time.
type PostgresOption func(*PostgresBackend)

// WithLogger sets a custom logger for migration/connection diagnostics.
func WithLogger(logger *log.Logger) PostgresOption {
	return func(b *PostgresBackend) { b.logger = logger }
}

// PostgresConfig sets connection pool sizing. Zero values fall back to
// conservative defaults.
type PostgresConfig struct {
	DatabaseURL  string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
	MaxLifetime  time.Duration
}

// OpenPostgres opens a pooled connection, runs pending migrations, and
// returns a ready-to-use Backend.
func OpenPostgres(cfg PostgresConfig, opts ...PostgresOption) (*PostgresBackend, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("store: database URL cannot be empty")
	}

	b := &PostgresBackend{logger: log.New(log.Writer(), "[store/postgres] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(b)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 20
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	maxIdleTime := cfg.MaxIdleTime
	if maxIdleTime == 0 {
		maxIdleTime = 5 * time.Minute
	}
	maxLifetime := cfg.MaxLifetime
	if maxLifetime == 0 {
		maxLifetime = time.Hour
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxIdleTime(maxIdleTime)
	db.SetConnMaxLifetime(maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	b.db = db
	if err := b.migrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return b, nil
}

func (b *PostgresBackend) Get(hash cell.Hash) ([]byte, bool, error) {
	var enc []byte
	err := b.db.QueryRow(`SELECT encoding FROM cells WHERE hash = $1`, hash[:]).Scan(&enc)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return enc, true, nil
}

func (b *PostgresBackend) Put(hash cell.Hash, encoding []byte) error {
	_, err := b.db.Exec(
		`INSERT INTO cells (hash, encoding) VALUES ($1, $2) ON CONFLICT (hash) DO NOTHING`,
		hash[:], encoding,
	)
	return err
}

func (b *PostgresBackend) Has(hash cell.Hash) (bool, error) {
	var exists bool
	err := b.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM cells WHERE hash = $1)`, hash[:]).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	var out []migration
	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, migration{
			version: strings.TrimSuffix(d.Name(), ".sql"),
			sql:     string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (b *PostgresBackend) migrateUp(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := b.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("list applied migrations: %w", err)
		}
	} else {
		defer rows.Close()
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return err
			}
			applied[v] = true
		}
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		b.logger.Printf("applying migration %s", m.version)
		tx, err := b.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.version, err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

func init() {
	// modernc registers as "sqlite"; teach sqlx its bindvar style
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the datastore behind cfg.DSN. Postgres DSNs go through a
// pgx pool wrapped for database/sql; anything else is treated as a SQLite
// path (":memory:" included). The returned pool is nil in SQLite mode.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sqlx.DB, *pgxpool.Pool, error) {
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(cfg, logger)
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*sqlx.DB, *pgxpool.Pool, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "subsidy-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")

	logger.Info("successfully connected to database")
	return db, pool, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*sqlx.DB, *pgxpool.Pool, error) {
	logger.Info("opening sqlite database", "path", cfg.DSN)
	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, nil, err
	}
	// modernc/sqlite is single-writer; serialize access through one conn
	db.SetMaxOpenConns(1)
	return db, nil, nil
}

// Close closes the database connections gracefully
func Close(db *sqlx.DB, pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("closing database connections")
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	if pool != nil {
		pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the datastore to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sqlx.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// Migrate creates the subsidy tables when they do not exist. The DDL sticks to
// the portable subset both Postgres and SQLite accept; decimals and
// timestamps are stored as text so both drivers read them back identically.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subsidies (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			eligibility TEXT NOT NULL DEFAULT '',
			documents TEXT NOT NULL DEFAULT '[]',
			deadline TEXT,
			amounts TEXT NOT NULL DEFAULT '[]',
			program TEXT NOT NULL DEFAULT '',
			agency TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '[]',
			sector TEXT NOT NULL DEFAULT '[]',
			funding_type TEXT NOT NULL DEFAULT '',
			co_financing_rate TEXT,
			project_duration TEXT NOT NULL DEFAULT '',
			payment_terms TEXT NOT NULL DEFAULT '',
			application_method TEXT NOT NULL DEFAULT '',
			evaluation_criteria TEXT NOT NULL DEFAULT '',
			previous_acceptance_rate TEXT,
			priority_groups TEXT NOT NULL DEFAULT '[]',
			legal_entity_type TEXT NOT NULL DEFAULT '',
			funding_source TEXT NOT NULL DEFAULT '',
			reporting_requirements TEXT NOT NULL DEFAULT '',
			compliance_requirements TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			technical_support TEXT NOT NULL DEFAULT '',
			matching_algorithm_score TEXT,
			application_requirements TEXT NOT NULL DEFAULT '[]',
			questionnaire_steps TEXT NOT NULL DEFAULT '[]',
			requirements_extraction_status TEXT NOT NULL DEFAULT 'pending',
			coverage_score REAL NOT NULL DEFAULT 0,
			requires_review BOOLEAN NOT NULL DEFAULT FALSE,
			audit_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS raw_logs (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_logs_url ON raw_logs (url)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("migration failed", "error", err)
			return err
		}
	}
	logger.Info("database schema ready")
	return nil
}

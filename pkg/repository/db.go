package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Config holds database connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewDB opens and verifies a Postgres connection.
func NewDB(cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Querier is the subset of database operations shared by *sql.DB and
// *sql.Tx. Repository methods with a Tx suffix take a Querier so callers
// decide the transactional boundary.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx runs fn within a database transaction, committing on nil and rolling
// back on error or panic.
func Tx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Runner adapts a *sql.DB to the transaction-runner interface the service
// layer consumes.
type Runner struct {
	db *sql.DB
}

// NewRunner creates a transaction runner over db.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// InTx runs fn inside a single transaction; the Querier it receives is the
// open *sql.Tx.
func (r *Runner) InTx(ctx context.Context, fn func(q Querier) error) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Used as the backstop for check-then-act races on the
// memberships (team_id, user_id) and invites token_hash constraints.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

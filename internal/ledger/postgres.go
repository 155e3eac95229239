package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps seen keys in an insert-only Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pgx pool and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres ledger: DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 2
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	stmts, err := migrations("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres ledger: init schema: %w", err)
		}
	}

	slog.Info("ledger postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &PostgresStore{pool: pool}, nil
}

// ReadAll implements Store.
func (p *PostgresStore) ReadAll(ctx context.Context) (Set, error) {
	rows, err := p.pool.Query(ctx, `SELECT entry FROM seen_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres ledger: query: %w", err)
	}
	defer rows.Close()

	set := make(Set)
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("postgres ledger: scan: %w", err)
		}
		set.Add(entry)
	}
	return set, rows.Err()
}

// AppendLine implements Store.
func (p *PostgresStore) AppendLine(ctx context.Context, line string) error {
	if _, err := p.pool.Exec(ctx, `INSERT INTO seen_entries (entry) VALUES ($1)`, line); err != nil {
		return fmt.Errorf("postgres ledger: insert: %w", err)
	}
	return nil
}

// Close implements Store.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

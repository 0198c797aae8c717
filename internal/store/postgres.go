package store

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pizzeria-api/db"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps every record in a single JSONB document table keyed by
// (collection, key). The primary key constraint provides the create-time
// uniqueness guarantee.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPool creates a pgx connection pool from the given URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

// NewPostgresStore returns a PostgresStore using the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, collection, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (collection, key, data) VALUES ($1, $2, $3)`,
		collection, key, data,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(ErrAlreadyExists, "%s/%s", collection, key)
		}
		return errors.Wrapf(err, "insert %s/%s", collection, key)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, collection, key string, out any) error {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM records WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
		}
		return errors.Wrapf(err, "select %s/%s", collection, key)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "unmarshal record %s/%s", collection, key)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET data = $3, updated_at = now() WHERE collection = $1 AND key = $2`,
		collection, key, data,
	)
	if err != nil {
		return errors.Wrapf(err, "update %s/%s", collection, key)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, key string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND key = $2`,
		collection, key,
	)
	if err != nil {
		return errors.Wrapf(err, "delete %s/%s", collection, key)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "%s/%s", collection, key)
	}
	return nil
}

// Ping verifies database connectivity. Used by readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// AngelaMos | 2026
// postgres.go

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/metrics"
)

const postgresBackend = "postgres"

const (
	schemaSQL = `
CREATE TABLE IF NOT EXISTS record_collections (
	name       TEXT PRIMARY KEY,
	records    JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	ensureSQL = `INSERT INTO record_collections (name, records)
VALUES ($1, '[]'::jsonb) ON CONFLICT (name) DO NOTHING`

	selectSQL = `SELECT records FROM record_collections WHERE name = $1`

	selectForUpdateSQL = `SELECT records FROM record_collections WHERE name = $1 FOR UPDATE`

	upsertSQL = `INSERT INTO record_collections (name, records, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET records = EXCLUDED.records, updated_at = now()`
)

// PostgresStore keeps each collection as one JSONB row. Modify holds a row
// lock for the whole cycle, so concurrent writers in any process serialize.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(ctx context.Context, db *sqlx.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("create record_collections: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, collection string) ([]byte, error) {
	data, err := s.load(ctx, collection)
	metrics.ObserveStore(postgresBackend, "load", err)
	return data, err
}

func (s *PostgresStore) load(ctx context.Context, collection string) ([]byte, error) {
	if err := validateName(collection); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, ensureSQL, collection); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", collection, err)
	}

	var data []byte
	if err := s.db.GetContext(ctx, &data, selectSQL, collection); err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	return data, nil
}

func (s *PostgresStore) Save(
	ctx context.Context,
	collection string,
	data []byte,
) error {
	err := s.save(ctx, s.db, collection, data)
	metrics.ObserveStore(postgresBackend, "save", err)
	return err
}

func (s *PostgresStore) save(
	ctx context.Context,
	exec sqlx.ExecerContext,
	collection string,
	data []byte,
) error {
	if err := validateName(collection); err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, upsertSQL, collection, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) Modify(
	ctx context.Context,
	collection string,
	fn func(current []byte) ([]byte, error),
) error {
	err := s.modify(ctx, collection, fn)
	metrics.ObserveStore(postgresBackend, "modify", err)
	return err
}

func (s *PostgresStore) modify(
	ctx context.Context,
	collection string,
	fn func(current []byte) ([]byte, error),
) error {
	if err := validateName(collection); err != nil {
		return err
	}

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, ensureSQL, collection); err != nil {
			return fmt.Errorf("initialize %s: %w", collection, err)
		}

		var current []byte
		if err := tx.GetContext(ctx, &current, selectForUpdateSQL, collection); err != nil {
			return fmt.Errorf("lock %s: %w", collection, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		return s.save(ctx, tx, collection, next)
	})

	if errors.Is(err, ErrNoChange) {
		return nil
	}
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

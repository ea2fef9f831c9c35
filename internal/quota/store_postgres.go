package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore guarda el contador en una tabla de una sola fila. El
// incremento condicionado se expresa en SQL, por lo que la reserva es
// atomica igual que en el backend de Redis.
type PostgresStore struct {
	db    pgQuerier
	limit int
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewPostgresStore construye un Store respaldado por Postgres.
func NewPostgresStore(pool *pgxpool.Pool, limit int) *PostgresStore {
	if limit <= 0 {
		limit = 100
	}
	return &PostgresStore{db: pool, limit: limit}
}

// Init crea la tabla del contador y siembra la fila en cero si no existe.
func (s *PostgresStore) Init(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS registration_quota (
			id SMALLINT PRIMARY KEY CHECK (id = 1),
			registered INTEGER NOT NULL DEFAULT 0 CHECK (registered >= 0)
		)
	`
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create quota table: %w", err)
	}
	const seed = `
		INSERT INTO registration_quota (id, registered)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, seed); err != nil {
		return fmt.Errorf("seed quota row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) (Snapshot, error) {
	const query = `
		SELECT registered
		FROM registration_quota
		WHERE id = 1
	`
	var count int
	err := s.db.QueryRow(ctx, query).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{Registered: 0, Limit: s.limit}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read counter: %w", err)
	}
	if count < 0 {
		count = 0
	}
	return Snapshot{Registered: count, Limit: s.limit}, nil
}

func (s *PostgresStore) Reserve(ctx context.Context) (bool, error) {
	const query = `
		UPDATE registration_quota
		SET registered = registered + 1
		WHERE id = 1 AND registered < $1
	`
	tag, err := s.db.Exec(ctx, query, s.limit)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Release(ctx context.Context) error {
	const query = `
		UPDATE registration_quota
		SET registered = registered - 1
		WHERE id = 1 AND registered > 0
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

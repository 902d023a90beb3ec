package postgres

import (
	"context"
	"fmt"

	"github.com/gevorg96/universe-labs/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the connection pool and mints units of work.
type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{pool: pool}, nil
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Close() {
	db.pool.Close()
}

// UnitOfWork returns a fresh unit of work. Each logical operation gets its
// own, so concurrent operations never share a connection.
func (db *DB) UnitOfWork() repository.UnitOfWork {
	return &UnitOfWork{pool: db.pool}
}

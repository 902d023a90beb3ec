package postgres

import (
	"context"
	"fmt"

	"github.com/gevorg96/universe-labs/internal/domain"
	"github.com/gevorg96/universe-labs/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork holds at most one pooled connection, acquired lazily on the
// first statement and reused for every statement issued through it. A
// transaction opened with Begin runs on that same connection, so repository
// calls made before Commit are part of it.
type UnitOfWork struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn

	orders *OrderRepository
	items  *OrderItemRepository
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Orders() repository.OrderRepository {
	if u.orders == nil {
		u.orders = &OrderRepository{uow: u}
	}
	return u.orders
}

func (u *UnitOfWork) OrderItems() repository.OrderItemRepository {
	if u.items == nil {
		u.items = &OrderItemRepository{uow: u}
	}
	return u.items
}

// Begin ensures a connection exists and starts a transaction scoped to it.
func (u *UnitOfWork) Begin(ctx context.Context) (repository.Tx, error) {
	conn, err := u.acquire(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w: %w", domain.ErrConnectionFailed, err)
	}
	return tx, nil
}

// Release returns the connection to the pool. Safe to call when no
// connection was ever acquired, and idempotent.
func (u *UnitOfWork) Release() {
	if u.conn != nil {
		u.conn.Release()
		u.conn = nil
	}
}

// acquire returns the cached connection, creating one on first use. A
// connection that reports itself closed is discarded and replaced rather
// than resurfaced.
func (u *UnitOfWork) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if u.conn != nil && u.conn.Conn().IsClosed() {
		u.conn.Release()
		u.conn = nil
	}
	if u.conn != nil {
		return u.conn, nil
	}

	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w: %w", domain.ErrConnectionFailed, err)
	}
	u.conn = conn
	return u.conn, nil
}

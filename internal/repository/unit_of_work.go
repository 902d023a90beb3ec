package repository

import "context"

// Tx is an open storage transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWork scopes the storage calls of a single logical operation to one
// lazily acquired connection. Repositories obtained from it share that
// connection, so statements issued after Begin run inside the transaction.
// Release must be called on every exit path.
type UnitOfWork interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// Storage mints a fresh unit of work per operation, keeping concurrent
// operations on independent connections.
type Storage interface {
	UnitOfWork() UnitOfWork
}

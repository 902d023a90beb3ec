package repository

import (
	"context"

	"github.com/gevorg96/universe-labs/internal/domain"
)

// OrderItemQuery filters items by their parent order identifiers.
type OrderItemQuery struct {
	OrderIDs []int64
}

type OrderItemRepository interface {
	// BulkInsert persists all items in one statement; every item must already
	// carry its resolved parent order identifier.
	BulkInsert(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, error)
	Query(ctx context.Context, q OrderItemQuery) ([]domain.OrderItem, error)
}

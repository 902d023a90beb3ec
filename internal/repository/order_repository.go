package repository

import (
	"context"

	"github.com/gevorg96/universe-labs/internal/domain"
)

// OrderQuery is the optional filter set for reading order headers. Empty
// slices contribute no predicate; Limit and Offset apply only when positive.
type OrderQuery struct {
	IDs         []int64
	CustomerIDs []int64
	Limit       int
	Offset      int
}

type OrderRepository interface {
	// BulkInsert persists all headers in one statement and returns the full
	// persisted rows, including generated identifiers, in storage-chosen order.
	BulkInsert(ctx context.Context, orders []domain.Order) ([]domain.Order, error)
	Query(ctx context.Context, q OrderQuery) ([]domain.Order, error)
}

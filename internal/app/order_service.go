package app

import (
	"context"

	"github.com/gevorg96/universe-labs/internal/clock"
	"github.com/gevorg96/universe-labs/internal/domain"
	"github.com/gevorg96/universe-labs/internal/repository"
)

type OrderService struct {
	storage repository.Storage
	clock   clock.Clock
}

func NewOrderService(storage repository.Storage, clk clock.Clock) *OrderService {
	return &OrderService{
		storage: storage,
		clock:   clk,
	}
}

// QueryOrdersInput mirrors the query operation's filters. Page and PageSize
// of zero mean "no paging"; the caller-facing layer validates everything else.
type QueryOrdersInput struct {
	IDs               []int64
	CustomerIDs       []int64
	Page              int
	PageSize          int
	IncludeOrderItems bool
}

// orderKey correlates an input order with its storage-generated identifier
// after a set-based insert that does not preserve input order. Two orders
// with identical field values collapse to one key; see BatchInsert.
type orderKey struct {
	customerID int64
	address    string
	totalCents int64
	currency   string
}

func keyOf(o domain.Order) orderKey {
	return orderKey{
		customerID: o.CustomerID,
		address:    o.DeliveryAddress,
		totalCents: o.TotalPriceCents,
		currency:   o.TotalPriceCurrency,
	}
}

// BatchInsert persists the given orders and their items atomically and
// returns them, in input order, with identifiers and timestamps populated.
//
// Every row written in one call shares a single timestamp taken at the start.
// Identifiers are matched back to inputs by the
// (customer, address, total, currency) tuple; when two inputs share that
// tuple they both receive the same generated identifier (last write wins in
// the correlation map). A client-supplied correlation token would remove
// that ambiguity; until then the behavior is pinned by a regression test.
func (s *OrderService) BatchInsert(ctx context.Context, orders []domain.Order) ([]domain.Order, error) {
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	now := s.clock.Now()

	uow := s.storage.UnitOfWork()
	defer uow.Release()

	tx, err := uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// No-op once committed; guarantees the tx is never left open when a
	// write fails or the context is cancelled mid-flight.
	defer func() { _ = tx.Rollback(ctx) }()

	headers := make([]domain.Order, len(orders))
	for i, o := range orders {
		headers[i] = domain.Order{
			CustomerID:         o.CustomerID,
			DeliveryAddress:    o.DeliveryAddress,
			TotalPriceCents:    o.TotalPriceCents,
			TotalPriceCurrency: o.TotalPriceCurrency,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
	}

	inserted, err := uow.Orders().BulkInsert(ctx, headers)
	if err != nil {
		return nil, err
	}

	rowByKey := make(map[orderKey]domain.Order, len(inserted))
	for _, o := range inserted {
		rowByKey[keyOf(o)] = o
	}

	result := make([]domain.Order, len(orders))
	var flat []domain.OrderItem
	for i, o := range orders {
		row := rowByKey[keyOf(o)]
		o.ID = row.ID
		o.CreatedAt = row.CreatedAt
		o.UpdatedAt = row.UpdatedAt
		result[i] = o

		for _, it := range o.Items {
			it.OrderID = o.ID
			it.CreatedAt = now
			it.UpdatedAt = now
			flat = append(flat, it)
		}
	}

	insertedItems, err := uow.OrderItems().BulkInsert(ctx, flat)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	attachItems(result, insertedItems)
	return result, nil
}

// GetOrders reads orders matching the filters and, when requested, their
// items in a single follow-up query over the resolved identifier set.
func (s *OrderService) GetOrders(ctx context.Context, in QueryOrdersInput) ([]domain.Order, error) {
	uow := s.storage.UnitOfWork()
	defer uow.Release()

	orders, err := uow.Orders().Query(ctx, repository.OrderQuery{
		IDs:         in.IDs,
		CustomerIDs: in.CustomerIDs,
		Limit:       in.PageSize,
		Offset:      (in.Page - 1) * in.PageSize,
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	var items []domain.OrderItem
	if in.IncludeOrderItems {
		ids := make([]int64, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		items, err = uow.OrderItems().Query(ctx, repository.OrderItemQuery{OrderIDs: ids})
		if err != nil {
			return nil, err
		}
	}

	attachItems(orders, items)
	return orders, nil
}

// attachItems groups items by parent order and assigns each group to its
// order. Orders without items get an empty slice, never nil.
func attachItems(orders []domain.Order, items []domain.OrderItem) {
	byOrder := make(map[int64][]domain.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		if group, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = group
		} else {
			orders[i].Items = []domain.OrderItem{}
		}
	}
}

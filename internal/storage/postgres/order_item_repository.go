package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gevorg96/universe-labs/internal/domain"
	"github.com/gevorg96/universe-labs/internal/repository"
	"github.com/jackc/pgx/v5"
)

type OrderItemRepository struct {
	uow *UnitOfWork
}

// BulkInsert writes all items in a single multi-row statement. Every item
// must already reference a persisted order.
func (r *OrderItemRepository) BulkInsert(ctx context.Context, items []domain.OrderItem) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return []domain.OrderItem{}, nil
	}

	const stmt = `
INSERT INTO order_items (order_id, product_id, product_title, product_url, quantity, price_cents, price_currency, created_at, updated_at)
SELECT *
FROM unnest(
	$1::bigint[],
	$2::bigint[],
	$3::text[],
	$4::text[],
	$5::int[],
	$6::bigint[],
	$7::text[],
	$8::timestamptz[],
	$9::timestamptz[]
) AS t(order_id, product_id, product_title, product_url, quantity, price_cents, price_currency, created_at, updated_at)
RETURNING id, order_id, product_id, product_title, product_url, quantity, price_cents, price_currency, created_at, updated_at`

	var (
		orderIDs   = make([]int64, len(items))
		productIDs = make([]int64, len(items))
		titles     = make([]string, len(items))
		urls       = make([]string, len(items))
		quantities = make([]int32, len(items))
		priceCents = make([]int64, len(items))
		currencies = make([]string, len(items))
		createdAts = make([]time.Time, len(items))
		updatedAts = make([]time.Time, len(items))
	)
	for i, it := range items {
		orderIDs[i] = it.OrderID
		productIDs[i] = it.ProductID
		titles[i] = it.ProductTitle
		urls[i] = it.ProductURL
		quantities[i] = it.Quantity
		priceCents[i] = it.PriceCents
		currencies[i] = it.PriceCurrency
		createdAts[i] = it.CreatedAt
		updatedAts[i] = it.UpdatedAt
	}

	conn, err := r.uow.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, stmt,
		orderIDs, productIDs, titles, urls, quantities, priceCents, currencies, createdAts, updatedAts)
	if err != nil {
		return nil, wrapWriteErr("bulk insert order items", err)
	}
	defer rows.Close()

	inserted, err := scanOrderItems(rows)
	if err != nil {
		return nil, wrapWriteErr("bulk insert order items", err)
	}
	return inserted, nil
}

func (r *OrderItemRepository) Query(ctx context.Context, q repository.OrderItemQuery) ([]domain.OrderItem, error) {
	const query = `
SELECT id, order_id, product_id, product_title, product_url, quantity, price_cents, price_currency, created_at, updated_at
FROM order_items
WHERE order_id = ANY($1)`

	conn, err := r.uow.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, query, q.OrderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w: %w", domain.ErrQueryFailed, err)
	}
	defer rows.Close()

	items, err := scanOrderItems(rows)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w: %w", domain.ErrQueryFailed, err)
	}
	return items, nil
}

func scanOrderItems(rows pgx.Rows) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ProductID,
			&it.ProductTitle,
			&it.ProductURL,
			&it.Quantity,
			&it.PriceCents,
			&it.PriceCurrency,
			&it.CreatedAt,
			&it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order items: %w", rows.Err())
	}
	return items, nil
}

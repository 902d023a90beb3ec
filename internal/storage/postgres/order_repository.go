package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gevorg96/universe-labs/internal/domain"
	"github.com/gevorg96/universe-labs/internal/repository"
	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	uow *UnitOfWork
}

// BulkInsert writes all headers in a single multi-row statement and returns
// the persisted rows, including generated identifiers. The row order is
// whatever the store produced, not necessarily the input order.
func (r *OrderRepository) BulkInsert(ctx context.Context, orders []domain.Order) ([]domain.Order, error) {
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	const stmt = `
INSERT INTO orders (customer_id, delivery_address, total_price_cents, total_price_currency, created_at, updated_at)
SELECT *
FROM unnest(
	$1::bigint[],
	$2::text[],
	$3::bigint[],
	$4::text[],
	$5::timestamptz[],
	$6::timestamptz[]
) AS t(customer_id, delivery_address, total_price_cents, total_price_currency, created_at, updated_at)
RETURNING id, customer_id, delivery_address, total_price_cents, total_price_currency, created_at, updated_at`

	var (
		customerIDs = make([]int64, len(orders))
		addresses   = make([]string, len(orders))
		totalCents  = make([]int64, len(orders))
		currencies  = make([]string, len(orders))
		createdAts  = make([]time.Time, len(orders))
		updatedAts  = make([]time.Time, len(orders))
	)
	for i, o := range orders {
		customerIDs[i] = o.CustomerID
		addresses[i] = o.DeliveryAddress
		totalCents[i] = o.TotalPriceCents
		currencies[i] = o.TotalPriceCurrency
		createdAts[i] = o.CreatedAt
		updatedAts[i] = o.UpdatedAt
	}

	conn, err := r.uow.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, stmt,
		customerIDs, addresses, totalCents, currencies, createdAts, updatedAts)
	if err != nil {
		return nil, wrapWriteErr("bulk insert orders", err)
	}
	defer rows.Close()

	inserted, err := scanOrders(rows)
	if err != nil {
		return nil, wrapWriteErr("bulk insert orders", err)
	}
	return inserted, nil
}

func (r *OrderRepository) Query(ctx context.Context, q repository.OrderQuery) ([]domain.Order, error) {
	sql, args := buildOrdersQuery(q)

	conn, err := r.uow.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w: %w", domain.ErrQueryFailed, err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w: %w", domain.ErrQueryFailed, err)
	}
	return orders, nil
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.DeliveryAddress,
			&o.TotalPriceCents,
			&o.TotalPriceCurrency,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orders: %w", rows.Err())
	}
	return orders, nil
}

func wrapWriteErr(op string, err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%s: %w: %w: %w", op, domain.ErrWriteFailed, domain.ErrConstraintViolation, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrWriteFailed, err)
}

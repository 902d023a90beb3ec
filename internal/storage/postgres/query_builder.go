package postgres

import (
	"fmt"
	"strings"

	"github.com/gevorg96/universe-labs/internal/repository"
)

const selectOrdersBase = `
SELECT id, customer_id, delivery_address, total_price_cents, total_price_currency, created_at, updated_at
FROM orders`

// buildOrdersQuery folds the present filters into a parameterized statement.
// Absent or empty filters contribute no predicate; with no predicates at all
// the statement has no WHERE clause. Values are always bound as parameters,
// never interpolated into the text.
func buildOrdersQuery(q repository.OrderQuery) (string, []any) {
	var sb strings.Builder
	sb.WriteString(selectOrdersBase)

	var (
		args  []any
		conds []string
	)
	if len(q.IDs) > 0 {
		args = append(args, q.IDs)
		conds = append(conds, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if len(q.CustomerIDs) > 0 {
		args = append(args, q.CustomerIDs)
		conds = append(conds, fmt.Sprintf("customer_id = ANY($%d)", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return sb.String(), args
}

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gevorg96/universe-labs/internal/clock"
	"github.com/gevorg96/universe-labs/internal/domain"
	"github.com/gevorg96/universe-labs/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestOrderService_BatchInsert(t *testing.T) {
	t.Parallel()

	t.Run("persists units atomically and returns them in input order", func(t *testing.T) {
		storage := newFakeStorage()
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		units := []domain.Order{
			orderUnit(1, "addr-1", 300, 2),
			orderUnit(2, "addr-2", 100, 1),
			orderUnit(3, "addr-3", 500, 3),
		}

		got, err := svc.BatchInsert(context.Background(), units)
		require.NoError(t, err)
		require.Len(t, got, 3)

		for i, o := range got {
			assert.NotZero(t, o.ID)
			assert.Equal(t, units[i].CustomerID, o.CustomerID, "input order must be preserved")
			assert.Equal(t, units[i].DeliveryAddress, o.DeliveryAddress)
			assert.Len(t, o.Items, len(units[i].Items))
			assert.Equal(t, testNow, o.CreatedAt)
			assert.Equal(t, testNow, o.UpdatedAt)
			for _, it := range o.Items {
				assert.NotZero(t, it.ID)
				assert.Equal(t, o.ID, it.OrderID)
				assert.Equal(t, testNow, it.CreatedAt)
				assert.Equal(t, testNow, it.UpdatedAt)
			}
		}

		require.NotNil(t, storage.uow.tx)
		assert.Equal(t, 1, storage.uow.tx.commits)
		assert.Equal(t, 1, storage.uow.releases)
		assert.Equal(t, 1, storage.uow.orders.insertCalls, "orders written in one statement")
		assert.Equal(t, 1, storage.uow.items.insertCalls, "items written in one statement")
	})

	t.Run("correlates identifiers when storage reorders rows", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.orders.reverseReturned = true
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		units := []domain.Order{
			orderUnit(1, "addr-1", 300, 1),
			orderUnit(2, "addr-2", 100, 1),
		}

		got, err := svc.BatchInsert(context.Background(), units)
		require.NoError(t, err)

		// The fake assigns ids 1,2 in input order and returns the rows
		// reversed; correlation must still match each unit to its own row.
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)
	})

	t.Run("units sharing a correlation tuple collapse to one identifier", func(t *testing.T) {
		// Known limitation of natural-value correlation: the mapping is
		// last-write-wins, so identical units receive the same identifier.
		storage := newFakeStorage()
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		units := []domain.Order{
			orderUnit(1, "same-addr", 100, 1),
			orderUnit(1, "same-addr", 100, 1),
		}

		got, err := svc.BatchInsert(context.Background(), units)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, got[0].ID, got[1].ID)
	})

	t.Run("unit without items receives an empty slice", func(t *testing.T) {
		storage := newFakeStorage()
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		units := []domain.Order{
			orderUnit(1, "addr-1", 100, 1),
			orderUnit(2, "addr-2", 200, 0),
		}

		got, err := svc.BatchInsert(context.Background(), units)
		require.NoError(t, err)
		require.NotNil(t, got[1].Items)
		assert.Empty(t, got[1].Items)
	})

	t.Run("rolls back when the item insert fails", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.items.insertErr = domain.ErrWriteFailed
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		_, err := svc.BatchInsert(context.Background(), []domain.Order{orderUnit(1, "addr", 100, 1)})
		require.ErrorIs(t, err, domain.ErrWriteFailed)

		assert.Equal(t, 0, storage.uow.tx.commits)
		assert.GreaterOrEqual(t, storage.uow.tx.rollbacks, 1)
		assert.Equal(t, 1, storage.uow.releases)
	})

	t.Run("rolls back when the order insert fails", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.orders.insertErr = domain.ErrWriteFailed
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		_, err := svc.BatchInsert(context.Background(), []domain.Order{orderUnit(1, "addr", 100, 1)})
		require.ErrorIs(t, err, domain.ErrWriteFailed)

		assert.Equal(t, 0, storage.uow.tx.commits)
		assert.GreaterOrEqual(t, storage.uow.tx.rollbacks, 1)
		assert.Equal(t, 0, storage.uow.items.insertCalls)
	})

	t.Run("propagates a begin failure", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.beginErr = domain.ErrConnectionFailed
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		_, err := svc.BatchInsert(context.Background(), []domain.Order{orderUnit(1, "addr", 100, 1)})
		require.ErrorIs(t, err, domain.ErrConnectionFailed)
		assert.Equal(t, 0, storage.uow.orders.insertCalls)
		assert.Equal(t, 1, storage.uow.releases)
	})

	t.Run("empty batch touches no storage", func(t *testing.T) {
		storage := newFakeStorage()
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		got, err := svc.BatchInsert(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 0, storage.uow.beginCalls)
	})
}

func TestOrderService_GetOrders(t *testing.T) {
	t.Parallel()

	t.Run("maps paging to limit and offset", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.orders.queryResult = []domain.Order{persistedOrder(11, 5)}
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		_, err := svc.GetOrders(context.Background(), QueryOrdersInput{
			CustomerIDs: []int64{5},
			Page:        3,
			PageSize:    10,
		})
		require.NoError(t, err)

		assert.Equal(t, 10, storage.uow.orders.lastQuery.Limit)
		assert.Equal(t, 20, storage.uow.orders.lastQuery.Offset)
		assert.Equal(t, []int64{5}, storage.uow.orders.lastQuery.CustomerIDs)
	})

	t.Run("first page maps to zero offset", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.orders.queryResult = []domain.Order{persistedOrder(11, 5)}
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		_, err := svc.GetOrders(context.Background(), QueryOrdersInput{
			CustomerIDs: []int64{5},
			Page:        1,
			PageSize:    20,
		})
		require.NoError(t, err)

		assert.Equal(t, 20, storage.uow.orders.lastQuery.Limit)
		assert.Equal(t, 0, storage.uow.orders.lastQuery.Offset)
	})

	t.Run("without include flag the items query is never issued", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.orders.queryResult = []domain.Order{persistedOrder(11, 5), persistedOrder(12, 5)}
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		got, err := svc.GetOrders(context.Background(), QueryOrdersInput{CustomerIDs: []int64{5}})
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, 0, storage.uow.items.queryCalls)
		for _, o := range got {
			require.NotNil(t, o.Items)
			assert.Empty(t, o.Items)
		}
	})

	t.Run("with include flag items are fetched once and grouped by order", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.orders.queryResult = []domain.Order{persistedOrder(11, 5), persistedOrder(12, 5)}
		storage.uow.items.queryResult = []domain.OrderItem{
			{ID: 1, OrderID: 11, ProductID: 100},
			{ID: 2, OrderID: 12, ProductID: 101},
			{ID: 3, OrderID: 11, ProductID: 102},
		}
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		got, err := svc.GetOrders(context.Background(), QueryOrdersInput{
			CustomerIDs:       []int64{5},
			IncludeOrderItems: true,
		})
		require.NoError(t, err)

		assert.Equal(t, 1, storage.uow.items.queryCalls)
		assert.Equal(t, []int64{11, 12}, storage.uow.items.lastQuery.OrderIDs)
		require.Len(t, got[0].Items, 2)
		require.Len(t, got[1].Items, 1)
		assert.Equal(t, int64(101), got[1].Items[0].ProductID)
	})

	t.Run("empty result set skips the items query", func(t *testing.T) {
		storage := newFakeStorage()
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		got, err := svc.GetOrders(context.Background(), QueryOrdersInput{
			IDs:               []int64{404},
			IncludeOrderItems: true,
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 0, storage.uow.items.queryCalls)
	})

	t.Run("propagates a query failure", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uow.orders.queryErr = domain.ErrQueryFailed
		svc := NewOrderService(storage, clock.NewFixed(testNow))

		_, err := svc.GetOrders(context.Background(), QueryOrdersInput{IDs: []int64{1}})
		require.ErrorIs(t, err, domain.ErrQueryFailed)
	})
}

func orderUnit(customerID int64, address string, totalCents int64, itemCount int) domain.Order {
	items := make([]domain.OrderItem, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		items = append(items, domain.OrderItem{
			ProductID:     int64(100 + i),
			ProductTitle:  "product",
			ProductURL:    "https://shop.example/p",
			Quantity:      1,
			PriceCents:    totalCents / int64(max(itemCount, 1)),
			PriceCurrency: "RUB",
		})
	}
	return domain.Order{
		CustomerID:         customerID,
		DeliveryAddress:    address,
		TotalPriceCents:    totalCents,
		TotalPriceCurrency: "RUB",
		Items:              items,
	}
}

func persistedOrder(id, customerID int64) domain.Order {
	return domain.Order{
		ID:                 id,
		CustomerID:         customerID,
		DeliveryAddress:    "addr",
		TotalPriceCents:    100,
		TotalPriceCurrency: "RUB",
		CreatedAt:          testNow,
		UpdatedAt:          testNow,
	}
}

type fakeStorage struct {
	uow *fakeUnitOfWork
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uow: &fakeUnitOfWork{
			orders: &fakeOrderRepo{},
			items:  &fakeOrderItemRepo{},
			tx:     &fakeTx{},
		},
	}
}

func (s *fakeStorage) UnitOfWork() repository.UnitOfWork {
	return s.uow
}

type fakeUnitOfWork struct {
	orders *fakeOrderRepo
	items  *fakeOrderItemRepo
	tx     *fakeTx

	beginCalls int
	releases   int
	beginErr   error
}

func (u *fakeUnitOfWork) Orders() repository.OrderRepository         { return u.orders }
func (u *fakeUnitOfWork) OrderItems() repository.OrderItemRepository { return u.items }

func (u *fakeUnitOfWork) Begin(_ context.Context) (repository.Tx, error) {
	u.beginCalls++
	if u.beginErr != nil {
		return nil, u.beginErr
	}
	return u.tx, nil
}

func (u *fakeUnitOfWork) Release() {
	u.releases++
}

type fakeTx struct {
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.commits++
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.commits > 0 {
		return errors.New("tx already committed")
	}
	t.rollbacks++
	return nil
}

type fakeOrderRepo struct {
	insertCalls     int
	queryCalls      int
	lastQuery       repository.OrderQuery
	queryResult     []domain.Order
	insertErr       error
	queryErr        error
	reverseReturned bool
	nextID          int64
}

func (r *fakeOrderRepo) BulkInsert(_ context.Context, orders []domain.Order) ([]domain.Order, error) {
	r.insertCalls++
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	inserted := make([]domain.Order, len(orders))
	for i, o := range orders {
		r.nextID++
		o.ID = r.nextID
		inserted[i] = o
	}
	if r.reverseReturned {
		for i, j := 0, len(inserted)-1; i < j; i, j = i+1, j-1 {
			inserted[i], inserted[j] = inserted[j], inserted[i]
		}
	}
	return inserted, nil
}

func (r *fakeOrderRepo) Query(_ context.Context, q repository.OrderQuery) ([]domain.Order, error) {
	r.queryCalls++
	r.lastQuery = q
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.queryResult, nil
}

type fakeOrderItemRepo struct {
	insertCalls int
	queryCalls  int
	lastQuery   repository.OrderItemQuery
	queryResult []domain.OrderItem
	insertErr   error
	queryErr    error
	nextID      int64
}

func (r *fakeOrderItemRepo) BulkInsert(_ context.Context, items []domain.OrderItem) ([]domain.OrderItem, error) {
	r.insertCalls++
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	inserted := make([]domain.OrderItem, len(items))
	for i, it := range items {
		r.nextID++
		it.ID = r.nextID
		inserted[i] = it
	}
	return inserted, nil
}

func (r *fakeOrderItemRepo) Query(_ context.Context, q repository.OrderItemQuery) ([]domain.OrderItem, error) {
	r.queryCalls++
	r.lastQuery = q
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.queryResult, nil
}

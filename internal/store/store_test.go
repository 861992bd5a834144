package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"salesync/internal/core/apperror"
	"salesync/internal/core/types"
	"salesync/internal/domain/sales"
	"salesync/pkg/logger"
)

func newTestStore() *Store {
	return New(logger.Nop())
}

func recvCustomerChange(t *testing.T, s *Store) sales.CustomerChange {
	t.Helper()
	select {
	case ev := <-s.CustomerChanges():
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected a customer change event")
		return sales.CustomerChange{}
	}
}

func recvOrderChange(t *testing.T, s *Store) sales.OrderChange {
	t.Helper()
	select {
	case ev := <-s.OrderChanges():
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an order change event")
		return sales.OrderChange{}
	}
}

func requireNoCustomerChange(t *testing.T, s *Store) {
	t.Helper()
	select {
	case ev := <-s.CustomerChanges():
		t.Fatalf("unexpected customer change event: %+v", ev)
	default:
	}
}

func requireNoOrderChange(t *testing.T, s *Store) {
	t.Helper()
	select {
	case ev := <-s.OrderChanges():
		t.Fatalf("unexpected order change event: %+v", ev)
	default:
	}
}

func TestSeedData(t *testing.T) {
	s := newTestStore()

	products := s.Products()
	require.Len(t, products, 3)
	names := make(map[string]bool)
	for _, p := range products {
		names[p.Name] = true
	}
	require.True(t, names["Ramen"])
	require.True(t, names["Expensive Thing"])
	require.True(t, names["Futuristic Pizza"])

	require.Len(t, s.Customers(), 3)
	require.Len(t, s.Employees(), 3)
}

func TestAddCustomerAssignsIDAndEmitsEvent(t *testing.T) {
	s := newTestStore()

	created, err := s.AddCustomer(sales.Customer{
		FirstName: "Hub", MiddleInitial: "X", LastName: "Listener",
	})
	require.NoError(t, err)
	require.Equal(t, 4, created.ID)

	ev := recvCustomerChange(t, s)
	require.Equal(t, sales.Added, ev.Kind)
	require.Equal(t, created, ev.Payload)
	requireNoCustomerChange(t, s)
}

func TestEditCustomerUnknownID(t *testing.T) {
	s := newTestStore()

	_, err := s.EditCustomer(sales.Customer{ID: 99, FirstName: "Nobody", MiddleInitial: "Z", LastName: "Here"})
	require.True(t, apperror.IsNotFound(err))
	requireNoCustomerChange(t, s)
}

func TestEditCustomerReplacesRecordAndEmitsEvent(t *testing.T) {
	s := newTestStore()

	updated, err := s.EditCustomer(sales.Customer{ID: 1, FirstName: "Mike", MiddleInitial: "J", LastName: "Phillips"})
	require.NoError(t, err)

	ev := recvCustomerChange(t, s)
	require.Equal(t, sales.Updated, ev.Kind)
	require.Equal(t, updated, ev.Payload)
}

func TestDeleteCustomerWithOrdersIsConflict(t *testing.T) {
	s := newTestStore()

	_, err := s.AddOrder(sales.Order{SalespersonID: 1, CustomerID: 1, ProductID: 1, Quantity: types.NewQuantity(2)})
	require.NoError(t, err)
	recvOrderChange(t, s)

	_, err = s.DeleteCustomer(1)
	require.True(t, apperror.IsConflict(err))
	requireNoCustomerChange(t, s)

	// Customer must remain present after the rejected delete.
	require.Len(t, s.Customers(), 3)

	// Once the referencing order is gone, the delete goes through.
	_, err = s.DeleteOrder(1)
	require.NoError(t, err)
	recvOrderChange(t, s)

	deleted, err := s.DeleteCustomer(1)
	require.NoError(t, err)
	require.Equal(t, 1, deleted.ID)

	ev := recvCustomerChange(t, s)
	require.Equal(t, sales.Deleted, ev.Kind)
	require.Equal(t, deleted, ev.Payload)
}

func TestAddOrderValidation(t *testing.T) {
	s := newTestStore()

	cases := []struct {
		name  string
		order sales.Order
	}{
		{"non-zero id", sales.Order{ID: 7, SalespersonID: 1, CustomerID: 1, ProductID: 1}},
		{"unknown customer", sales.Order{SalespersonID: 1, CustomerID: 99, ProductID: 1}},
		{"unknown product", sales.Order{SalespersonID: 1, CustomerID: 1, ProductID: 99}},
		{"unknown salesperson", sales.Order{SalespersonID: 99, CustomerID: 1, ProductID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AddOrder(tc.order)
			require.True(t, apperror.IsValidation(err), "got %v", err)
			requireNoOrderChange(t, s)
		})
	}
}

func TestAddOrderDenormalizesProductName(t *testing.T) {
	s := newTestStore()

	view, err := s.AddOrder(sales.Order{SalespersonID: 2, CustomerID: 3, ProductID: 1, Quantity: types.MustQuantity("1.5")})
	require.NoError(t, err)
	require.Equal(t, 1, view.ID)
	require.Equal(t, "Ramen", view.ProductName)

	ev := recvOrderChange(t, s)
	require.Equal(t, sales.Added, ev.Kind)
	require.Equal(t, view, ev.Payload)
}

func TestEditOrder(t *testing.T) {
	s := newTestStore()

	_, err := s.EditOrder(sales.Order{ID: 42, SalespersonID: 1, CustomerID: 1, ProductID: 1})
	require.True(t, apperror.IsNotFound(err))
	requireNoOrderChange(t, s)

	created, err := s.AddOrder(sales.Order{SalespersonID: 1, CustomerID: 1, ProductID: 1, Quantity: types.NewQuantity(1)})
	require.NoError(t, err)
	recvOrderChange(t, s)

	_, err = s.EditOrder(sales.Order{ID: created.ID, SalespersonID: 1, CustomerID: 1, ProductID: 99})
	require.True(t, apperror.IsValidation(err))
	requireNoOrderChange(t, s)

	view, err := s.EditOrder(sales.Order{ID: created.ID, SalespersonID: 2, CustomerID: 1, ProductID: 3, Quantity: types.NewQuantity(4)})
	require.NoError(t, err)
	require.Equal(t, "Futuristic Pizza", view.ProductName)

	ev := recvOrderChange(t, s)
	require.Equal(t, sales.Updated, ev.Kind)
	require.Equal(t, view, ev.Payload)
}

func TestDeleteOrderUnknownID(t *testing.T) {
	s := newTestStore()

	_, err := s.DeleteOrder(42)
	require.True(t, apperror.IsNotFound(err))
	requireNoOrderChange(t, s)
}

func TestOrdersForCustomerIsScopedCopy(t *testing.T) {
	s := newTestStore()

	_, err := s.AddOrder(sales.Order{SalespersonID: 1, CustomerID: 1, ProductID: 1, Quantity: types.NewQuantity(1)})
	require.NoError(t, err)
	_, err = s.AddOrder(sales.Order{SalespersonID: 1, CustomerID: 2, ProductID: 2, Quantity: types.NewQuantity(1)})
	require.NoError(t, err)

	orders := s.OrdersForCustomer(1)
	require.Len(t, orders, 1)
	require.Equal(t, 1, orders[0].CustomerID)
	require.Equal(t, "Ramen", orders[0].ProductName)

	require.Empty(t, s.OrdersForCustomer(99))
}

func TestOrderKeepsLastKnownProductName(t *testing.T) {
	s := newTestStore()

	// An order referencing an absent product id is rejected outright...
	_, err := s.AddOrder(sales.Order{SalespersonID: 1, CustomerID: 1, ProductID: 42})
	require.True(t, apperror.IsValidation(err))

	// ...while an existing order's event payload carries the name read at
	// commit time and is never re-resolved.
	view, err := s.AddOrder(sales.Order{SalespersonID: 1, CustomerID: 1, ProductID: 1, Quantity: types.NewQuantity(1)})
	require.NoError(t, err)

	ev := recvOrderChange(t, s)
	require.Equal(t, "Ramen", ev.Payload.ProductName)
	require.Equal(t, view.ProductName, ev.Payload.ProductName)
}

func TestCustomerIDsAreNeverReused(t *testing.T) {
	s := newTestStore()

	first, err := s.AddCustomer(sales.Customer{FirstName: "A", MiddleInitial: "B", LastName: "C"})
	require.NoError(t, err)
	require.Equal(t, 4, first.ID)

	_, err = s.DeleteCustomer(first.ID)
	require.NoError(t, err)

	second, err := s.AddCustomer(sales.Customer{FirstName: "D", MiddleInitial: "E", LastName: "F"})
	require.NoError(t, err)
	require.Equal(t, 5, second.ID)
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	s := newTestStore()
	const writers = 50

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.AddCustomer(sales.Customer{FirstName: "Bulk", MiddleInitial: "Q", LastName: "Writer"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	customers := s.Customers()
	require.Len(t, customers, 3+writers)

	seen := make(map[int]bool, len(customers))
	for _, c := range customers {
		require.False(t, seen[c.ID], "duplicate id %d", c.ID)
		seen[c.ID] = true
	}

	// Exactly one event per accepted mutation.
	for i := 0; i < writers; i++ {
		recvCustomerChange(t, s)
	}
	requireNoCustomerChange(t, s)
}

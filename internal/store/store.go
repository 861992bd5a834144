// Package store holds the authoritative mutable state for the four entity
// collections. A single exclusive-writer/shared-reader lock guards every
// collection: mutations are mutually exclusive, reads run concurrently with
// each other but never with a writer.
//
// Change-emission discipline: every successful mutation captures exactly one
// change event (a copy of the committed state, orders joined with the current
// product name) while still holding the write lock, and hands it to the
// outbound streams only after the lock is released. Subscriber work can be
// slow or re-enter the store without risking deadlock, while the captured
// snapshot still matches what was committed.
package store

import (
	"sync"

	"salesync/internal/core/apperror"
	"salesync/internal/core/types"
	"salesync/internal/domain/sales"
	"salesync/pkg/logger"
)

// outboxSize bounds the handoff between writers and the relay. Writers never
// block on a stalled consumer: when the buffer is full the event is dropped
// and the affected subscribers recover via their next resync.
const outboxSize = 1024

// Store is the authoritative in-memory dataset. It is volatile: the entire
// state is reconstructable only via the snapshot queries.
type Store struct {
	log *logger.Logger

	mu        sync.RWMutex
	customers map[int]sales.Customer
	employees map[int]sales.Employee
	products  map[int]sales.Product
	orders    map[int]sales.Order

	// Next-id counters are monotonic per collection so ids are never
	// reused after a deletion, even of the current maximum.
	nextCustomerID int
	nextOrderID    int

	customerChanges chan sales.CustomerChange
	orderChanges    chan sales.OrderChange
}

// New creates a Store seeded with the built-in reference data: three
// customers, three employees and three products. Orders start empty.
func New(log *logger.Logger) *Store {
	s := &Store{
		log: log.WithComponent("store"),
		customers: map[int]sales.Customer{
			1: {ID: 1, FirstName: "Michael", MiddleInitial: "J", LastName: "Phillips"},
			2: {ID: 2, FirstName: "Roger", MiddleInitial: "A", LastName: "Baker"},
			3: {ID: 3, FirstName: "Samuel", MiddleInitial: "T", LastName: "Samuelson"},
		},
		employees: map[int]sales.Employee{
			1: {ID: 1, FirstName: "Catherine", MiddleInitial: "J", LastName: "Stevens"},
			2: {ID: 2, FirstName: "Michael", MiddleInitial: "A", LastName: "Chagger"},
			3: {ID: 3, FirstName: "Henry", MiddleInitial: "B", LastName: "Pyle"},
		},
		products: map[int]sales.Product{
			1: {ID: 1, Name: "Ramen", Price: types.MustMoney("1.56")},
			2: {ID: 2, Name: "Expensive Thing", Price: types.MustMoney("92834.76")},
			3: {ID: 3, Name: "Futuristic Pizza", Price: types.MustMoney("342.99")},
		},
		orders:          make(map[int]sales.Order),
		nextCustomerID:  4,
		nextOrderID:     1,
		customerChanges: make(chan sales.CustomerChange, outboxSize),
		orderChanges:    make(chan sales.OrderChange, outboxSize),
	}
	return s
}

// CustomerChanges exposes the customer change stream. Single consumer: the
// broadcast relay. The stream is lazy, unbounded in lifetime and not
// restartable.
func (s *Store) CustomerChanges() <-chan sales.CustomerChange {
	return s.customerChanges
}

// OrderChanges exposes the order change stream. Single consumer: the relay.
func (s *Store) OrderChanges() <-chan sales.OrderChange {
	return s.orderChanges
}

// --- Customers ---

// AddCustomer assigns the next customer id and stores the record.
// Field presence is validated upstream, not here.
func (s *Store) AddCustomer(c sales.Customer) (sales.Customer, error) {
	s.mu.Lock()
	c.ID = s.nextCustomerID
	s.nextCustomerID++
	s.customers[c.ID] = c
	change := sales.CustomerChange{Kind: sales.Added, Payload: c}
	s.mu.Unlock()

	s.publishCustomer(change)
	return c, nil
}

// EditCustomer replaces the full record. Unknown ids are rejected so the
// existence check and the write share one lock acquisition.
func (s *Store) EditCustomer(c sales.Customer) (sales.Customer, error) {
	s.mu.Lock()
	if _, ok := s.customers[c.ID]; !ok {
		s.mu.Unlock()
		return sales.Customer{}, apperror.NewNotFound("customer", c.ID)
	}
	s.customers[c.ID] = c
	change := sales.CustomerChange{Kind: sales.Updated, Payload: c}
	s.mu.Unlock()

	s.publishCustomer(change)
	return c, nil
}

// DeleteCustomer removes the customer. A customer with at least one
// referencing order cannot be deleted; the referential check and the removal
// are evaluated under the same write-lock acquisition, otherwise a
// concurrent order create could race past the check.
func (s *Store) DeleteCustomer(id int) (sales.Customer, error) {
	s.mu.Lock()
	c, ok := s.customers[id]
	if !ok {
		s.mu.Unlock()
		return sales.Customer{}, apperror.NewNotFound("customer", id)
	}
	for _, o := range s.orders {
		if o.CustomerID == id {
			s.mu.Unlock()
			return sales.Customer{}, apperror.NewConflict("customer has orders and cannot be deleted").
				WithDetail("id", id)
		}
	}
	delete(s.customers, id)
	change := sales.CustomerChange{Kind: sales.Deleted, Payload: c}
	s.mu.Unlock()

	s.publishCustomer(change)
	return c, nil
}

// Customers returns a defensive copy of the customer collection.
func (s *Store) Customers() []sales.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sales.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	return out
}

// --- Reference lists ---

// Employees returns the static employee reference list.
func (s *Store) Employees() []sales.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sales.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	return out
}

// Products returns the static product reference list.
func (s *Store) Products() []sales.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sales.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out
}

// --- Orders ---

// AddOrder validates the references, assigns the next order id and stores
// the record. The incoming id must be zero.
func (s *Store) AddOrder(o sales.Order) (sales.OrderView, error) {
	s.mu.Lock()
	if o.ID != 0 {
		s.mu.Unlock()
		return sales.OrderView{}, apperror.NewValidation("order id must be 0 on create").
			WithDetail("id", o.ID)
	}
	if err := s.checkOrderRefsLocked(o); err != nil {
		s.mu.Unlock()
		return sales.OrderView{}, err
	}

	o.ID = s.nextOrderID
	s.nextOrderID++
	s.orders[o.ID] = o
	view := s.orderViewLocked(o)
	change := sales.OrderChange{Kind: sales.Added, Payload: view}
	s.mu.Unlock()

	s.publishOrder(change)
	return view, nil
}

// EditOrder replaces the full record after re-validating every reference.
func (s *Store) EditOrder(o sales.Order) (sales.OrderView, error) {
	s.mu.Lock()
	if _, ok := s.orders[o.ID]; !ok {
		s.mu.Unlock()
		return sales.OrderView{}, apperror.NewNotFound("order", o.ID)
	}
	if err := s.checkOrderRefsLocked(o); err != nil {
		s.mu.Unlock()
		return sales.OrderView{}, err
	}

	s.orders[o.ID] = o
	view := s.orderViewLocked(o)
	change := sales.OrderChange{Kind: sales.Updated, Payload: view}
	s.mu.Unlock()

	s.publishOrder(change)
	return view, nil
}

// DeleteOrder removes the order.
func (s *Store) DeleteOrder(id int) (sales.OrderView, error) {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return sales.OrderView{}, apperror.NewNotFound("order", id)
	}
	delete(s.orders, id)
	view := s.orderViewLocked(o)
	change := sales.OrderChange{Kind: sales.Deleted, Payload: view}
	s.mu.Unlock()

	s.publishOrder(change)
	return view, nil
}

// OrdersForCustomer returns a defensive copy of the orders referencing the
// customer, each joined with the current product name.
func (s *Store) OrdersForCustomer(customerID int) []sales.OrderView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sales.OrderView, 0)
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, s.orderViewLocked(o))
		}
	}
	return out
}

// --- internals ---

// checkOrderRefsLocked validates every foreign key against the live
// collections. Caller holds the write lock.
func (s *Store) checkOrderRefsLocked(o sales.Order) error {
	if _, ok := s.customers[o.CustomerID]; !ok {
		return apperror.NewValidation("customer not found").WithDetail("customerId", o.CustomerID)
	}
	if _, ok := s.products[o.ProductID]; !ok {
		return apperror.NewValidation("product not found").WithDetail("productId", o.ProductID)
	}
	if _, ok := s.employees[o.SalespersonID]; !ok {
		return apperror.NewValidation("salesperson not found").WithDetail("salespersonId", o.SalespersonID)
	}
	return nil
}

// orderViewLocked joins the order with the product name as of now.
// Caller holds at least the read lock.
func (s *Store) orderViewLocked(o sales.Order) sales.OrderView {
	view := sales.OrderView{Order: o}
	if p, ok := s.products[o.ProductID]; ok {
		view.ProductName = p.Name
	}
	return view
}

func (s *Store) publishCustomer(change sales.CustomerChange) {
	select {
	case s.customerChanges <- change:
	default:
		s.log.Warnw("customer change dropped, outbox full",
			"kind", change.Kind, "id", change.Payload.ID)
	}
}

func (s *Store) publishOrder(change sales.OrderChange) {
	select {
	case s.orderChanges <- change:
	default:
		s.log.Warnw("order change dropped, outbox full",
			"kind", change.Kind, "id", change.Payload.ID)
	}
}

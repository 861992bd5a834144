// Package sales defines the entity collections kept in the authoritative
// in-memory store: customers, employees, products and orders.
//
// All ids are store-assigned positive integers, unique within their
// collection and never reused after deletion. The structs are plain wire
// records: they carry the JSON shape used by both the snapshot API and the
// change feed.
package sales

import (
	"salesync/internal/core/types"
)

// Customer is a buyer placing orders.
type Customer struct {
	ID            int    `json:"id"`
	FirstName     string `json:"firstName"`
	MiddleInitial string `json:"middleInitial"`
	LastName      string `json:"lastName"`
}

// Employee is a salesperson. Employees are a static reference list:
// the store seeds them and exposes no mutation.
type Employee struct {
	ID            int    `json:"id"`
	FirstName     string `json:"firstName"`
	MiddleInitial string `json:"middleInitial"`
	LastName      string `json:"lastName"`
}

// Product is a sellable item. Static reference list, like Employee.
type Product struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Price types.Money `json:"price"`
}

// Order references a customer, a product and a salesperson by id.
// References are validated at create/edit time only; an order outlives
// the referenced product's name changes (see OrderView).
type Order struct {
	ID            int            `json:"id"`
	SalespersonID int            `json:"salespersonId"`
	CustomerID    int            `json:"customerId"`
	ProductID     int            `json:"productId"`
	Quantity      types.Quantity `json:"quantity"`
}

// OrderView is the order representation handed to viewers. ProductName is
// denormalized at commit (or read) time so a viewer can render the order
// without a second round trip. It is never re-resolved afterwards.
type OrderView struct {
	Order
	ProductName string `json:"productName,omitempty"`
}

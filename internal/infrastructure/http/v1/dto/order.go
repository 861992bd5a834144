package dto

import (
	"salesync/internal/core/types"
	"salesync/internal/domain/sales"
)

// CreateOrderRequest for creating and editing orders. Ids are positive, so
// required bindings reject both missing and zero values.
type CreateOrderRequest struct {
	SalespersonID int            `json:"salespersonId" binding:"required"`
	CustomerID    int            `json:"customerId" binding:"required"`
	ProductID     int            `json:"productId" binding:"required"`
	Quantity      types.Quantity `json:"quantity"`
}

// ToEntity maps the request to a domain record with id 0; the store
// assigns the id on create.
func (r CreateOrderRequest) ToEntity() sales.Order {
	return sales.Order{
		SalespersonID: r.SalespersonID,
		CustomerID:    r.CustomerID,
		ProductID:     r.ProductID,
		Quantity:      r.Quantity,
	}
}

// ToEntityWithID maps the request plus the path id, for edits.
func (r CreateOrderRequest) ToEntityWithID(id int) sales.Order {
	o := r.ToEntity()
	o.ID = id
	return o
}

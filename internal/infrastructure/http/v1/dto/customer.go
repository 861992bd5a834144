package dto

import (
	"salesync/internal/domain/sales"
)

// CreateCustomerRequest for creating customers. All name parts required.
type CreateCustomerRequest struct {
	FirstName     string `json:"firstName" binding:"required"`
	MiddleInitial string `json:"middleInitial" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
}

// ToEntity maps the request to a domain record. The store assigns the id.
func (r CreateCustomerRequest) ToEntity() sales.Customer {
	return sales.Customer{
		FirstName:     r.FirstName,
		MiddleInitial: r.MiddleInitial,
		LastName:      r.LastName,
	}
}

// UpdateCustomerRequest replaces the full record.
type UpdateCustomerRequest struct {
	FirstName     string `json:"firstName" binding:"required"`
	MiddleInitial string `json:"middleInitial" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
}

// ToEntity maps the request plus the path id to a domain record.
func (r UpdateCustomerRequest) ToEntity(id int) sales.Customer {
	return sales.Customer{
		ID:            id,
		FirstName:     r.FirstName,
		MiddleInitial: r.MiddleInitial,
		LastName:      r.LastName,
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"salesync/internal/infrastructure/http/v1/dto"
	"salesync/internal/store"
)

// CustomerHandler serves the customer CRUD endpoints.
type CustomerHandler struct {
	*BaseHandler
	store *store.Store
}

// NewCustomerHandler creates a customer handler.
func NewCustomerHandler(base *BaseHandler, st *store.Store) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, store: st}
}

// List handles GET /api/customers
func (h *CustomerHandler) List(c *gin.Context) {
	h.OK(c, h.store.Customers())
}

// Create handles POST /api/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.store.AddCustomer(req.ToEntity())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, customer)
}

// Update handles PUT /api/customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParseIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.store.EditCustomer(req.ToEntity(id))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, customer)
}

// Delete handles DELETE /api/customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	if _, err := h.store.DeleteCustomer(id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

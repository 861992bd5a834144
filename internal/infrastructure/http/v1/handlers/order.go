package handlers

import (
	"github.com/gin-gonic/gin"

	"salesync/internal/infrastructure/http/v1/dto"
	"salesync/internal/store"
)

// OrderHandler serves the order CRUD endpoints. All responses are order
// views: the raw foreign keys plus the product name joined by the store.
type OrderHandler struct {
	*BaseHandler
	store *store.Store
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(base *BaseHandler, st *store.Store) *OrderHandler {
	return &OrderHandler{BaseHandler: base, store: st}
}

// List handles GET /api/orders?customerId=N
func (h *OrderHandler) List(c *gin.Context) {
	customerID, ok := h.ParseIntQuery(c, "customerId")
	if !ok {
		return
	}
	h.OK(c, h.store.OrdersForCustomer(customerID))
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.store.AddOrder(req.ToEntity())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Update handles PUT /api/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := h.ParseIDParam(c)
	if !ok {
		return
	}
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.store.EditOrder(req.ToEntityWithID(id))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Delete handles DELETE /api/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	if _, err := h.store.DeleteOrder(id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

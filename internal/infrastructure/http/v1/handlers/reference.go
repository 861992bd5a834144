package handlers

import (
	"github.com/gin-gonic/gin"

	"salesync/internal/store"
)

// ReferenceHandler serves the static reference lists. Clients fetch these
// once per process lifetime (the order-entry form needs them).
type ReferenceHandler struct {
	*BaseHandler
	store *store.Store
}

// NewReferenceHandler creates a reference-data handler.
func NewReferenceHandler(base *BaseHandler, st *store.Store) *ReferenceHandler {
	return &ReferenceHandler{BaseHandler: base, store: st}
}

// Products handles GET /api/products
func (h *ReferenceHandler) Products(c *gin.Context) {
	h.OK(c, h.store.Products())
}

// Employees handles GET /api/employees
func (h *ReferenceHandler) Employees(c *gin.Context) {
	h.OK(c, h.store.Employees())
}

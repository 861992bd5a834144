// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"salesync/internal/infrastructure/http/v1/handlers"
	"salesync/internal/infrastructure/http/v1/middleware"
	"salesync/internal/relay"
	"salesync/internal/store"
	"salesync/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Store is the authoritative entity store
	Store *store.Store

	// Hub tracks live websocket sessions
	Hub *relay.Hub

	// Logger for request logging
	Logger *logger.Logger

	// CORSOrigin is the allowed browser origin (empty = any)
	CORSOrigin string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSOrigin))

	baseHandler := handlers.NewBaseHandler()

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Hub)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Event-stream subscription
	wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Logger, cfg.CORSOrigin)
	router.GET("/ws", wsHandler.Serve)

	// API
	api := router.Group("/api")
	{
		customerHandler := handlers.NewCustomerHandler(baseHandler, cfg.Store)
		api.GET("/customers", customerHandler.List)
		api.POST("/customers", customerHandler.Create)
		api.PUT("/customers/:id", customerHandler.Update)
		api.DELETE("/customers/:id", customerHandler.Delete)

		orderHandler := handlers.NewOrderHandler(baseHandler, cfg.Store)
		api.GET("/orders", orderHandler.List)
		api.POST("/orders", orderHandler.Create)
		api.PUT("/orders/:id", orderHandler.Update)
		api.DELETE("/orders/:id", orderHandler.Delete)

		refHandler := handlers.NewReferenceHandler(baseHandler, cfg.Store)
		api.GET("/products", refHandler.Products)
		api.GET("/employees", refHandler.Employees)
	}

	return router
}

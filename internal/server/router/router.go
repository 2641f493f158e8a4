package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(odooHandler *handlers.OdooHandler, extractHandler *handlers.ExtractHandler, reconcileHandler *handlers.ReconcileHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	odooGroup := r.Group("/api/odoo")
	{
		odooGroup.GET("/products", odooHandler.ListProducts)
		odooGroup.GET("/products/export", odooHandler.ExportProducts)
		odooGroup.GET("/products/code/:code", odooHandler.GetProductByCode)
		odooGroup.GET("/products/:id", odooHandler.GetProductByID)
		odooGroup.GET("/products/:id/stock", odooHandler.GetProductStock)
		odooGroup.PUT("/products/:id/price", odooHandler.UpdatePrice)
		odooGroup.PUT("/products/:id/stock", odooHandler.UpdateStock)
		odooGroup.GET("/categories", odooHandler.ListCategories)
	}

	extractGroup := r.Group("/api/extract")
	{
		extractGroup.GET("/products", extractHandler.ListProducts)
		extractGroup.GET("/products/code/:code", extractHandler.GetProductByCode)
		extractGroup.GET("/products/barcode/:barcode", extractHandler.GetProductByBarcode)
		extractGroup.GET("/products/category/:category", extractHandler.GetProductsByCategory)
		extractGroup.GET("/categories", extractHandler.ListCategories)
		extractGroup.GET("/statistics", extractHandler.GetStatistics)
	}

	r.POST("/api/reconcile", reconcileHandler.Run)
	r.GET("/api/reconcile/history", reconcileHandler.History)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

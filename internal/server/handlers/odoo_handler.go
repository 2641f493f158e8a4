package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/pkg/clients/odoo"
)

// OdooHandler exposes the ERP client as request/response endpoints. Pure
// parameter marshaling; no decision logic lives here.
type OdooHandler struct {
	client *odoo.Client
	logger *zap.Logger
}

// NewOdooHandler constructs the HTTP handler adapter for the ERP side.
func NewOdooHandler(client *odoo.Client, logger *zap.Logger) *OdooHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OdooHandler{client: client, logger: logger}
}

// ListProducts returns one page of products, 100 by default. An explicit
// limit of zero walks every page.
func (h *OdooHandler) ListProducts(c *gin.Context) {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}

	products, err := h.client.SearchProducts(c.Request.Context(), odoo.SearchOptions{Limit: limit, Offset: offset})
	if err != nil {
		h.logger.Error("failed listing products", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to fetch products"})
		return
	}

	if total, err := h.client.CountProducts(c.Request.Context()); err == nil {
		c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	} else {
		h.logger.Warn("failed counting products", zap.Error(err))
	}

	c.JSON(http.StatusOK, products)
}

// GetProductByID returns a product by its ERP id.
func (h *OdooHandler) GetProductByID(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}

	product, err := h.client.ProductByID(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err, "unable to fetch product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetProductByCode returns a product by its internal reference code.
func (h *OdooHandler) GetProductByCode(c *gin.Context) {
	product, err := h.client.ProductByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err, "unable to fetch product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetProductStock returns the detailed stock figures of a product.
func (h *OdooHandler) GetProductStock(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}

	stock, err := h.client.ProductStock(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err, "unable to fetch stock")
		return
	}

	c.JSON(http.StatusOK, stock)
}

// ListCategories returns every product category.
func (h *OdooHandler) ListCategories(c *gin.Context) {
	categories, err := h.client.Categories(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing categories", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

// ExportProducts writes a JSON artifact of ERP products to disk.
func (h *OdooHandler) ExportProducts(c *gin.Context) {
	filename := c.DefaultQuery("filename", "odoo_products.json")
	limit, err := queryInt(c, "limit", 1000)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	count, err := h.client.ExportProducts(c.Request.Context(), filename, limit)
	if err != nil {
		h.respondError(c, err, "unable to export products")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "products exported", "filename": filename, "count": count})
}

type updatePriceRequest struct {
	ListPrice     *float64 `json:"list_price"`
	StandardPrice *float64 `json:"standard_price"`
}

// UpdatePrice writes the supplied price fields of a product.
func (h *OdooHandler) UpdatePrice(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}

	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.client.UpdateProductPrice(c.Request.Context(), productID, req.ListPrice, req.StandardPrice)
	if err != nil {
		h.respondError(c, err, "unable to update price")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

type updateStockRequest struct {
	Quantity   *float64 `json:"quantity" binding:"required"`
	LocationID *int64   `json:"location_id"`
}

// UpdateStock upserts the stock quant of a product.
func (h *OdooHandler) UpdateStock(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}

	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity field is required"})
		return
	}

	product, err := h.client.UpdateProductStock(c.Request.Context(), productID, *req.Quantity, req.LocationID)
	if err != nil {
		h.respondError(c, err, "unable to update stock")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (h *OdooHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, odoo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, odoo.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("odoo request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	value := c.Query(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

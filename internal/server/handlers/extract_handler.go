package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/repository/extract"
)

// ExtractHandler exposes the read-only inventory extract as HTTP endpoints.
type ExtractHandler struct {
	reader *extract.Reader
	logger *zap.Logger
}

// NewExtractHandler constructs the HTTP handler adapter for the extract side.
func NewExtractHandler(reader *extract.Reader, logger *zap.Logger) *ExtractHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractHandler{reader: reader, logger: logger}
}

// ListProducts returns extract rows, optionally filtered by query parameters
// matched case-insensitively against the column of the same name.
func (h *ExtractHandler) ListProducts(c *gin.Context) {
	rows, err := h.reader.Rows(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading extract rows", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load extract"})
		return
	}

	c.JSON(http.StatusOK, filterRows(rows, c))
}

// GetProductByCode returns the extract row carrying the given code.
func (h *ExtractHandler) GetProductByCode(c *gin.Context) {
	row, err := h.reader.FetchByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, extract.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("failed fetching extract row", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load extract"})
		return
	}

	c.JSON(http.StatusOK, row)
}

// GetProductByBarcode returns the extract row carrying the given barcode.
func (h *ExtractHandler) GetProductByBarcode(c *gin.Context) {
	row, err := h.reader.FetchByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		if errors.Is(err, extract.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("failed fetching extract row", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load extract"})
		return
	}

	c.JSON(http.StatusOK, row)
}

// GetProductsByCategory returns the extract rows whose category contains the
// given name.
func (h *ExtractHandler) GetProductsByCategory(c *gin.Context) {
	rows, err := h.reader.ProductsByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		if errors.Is(err, extract.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no products found in this category"})
			return
		}
		h.logger.Error("failed loading extract rows", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load extract"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// ListCategories returns the category sheet rows, optionally filtered.
func (h *ExtractHandler) ListCategories(c *gin.Context) {
	rows, err := h.reader.CategoryRows(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading category rows", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load extract"})
		return
	}

	c.JSON(http.StatusOK, filterRows(rows, c))
}

// GetStatistics returns aggregate inventory figures from the extract.
func (h *ExtractHandler) GetStatistics(c *gin.Context) {
	stats, err := h.reader.Statistics(c.Request.Context())
	if err != nil {
		h.logger.Error("failed computing extract statistics", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load extract"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// filterRows keeps rows whose column values contain every matching query
// parameter value, case-insensitively.
func filterRows(rows []extract.Row, c *gin.Context) []extract.Row {
	filters := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 && values[0] != "" {
			filters[key] = strings.ToLower(values[0])
		}
	}
	if len(filters) == 0 {
		return rows
	}

	filtered := make([]extract.Row, 0, len(rows))
	for _, row := range rows {
		matches := true
		for column, want := range filters {
			if !strings.Contains(strings.ToLower(row[column]), want) {
				matches = false
				break
			}
		}
		if matches {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

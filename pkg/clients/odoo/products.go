package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/rmaldonado/stocksync/internal/domain/models"
)

const (
	productModel  = "product.product"
	categoryModel = "product.category"
	quantModel    = "stock.quant"
	locationModel = "stock.location"

	// Pages fetched while walking the full product set.
	productPageSize = 100

	// Odoo expects datetimes in this layout, UTC, no zone suffix.
	odooDatetimeLayout = "2006-01-02 15:04:05"

	// How far ahead the next physical recount is scheduled after a
	// corrective stock write.
	recountHorizonDays = 90
)

var productFields = []string{
	"id", "name", "default_code", "list_price", "standard_price",
	"categ_id", "qty_available", "barcode",
}

// SearchOptions narrows a product search. With Limit zero SearchProducts
// walks every page; a positive Limit fetches exactly one page at Offset.
type SearchOptions struct {
	Domain []any
	Limit  int
	Offset int
}

// SearchProducts fetches stockable products. Unless a page is requested
// explicitly it paginates to completion rather than stopping after the
// first batch.
func (c *Client) SearchProducts(ctx context.Context, opts SearchOptions) ([]models.Product, error) {
	domain := opts.Domain
	if domain == nil {
		domain = []any{eq("type", "product")}
	}

	if opts.Limit > 0 {
		var records []map[string]any
		if err := c.SearchRead(ctx, productModel, domain, productFields, opts.Limit, opts.Offset, &records); err != nil {
			return nil, fmt.Errorf("search products: %w", err)
		}
		return productsFromRecords(records), nil
	}

	var all []models.Product
	offset := opts.Offset
	for {
		var records []map[string]any
		if err := c.SearchRead(ctx, productModel, domain, productFields, productPageSize, offset, &records); err != nil {
			return nil, fmt.Errorf("search products at offset %d: %w", offset, err)
		}
		all = append(all, productsFromRecords(records)...)
		if len(records) < productPageSize {
			return all, nil
		}
		offset += productPageSize
	}
}

// CountProducts returns how many stockable products exist.
func (c *Client) CountProducts(ctx context.Context) (int64, error) {
	count, err := c.SearchCount(ctx, productModel, []any{eq("type", "product")})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// ListProducts fetches every stockable product, walking all pages.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	return c.SearchProducts(ctx, SearchOptions{})
}

// ProductByID reads a single product by its Odoo id.
func (c *Client) ProductByID(ctx context.Context, productID int64) (models.Product, error) {
	if productID <= 0 {
		return models.Product{}, fmt.Errorf("%w: product id %d", ErrInvalidArgument, productID)
	}

	var records []map[string]any
	if err := c.Read(ctx, productModel, []int64{productID}, productFields, &records); err != nil {
		return models.Product{}, fmt.Errorf("read product %d: %w", productID, err)
	}
	if len(records) == 0 {
		return models.Product{}, fmt.Errorf("%w: product id %d", ErrNotFound, productID)
	}

	return productFromRecord(records[0]), nil
}

// ProductByCode resolves a product by its internal reference code.
func (c *Client) ProductByCode(ctx context.Context, code string) (models.Product, error) {
	if code == "" {
		return models.Product{}, fmt.Errorf("%w: empty product code", ErrInvalidArgument)
	}

	var records []map[string]any
	if err := c.SearchRead(ctx, productModel, []any{eq("default_code", code)}, productFields, 1, 0, &records); err != nil {
		return models.Product{}, fmt.Errorf("search product by code %s: %w", code, err)
	}
	if len(records) == 0 {
		return models.Product{}, fmt.Errorf("%w: product code %s", ErrNotFound, code)
	}

	return productFromRecord(records[0]), nil
}

// ProductStock reads the detailed stock figures of a product.
func (c *Client) ProductStock(ctx context.Context, productID int64) (models.StockInfo, error) {
	if productID <= 0 {
		return models.StockInfo{}, fmt.Errorf("%w: product id %d", ErrInvalidArgument, productID)
	}

	fields := []string{"qty_available", "virtual_available", "incoming_qty", "outgoing_qty"}

	var records []map[string]any
	if err := c.Read(ctx, productModel, []int64{productID}, fields, &records); err != nil {
		return models.StockInfo{}, fmt.Errorf("read product stock %d: %w", productID, err)
	}
	if len(records) == 0 {
		return models.StockInfo{}, fmt.Errorf("%w: product id %d", ErrNotFound, productID)
	}

	rec := records[0]
	return models.StockInfo{
		QtyAvailable:     floatField(rec, "qty_available"),
		VirtualAvailable: floatField(rec, "virtual_available"),
		IncomingQty:      floatField(rec, "incoming_qty"),
		OutgoingQty:      floatField(rec, "outgoing_qty"),
	}, nil
}

// Categories lists every product category.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var records []map[string]any
	if err := c.SearchRead(ctx, categoryModel, []any{}, []string{"id", "name", "parent_id"}, 0, 0, &records); err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}

	categories := make([]models.Category, 0, len(records))
	for _, rec := range records {
		categories = append(categories, models.Category{
			ID:       int64(floatField(rec, "id")),
			Name:     stringField(rec, "name"),
			ParentID: refID(rec["parent_id"]),
		})
	}
	return categories, nil
}

// UpdateProductPrice writes only the supplied price fields and returns the
// post-write product snapshot.
func (c *Client) UpdateProductPrice(ctx context.Context, productID int64, listPrice, standardPrice *float64) (models.Product, error) {
	if productID <= 0 {
		return models.Product{}, fmt.Errorf("%w: product id %d", ErrInvalidArgument, productID)
	}
	if listPrice == nil && standardPrice == nil {
		return models.Product{}, fmt.Errorf("%w: at least one of list_price or standard_price must be provided", ErrInvalidArgument)
	}

	values := map[string]any{}
	if listPrice != nil {
		values["list_price"] = *listPrice
	}
	if standardPrice != nil {
		values["standard_price"] = *standardPrice
	}

	if err := c.Write(ctx, productModel, []int64{productID}, values); err != nil {
		return models.Product{}, fmt.Errorf("update price of product %d: %w", productID, err)
	}

	return c.ProductByID(ctx, productID)
}

// UpdateProductStock upserts the stock quant keyed by (product, location):
// the counted quantity is overwritten and the next physical recount is
// scheduled 90 days out. The recount date advances on every call, so the
// operation is idempotent on quantity but not on that one field. Without an
// explicit location it targets the company's default internal location.
func (c *Client) UpdateProductStock(ctx context.Context, productID int64, quantity float64, locationID *int64) (models.Product, error) {
	if productID <= 0 {
		return models.Product{}, fmt.Errorf("%w: product id %d", ErrInvalidArgument, productID)
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return models.Product{}, fmt.Errorf("%w: quantity must be a finite number", ErrInvalidArgument)
	}

	var location int64
	if locationID != nil {
		location = *locationID
	} else {
		resolved, err := c.defaultInternalLocation(ctx)
		if err != nil {
			return models.Product{}, err
		}
		location = resolved
	}

	quantDomain := []any{eq("product_id", productID), eq("location_id", location)}
	quantIDs, err := c.Search(ctx, quantModel, quantDomain, 0)
	if err != nil {
		return models.Product{}, fmt.Errorf("search quant for product %d at location %d: %w", productID, location, err)
	}

	inventoryDate := c.now().UTC().AddDate(0, 0, recountHorizonDays).Format(odooDatetimeLayout)

	if len(quantIDs) > 0 {
		values := map[string]any{
			"inventory_quantity": quantity,
			"inventory_date":     inventoryDate,
		}
		if err := c.Write(ctx, quantModel, quantIDs, values); err != nil {
			return models.Product{}, fmt.Errorf("update quant for product %d: %w", productID, err)
		}
	} else {
		values := map[string]any{
			"product_id":         productID,
			"location_id":        location,
			"inventory_quantity": quantity,
			"inventory_date":     inventoryDate,
		}
		if _, err := c.Create(ctx, quantModel, values); err != nil {
			return models.Product{}, fmt.Errorf("create quant for product %d: %w", productID, err)
		}
	}

	return c.ProductByID(ctx, productID)
}

// ExportProducts writes a plain JSON list of ERP products to filename and
// returns how many were exported.
func (c *Client) ExportProducts(ctx context.Context, filename string, limit int) (int, error) {
	if filename == "" {
		return 0, fmt.Errorf("%w: empty export filename", ErrInvalidArgument)
	}

	products, err := c.SearchProducts(ctx, SearchOptions{Limit: limit})
	if err != nil {
		return 0, err
	}

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode product export: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return 0, fmt.Errorf("write product export %s: %w", filename, err)
	}

	return len(products), nil
}

// defaultInternalLocation resolves the company's first internal stock location.
func (c *Client) defaultInternalLocation(ctx context.Context) (int64, error) {
	domain := []any{eq("usage", "internal"), eq("company_id", c.companyID)}
	ids, err := c.Search(ctx, locationModel, domain, 1)
	if err != nil {
		return 0, fmt.Errorf("search internal location: %w", err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no internal stock location for company %d", ErrNotFound, c.companyID)
	}
	return ids[0], nil
}

func productsFromRecords(records []map[string]any) []models.Product {
	products := make([]models.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, productFromRecord(rec))
	}
	return products
}

// productFromRecord converts one search_read record. Odoo reports absent
// scalar fields as a literal false, so every accessor tolerates that.
func productFromRecord(rec map[string]any) models.Product {
	return models.Product{
		ID:            int64(floatField(rec, "id")),
		Code:          stringField(rec, "default_code"),
		Name:          stringField(rec, "name"),
		ListPrice:     floatPtrField(rec, "list_price"),
		StandardPrice: floatPtrField(rec, "standard_price"),
		QtyAvailable:  floatPtrField(rec, "qty_available"),
		CategoryRef:   refName(rec["categ_id"]),
		Barcode:       stringField(rec, "barcode"),
	}
}

func stringField(rec map[string]any, key string) string {
	if value, ok := rec[key].(string); ok {
		return value
	}
	return ""
}

func floatField(rec map[string]any, key string) float64 {
	if value, ok := rec[key].(float64); ok {
		return value
	}
	return 0
}

func floatPtrField(rec map[string]any, key string) *float64 {
	if value, ok := rec[key].(float64); ok {
		return &value
	}
	return nil
}

// refID extracts the id from an Odoo many2one tuple [id, display_name].
func refID(value any) int64 {
	pair, ok := value.([]any)
	if !ok || len(pair) == 0 {
		return 0
	}
	if id, ok := pair[0].(float64); ok {
		return int64(id)
	}
	return 0
}

// refName extracts the display name from an Odoo many2one tuple.
func refName(value any) string {
	pair, ok := value.([]any)
	if !ok || len(pair) < 2 {
		return ""
	}
	if name, ok := pair[1].(string); ok {
		return name
	}
	return ""
}

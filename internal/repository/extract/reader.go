package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/domain/models"
)

// ErrNotFound indicates no extract row carries the requested code.
var ErrNotFound = errors.New("extract: product not found")

// Column headers of the extract workbook. They are source-language text and
// treated as opaque keys, not business logic.
const (
	ColumnCode        = "Código"
	ColumnBarcode     = "Código barra"
	ColumnName        = "Producto"
	ColumnCategory    = "Categoría"
	ColumnNetPrice    = "Precio neto"
	ColumnStock       = "Stock disponible"
	ColumnTotal       = "Total"
	ColumnAverageCost = "Costo promedio"
)

const lowStockThreshold = 5

// Row is one extract row keyed by the sheet's declared column headers.
type Row map[string]string

// Statistics summarizes the current-stock sheet the way the original export
// did: totals, average cost and a low-stock count.
type Statistics struct {
	TotalProducts   int     `json:"total_products"`
	TotalCategories int     `json:"total_categories"`
	TotalStock      float64 `json:"total_stock"`
	TotalValue      float64 `json:"total_value"`
	AverageCost     float64 `json:"average_cost"`
	LowStockCount   int     `json:"low_stock_products"`
}

// Reader exposes the inventory extract as row mappings and source records.
// Every read fetches the workbook fresh; nothing is cached across calls.
type Reader struct {
	ranges        RangeReader
	currentSheet  string
	categorySheet string
	logger        *zap.Logger
}

// NewReader wires an extract reader over the given range reader.
func NewReader(ranges RangeReader, currentSheet, categorySheet string, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		ranges:        ranges,
		currentSheet:  currentSheet,
		categorySheet: categorySheet,
		logger:        logger,
	}
}

// Rows loads the current-stock sheet as header-keyed row mappings.
func (r *Reader) Rows(ctx context.Context) ([]Row, error) {
	return r.sheetRows(ctx, r.currentSheet)
}

// CategoryRows loads the category sheet as header-keyed row mappings.
func (r *Reader) CategoryRows(ctx context.Context) ([]Row, error) {
	return r.sheetRows(ctx, r.categorySheet)
}

// LoadSourceRecords converts the current-stock sheet into source records for
// the reconciliation engine.
func (r *Reader) LoadSourceRecords(ctx context.Context) ([]models.SourceRecord, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.SourceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, SourceRecordFromRow(row))
	}
	return records, nil
}

// FetchByCode returns the first extract row whose code matches exactly.
func (r *Reader) FetchByCode(ctx context.Context, code string) (Row, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrNotFound)
	}

	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row[ColumnCode] == code {
			return row, nil
		}
	}

	return nil, fmt.Errorf("%w: code %s", ErrNotFound, code)
}

// FetchByBarcode returns the first extract row whose barcode matches exactly.
func (r *Reader) FetchByBarcode(ctx context.Context, barcode string) (Row, error) {
	if barcode == "" {
		return nil, fmt.Errorf("%w: empty barcode", ErrNotFound)
	}

	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row[ColumnBarcode] == barcode {
			return row, nil
		}
	}

	return nil, fmt.Errorf("%w: barcode %s", ErrNotFound, barcode)
}

// ProductsByCategory returns the extract rows whose category column contains
// the given name, case-insensitively.
func (r *Reader) ProductsByCategory(ctx context.Context, category string) ([]Row, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(category)
	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row[ColumnCategory]), want) {
			matched = append(matched, row)
		}
	}

	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, category)
	}
	return matched, nil
}

// Statistics aggregates inventory figures across both sheets.
func (r *Reader) Statistics(ctx context.Context) (Statistics, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return Statistics{}, err
	}

	categories, err := r.CategoryRows(ctx)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		TotalProducts:   len(rows),
		TotalCategories: len(categories),
	}

	var costSum float64
	var costCount int

	for _, row := range rows {
		if stock, err := parseFloat(row[ColumnStock]); err == nil {
			stats.TotalStock += stock
			if stock < lowStockThreshold {
				stats.LowStockCount++
			}
		}
		if total, err := parseFloat(row[ColumnTotal]); err == nil {
			stats.TotalValue += total
		}
		if cost, err := parseFloat(row[ColumnAverageCost]); err == nil {
			costSum += cost
			costCount++
		}
	}

	if costCount > 0 {
		stats.AverageCost = costSum / float64(costCount)
	}

	return stats, nil
}

// sheetRows reads a whole sheet and zips the header row onto each data row.
func (r *Reader) sheetRows(ctx context.Context, sheetName string) ([]Row, error) {
	if sheetName == "" {
		return nil, fmt.Errorf("sheet name must not be empty")
	}

	values, err := r.ranges.ReadRange(ctx, sheetName)
	if err != nil {
		return nil, fmt.Errorf("load sheet %s: %w", sheetName, err)
	}

	if len(values) == 0 {
		return nil, nil
	}

	headers := make([]string, len(values[0]))
	for i, cell := range values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprint(cell))
	}

	rows := make([]Row, 0, len(values)-1)
	for _, cells := range values[1:] {
		row := make(Row, len(headers))
		for i, cell := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = strings.TrimSpace(fmt.Sprint(cell))
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// SourceRecordFromRow maps one extract row onto the engine's record shape.
// Unparseable numerics stay absent rather than erroring; the comparator
// reports them as missing fields.
func SourceRecordFromRow(row Row) models.SourceRecord {
	record := models.SourceRecord{
		Code:     row[ColumnCode],
		Name:     row[ColumnName],
		Category: row[ColumnCategory],
	}

	if value, err := parseFloat(row[ColumnNetPrice]); err == nil {
		record.NetPrice = &value
	}
	if value, err := parseFloat(row[ColumnStock]); err == nil {
		record.AvailableStock = &value
	}

	return record
}

func parseFloat(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(value, 64)
}

package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRangeReader struct {
	sheets map[string][][]interface{}
	err    error
}

func (f *fakeRangeReader) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sheets[sheetRange], nil
}

func testReader(sheets map[string][][]interface{}) *Reader {
	return NewReader(&fakeRangeReader{sheets: sheets}, "Stock actual", "Stock categoria", nil)
}

func stockSheet() [][]interface{} {
	return [][]interface{}{
		{"Código", "Producto", "Categoría", "Precio neto", "Stock disponible", "Total", "Costo promedio"},
		{"A-100", "Tornillo 6mm", "Ferretería", "100", "10", "1000", "46.73"},
		{"B-200", "Tuerca 6mm", "Ferretería", "50.5", "3", "151.5", "23.6"},
		{"", "Sin código", "Ferretería", "1", "1", "1", "1"},
	}
}

func TestRowsMapsHeadersOntoCells(t *testing.T) {
	reader := testReader(map[string][][]interface{}{"Stock actual": stockSheet()})

	rows, err := reader.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "A-100", rows[0][ColumnCode])
	assert.Equal(t, "Tornillo 6mm", rows[0][ColumnName])
	assert.Equal(t, "100", rows[0][ColumnNetPrice])
	assert.Equal(t, "10", rows[0][ColumnStock])
}

func TestRowsToleratesRaggedRows(t *testing.T) {
	reader := testReader(map[string][][]interface{}{"Stock actual": {
		{"Código", "Producto", "Precio neto"},
		{"A-100", "Tornillo 6mm"},
		{"B-200", "Tuerca 6mm", "50", "extra cell"},
	}})

	rows, err := reader.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, hasPrice := rows[0][ColumnNetPrice]
	assert.False(t, hasPrice)
	assert.Equal(t, "50", rows[1][ColumnNetPrice])
}

func TestFetchByCode(t *testing.T) {
	reader := testReader(map[string][][]interface{}{"Stock actual": stockSheet()})

	row, err := reader.FetchByCode(context.Background(), "B-200")
	require.NoError(t, err)
	assert.Equal(t, "Tuerca 6mm", row[ColumnName])
}

func TestFetchByCodeNotFound(t *testing.T) {
	reader := testReader(map[string][][]interface{}{"Stock actual": stockSheet()})

	_, err := reader.FetchByCode(context.Background(), "Z-999")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reader.FetchByCode(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchByBarcode(t *testing.T) {
	reader := testReader(map[string][][]interface{}{"Stock actual": {
		{"Código", "Producto", "Código barra"},
		{"A-100", "Tornillo 6mm", "7801234567890"},
		{"B-200", "Tuerca 6mm", "7809876543210"},
	}})

	row, err := reader.FetchByBarcode(context.Background(), "7809876543210")
	require.NoError(t, err)
	assert.Equal(t, "Tuerca 6mm", row[ColumnName])

	_, err = reader.FetchByBarcode(context.Background(), "780")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reader.FetchByBarcode(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductsByCategory(t *testing.T) {
	reader := testReader(map[string][][]interface{}{"Stock actual": {
		{"Código", "Producto", "Categoría"},
		{"A-100", "Tornillo 6mm", "Ferretería"},
		{"B-200", "Esmalte blanco", "Pinturas"},
		{"C-300", "Esmalte negro", "Pinturas"},
	}})

	rows, err := reader.ProductsByCategory(context.Background(), "pintura")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B-200", rows[0][ColumnCode])

	_, err = reader.ProductsByCategory(context.Background(), "Jardín")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadSourceRecords(t *testing.T) {
	reader := testReader(map[string][][]interface{}{"Stock actual": stockSheet()})

	records, err := reader.LoadSourceRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "A-100", first.Code)
	require.NotNil(t, first.NetPrice)
	assert.Equal(t, 100.0, *first.NetPrice)
	require.NotNil(t, first.AvailableStock)
	assert.Equal(t, 10.0, *first.AvailableStock)
}

func TestSourceRecordFromRowKeepsUnparseableNumericsAbsent(t *testing.T) {
	record := SourceRecordFromRow(Row{
		ColumnCode:     "A-100",
		ColumnNetPrice: "N/A",
		ColumnStock:    "",
	})

	assert.Equal(t, "A-100", record.Code)
	assert.Nil(t, record.NetPrice)
	assert.Nil(t, record.AvailableStock)
}

func TestStatistics(t *testing.T) {
	reader := testReader(map[string][][]interface{}{
		"Stock actual": stockSheet(),
		"Stock categoria": {
			{"Categoría", "Total"},
			{"Ferretería", "1151.5"},
			{"Pinturas", "0"},
		},
	})

	stats, err := reader.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 2, stats.TotalCategories)
	assert.InDelta(t, 14.0, stats.TotalStock, 1e-9)
	assert.InDelta(t, 1152.5, stats.TotalValue, 1e-9)
	assert.InDelta(t, (46.73+23.6+1)/3, stats.AverageCost, 1e-9)
	// Two products sit below the low-stock threshold of 5.
	assert.Equal(t, 2, stats.LowStockCount)
}

func TestRowsPropagatesReadFailure(t *testing.T) {
	reader := NewReader(&fakeRangeReader{err: errors.New("quota exceeded")}, "Stock actual", "Stock categoria", nil)

	_, err := reader.Rows(context.Background())
	assert.Error(t, err)
}

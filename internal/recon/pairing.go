package recon

import (
	"github.com/rmaldonado/stocksync/internal/domain/models"
)

// SourceLookup resolves the extract row for a product code. The second
// return reports whether the code resolved.
type SourceLookup func(code string) (models.SourceRecord, bool)

// PairingResult carries the matched pairs plus the products that never
// formed one.
type PairingResult struct {
	Pairs                []models.MatchedPair
	UnmatchedMissingCode int
	UnmatchedNoSource    int
}

// Pair matches each ERP product against the extract by product code.
// Products without a code and products whose code has no extract counterpart
// are excluded and counted, not errored. Pure, no side effects.
func Pair(products []models.Product, lookup SourceLookup) PairingResult {
	var result PairingResult

	for _, product := range products {
		if product.Code == "" {
			result.UnmatchedMissingCode++
			continue
		}

		source, ok := lookup(product.Code)
		if !ok || source.Code == "" {
			result.UnmatchedNoSource++
			continue
		}

		result.Pairs = append(result.Pairs, models.MatchedPair{Source: source, Erp: product})
	}

	return result
}

// SourceIndex is an in-memory code index over one extract snapshot. Rows
// without a code are dropped at build time; they can never pair.
type SourceIndex struct {
	byCode map[string]models.SourceRecord
}

// NewSourceIndex builds an index from the extract rows. On duplicate codes
// the first row wins, matching the extract reader's scan order.
func NewSourceIndex(records []models.SourceRecord) *SourceIndex {
	byCode := make(map[string]models.SourceRecord, len(records))
	for _, record := range records {
		if record.Code == "" {
			continue
		}
		if _, exists := byCode[record.Code]; exists {
			continue
		}
		byCode[record.Code] = record
	}
	return &SourceIndex{byCode: byCode}
}

// Lookup implements SourceLookup.
func (i *SourceIndex) Lookup(code string) (models.SourceRecord, bool) {
	record, ok := i.byCode[code]
	return record, ok
}

package recon

import (
	"github.com/shopspring/decimal"

	"github.com/rmaldonado/stocksync/internal/domain/models"
)

// PriceDivisor converts the extract's net price into the ERP cost basis.
// The derived price is never read back from the ERP.
const PriceDivisor = "2.14"

var priceDivisor = decimal.RequireFromString(PriceDivisor)

// CalculatedPrice derives the expected cost basis from an extract net price:
// net_price / 2.14 rounded to 2 decimal places, half away from zero.
func CalculatedPrice(netPrice float64) decimal.Decimal {
	return decimal.NewFromFloat(netPrice).Div(priceDivisor).Round(2)
}

// Comparator evaluates the price and stock field families of a matched pair
// under absolute-difference tolerances. Two values are equal when their
// absolute difference is strictly below the tolerance; a difference of
// exactly the tolerance is a mismatch.
type Comparator struct {
	priceTolerance decimal.Decimal
	stockTolerance decimal.Decimal
}

// NewComparator builds a comparator with the given tolerances.
func NewComparator(priceTolerance, stockTolerance float64) Comparator {
	return Comparator{
		priceTolerance: decimal.NewFromFloat(priceTolerance),
		stockTolerance: decimal.NewFromFloat(stockTolerance),
	}
}

// ComparePrice decides whether the ERP cost basis matches the price derived
// from the extract. Either operand missing yields MissingField, not an error.
func (c Comparator) ComparePrice(pair models.MatchedPair) models.FieldDecision {
	decision := models.FieldDecision{Field: models.FieldPrice}

	if pair.Source.NetPrice == nil || pair.Erp.StandardPrice == nil {
		decision.Status = models.StatusMissingField
		return decision
	}

	decision.Calculated = CalculatedPrice(*pair.Source.NetPrice)
	decision.Current = decimal.NewFromFloat(*pair.Erp.StandardPrice)

	if withinTolerance(decision.Current, decision.Calculated, c.priceTolerance) {
		decision.Status = models.StatusEqual
	} else {
		decision.Status = models.StatusMismatch
	}
	return decision
}

// CompareStock decides whether the ERP on-hand quantity matches the extract.
func (c Comparator) CompareStock(pair models.MatchedPair) models.FieldDecision {
	decision := models.FieldDecision{Field: models.FieldStock}

	if pair.Source.AvailableStock == nil || pair.Erp.QtyAvailable == nil {
		decision.Status = models.StatusMissingField
		return decision
	}

	decision.Desired = decimal.NewFromFloat(*pair.Source.AvailableStock)
	decision.Current = decimal.NewFromFloat(*pair.Erp.QtyAvailable)

	if withinTolerance(decision.Current, decision.Desired, c.stockTolerance) {
		decision.Status = models.StatusEqual
	} else {
		decision.Status = models.StatusMismatch
	}
	return decision
}

func withinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tolerance)
}

package models

import "github.com/shopspring/decimal"

// FieldFamily names the two independently compared field families.
type FieldFamily string

const (
	FieldPrice FieldFamily = "price"
	FieldStock FieldFamily = "stock"
)

// DecisionStatus is the outcome of comparing one field family of a pair.
type DecisionStatus string

const (
	StatusEqual        DecisionStatus = "equal"
	StatusMismatch     DecisionStatus = "mismatch"
	StatusMissingField DecisionStatus = "missing_field"
)

// FieldDecision is the comparator verdict for one field family of one pair.
// For a price mismatch Calculated carries the derived corrective cost and
// Current the ERP's standard price. For a stock mismatch Desired carries the
// extract quantity and Current the ERP's on-hand quantity.
type FieldDecision struct {
	Field      FieldFamily
	Status     DecisionStatus
	Calculated decimal.Decimal
	Desired    decimal.Decimal
	Current    decimal.Decimal
}

// Mismatch reports whether the decision calls for a corrective write.
func (d FieldDecision) Mismatch() bool {
	return d.Status == StatusMismatch
}

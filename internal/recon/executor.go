package recon

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/domain/models"
	"github.com/rmaldonado/stocksync/pkg/clients/odoo"
)

// ErpWriter is the slice of the ERP client the executor needs for
// corrective writes.
type ErpWriter interface {
	UpdateProductPrice(ctx context.Context, productID int64, listPrice, standardPrice *float64) (models.Product, error)
	UpdateProductStock(ctx context.Context, productID int64, quantity float64, locationID *int64) (models.Product, error)
}

// Executor translates authorized decisions into ERP writes. It is the only
// component that touches the network for writes.
type Executor struct {
	erp    ErpWriter
	logger *zap.Logger
}

// NewExecutor wires an executor over the given ERP writer.
func NewExecutor(erp ErpWriter, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{erp: erp, logger: logger}
}

// ApplyPrice corrects both price fields of the paired product: list_price
// becomes the extract net price and standard_price the derived cost basis.
// Returns the post-write product snapshot.
func (e *Executor) ApplyPrice(ctx context.Context, pair models.MatchedPair, decision models.FieldDecision) (models.Product, error) {
	if pair.Source.NetPrice == nil {
		return models.Product{}, fmt.Errorf("%w: pair %s has no net price", ErrInvalidArgument, pair.Erp.Code)
	}

	listPrice := *pair.Source.NetPrice
	standardPrice, _ := decision.Calculated.Float64()

	product, err := e.erp.UpdateProductPrice(ctx, pair.Erp.ID, &listPrice, &standardPrice)
	if err != nil {
		return models.Product{}, classify(err)
	}

	e.logger.Info("price corrected",
		zap.Int64("product_id", pair.Erp.ID),
		zap.String("code", pair.Erp.Code),
		zap.Float64("list_price", listPrice),
		zap.Float64("standard_price", standardPrice))

	return product, nil
}

// ApplyStock upserts the counted quantity for the paired product at the
// company's default internal location.
func (e *Executor) ApplyStock(ctx context.Context, pair models.MatchedPair, decision models.FieldDecision) (models.Product, error) {
	quantity, _ := decision.Desired.Float64()

	product, err := e.erp.UpdateProductStock(ctx, pair.Erp.ID, quantity, nil)
	if err != nil {
		return models.Product{}, classify(err)
	}

	e.logger.Info("stock corrected",
		zap.Int64("product_id", pair.Erp.ID),
		zap.String("code", pair.Erp.Code),
		zap.Float64("quantity", quantity))

	return product, nil
}

// classify maps client errors onto the reconciliation taxonomy. Anything
// that is not a bad argument or an unresolved id is an upstream failure.
func classify(err error) error {
	switch {
	case errors.Is(err, odoo.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, odoo.ErrInvalidArgument):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	default:
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}

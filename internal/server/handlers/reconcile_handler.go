package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/recon"
	"github.com/rmaldonado/stocksync/internal/repository/mongodb"
)

// RunnerFactory builds a reconciliation runner for the requested tolerances.
type RunnerFactory func(priceTolerance, stockTolerance float64) *recon.Runner

// ReconcileHandler triggers reconciliation passes over HTTP. The gate is
// chosen per request: report-only unless writes were explicitly asked for.
type ReconcileHandler struct {
	newRunner      RunnerFactory
	history        mongodb.Repository
	priceTolerance float64
	stockTolerance float64
	logger         *zap.Logger
}

// NewReconcileHandler constructs the reconciliation HTTP adapter. The
// history repository may be nil when run persistence is disabled.
func NewReconcileHandler(factory RunnerFactory, history mongodb.Repository, priceTolerance, stockTolerance float64, logger *zap.Logger) *ReconcileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileHandler{
		newRunner:      factory,
		history:        history,
		priceTolerance: priceTolerance,
		stockTolerance: stockTolerance,
		logger:         logger,
	}
}

type reconcileRequest struct {
	PriceTolerance *float64 `json:"price_tolerance"`
	StockTolerance *float64 `json:"stock_tolerance"`
	Apply          bool     `json:"apply"`
}

// Run performs one pass and returns its report. With apply false every
// mismatch is skipped and the pass only reports what it would change.
func (h *ReconcileHandler) Run(c *gin.Context) {
	req := reconcileRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	priceTolerance := h.priceTolerance
	if req.PriceTolerance != nil {
		priceTolerance = *req.PriceTolerance
	}
	stockTolerance := h.stockTolerance
	if req.StockTolerance != nil {
		stockTolerance = *req.StockTolerance
	}
	if priceTolerance < 0 || stockTolerance < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tolerances must not be negative"})
		return
	}

	gate := recon.DenyAll()
	if req.Apply {
		gate = recon.AutoApprove()
	}

	runner := h.newRunner(priceTolerance, stockTolerance)
	report, err := runner.Run(c.Request.Context(), gate)
	if err != nil {
		h.logger.Error("reconciliation run failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "reconciliation run failed"})
		return
	}
	report.Applied = req.Apply

	if h.history != nil {
		saveCtx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.history.SaveRunReport(saveCtx, report); err != nil {
			h.logger.Warn("failed persisting run report", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, report)
}

// History returns the most recent persisted run reports.
func (h *ReconcileHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}

	reports, err := h.history.LatestRunReports(c.Request.Context(), 20)
	if err != nil {
		h.logger.Error("failed loading run history", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load run history"})
		return
	}

	c.JSON(http.StatusOK, reports)
}

package recon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/domain/models"
)

// ProductLister fetches the full ERP product set at the start of a run.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// ExtractLoader fetches the full extract snapshot at the start of a run.
type ExtractLoader interface {
	LoadSourceRecords(ctx context.Context) ([]models.SourceRecord, error)
}

// Runner drives one reconciliation pass: fetch both record sets fresh, pair
// by code, compare, gate, apply. Strictly sequential; one pair is fully
// handled before the next begins, and nothing is cached across runs.
type Runner struct {
	erp        ProductLister
	extract    ExtractLoader
	comparator Comparator
	executor   *Executor
	logger     *zap.Logger
	now        func() time.Time
}

// NewRunner wires a runner instance.
func NewRunner(erp ProductLister, extract ExtractLoader, comparator Comparator, executor *Executor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		erp:        erp,
		extract:    extract,
		comparator: comparator,
		executor:   executor,
		logger:     logger,
		now:        time.Now,
	}
}

// Run performs one pass over all paired records. Per-pair failures are
// recorded and the run proceeds; only a bootstrap failure (neither side of
// the reconciliation could be fetched) is fatal. Prior successful writes are
// never rolled back. Cancellation stops before the next pair; it never
// interrupts an in-flight pair.
func (r *Runner) Run(ctx context.Context, gate Gate) (models.RunReport, error) {
	report := models.RunReport{StartedAt: r.now().UTC()}

	products, err := r.erp.ListProducts(ctx)
	if err != nil {
		return report, fmt.Errorf("list products: %w", err)
	}

	records, err := r.extract.LoadSourceRecords(ctx)
	if err != nil {
		return report, fmt.Errorf("load extract: %w", err)
	}

	index := NewSourceIndex(records)
	pairing := Pair(products, index.Lookup)

	report.Summary.UnmatchedMissingCode = pairing.UnmatchedMissingCode
	report.Summary.UnmatchedNoSource = pairing.UnmatchedNoSource

	r.logger.Info("reconciliation pass started",
		zap.Int("products", len(products)),
		zap.Int("extract_rows", len(records)),
		zap.Int("pairs", len(pairing.Pairs)),
		zap.Int("unmatched_missing_code", pairing.UnmatchedMissingCode),
		zap.Int("unmatched_no_source", pairing.UnmatchedNoSource))

	for _, pair := range pairing.Pairs {
		if ctx.Err() != nil {
			report.FinishedAt = r.now().UTC()
			return report, fmt.Errorf("run cancelled: %w", ctx.Err())
		}

		outcome := r.processPair(ctx, pair, gate)
		report.Outcomes = append(report.Outcomes, outcome)

		switch outcome.State {
		case models.PairApplied:
			report.Summary.Applied++
		case models.PairFailed:
			report.Summary.Failed++
		default:
			report.Summary.Skipped++
		}
	}

	report.FinishedAt = r.now().UTC()

	r.logger.Info("reconciliation pass finished",
		zap.Int("applied", report.Summary.Applied),
		zap.Int("skipped", report.Summary.Skipped),
		zap.Int("failed", report.Summary.Failed))

	return report, nil
}

// processPair walks one pair through Compared -> (Skipped | Authorized ->
// Applied | Failed). A failed write aborts the remaining actions of this
// pair only; the runner never retries.
func (r *Runner) processPair(ctx context.Context, pair models.MatchedPair, gate Gate) models.PairOutcome {
	outcome := models.PairOutcome{ProductID: pair.Erp.ID, Code: pair.Erp.Code}

	var details []string
	applied := 0

	decisions := []models.FieldDecision{
		r.comparator.ComparePrice(pair),
		r.comparator.CompareStock(pair),
	}

	for _, decision := range decisions {
		switch decision.Status {
		case models.StatusMissingField:
			r.logger.Debug("comparison skipped, field missing",
				zap.String("code", pair.Erp.Code),
				zap.String("field", string(decision.Field)))
			details = append(details, string(decision.Field)+" missing")
			continue
		case models.StatusEqual:
			continue
		}

		authorized, err := gate.Authorize(ctx, Proposal{Pair: pair, Decision: decision})
		if err != nil {
			outcome.State = models.PairFailed
			outcome.Detail = fmt.Sprintf("%s authorization: %v", decision.Field, err)
			return outcome
		}
		if !authorized {
			details = append(details, string(decision.Field)+" skipped")
			continue
		}

		if err := r.apply(ctx, pair, decision); err != nil {
			r.logger.Warn("corrective write failed",
				zap.String("code", pair.Erp.Code),
				zap.String("field", string(decision.Field)),
				zap.Error(err))
			outcome.State = models.PairFailed
			outcome.Detail = fmt.Sprintf("%s update: %v", decision.Field, err)
			return outcome
		}

		applied++
		details = append(details, string(decision.Field)+" applied")
	}

	if applied > 0 {
		outcome.State = models.PairApplied
	} else {
		outcome.State = models.PairSkipped
	}
	outcome.Detail = strings.Join(details, ", ")
	return outcome
}

func (r *Runner) apply(ctx context.Context, pair models.MatchedPair, decision models.FieldDecision) error {
	switch decision.Field {
	case models.FieldPrice:
		_, err := r.executor.ApplyPrice(ctx, pair, decision)
		return err
	case models.FieldStock:
		_, err := r.executor.ApplyStock(ctx, pair, decision)
		return err
	default:
		return fmt.Errorf("%w: unknown field family %q", ErrInvalidArgument, decision.Field)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/config"
	"github.com/rmaldonado/stocksync/internal/recon"
	"github.com/rmaldonado/stocksync/internal/repository/extract"
	"github.com/rmaldonado/stocksync/pkg/clients/odoo"
	"github.com/rmaldonado/stocksync/pkg/logger"
)

type runFlags struct {
	envFile        string
	priceTolerance float64
	stockTolerance float64
	autoApprove    bool
	reportOnly     bool
}

func main() {
	flags := runFlags{}

	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass between the inventory extract and Odoo",
		Long: "Fetches the inventory extract and the live Odoo products, pairs them " +
			"by product code and reconciles price and stock under the configured " +
			"tolerances. By default every corrective write asks for confirmation.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, flags)
		},
	}

	rootCmd.Flags().StringVar(&flags.envFile, "env-file", "", "path to an env file with credentials")
	rootCmd.Flags().Float64Var(&flags.priceTolerance, "price-tolerance", -1, "absolute price tolerance (default from PRICE_TOLERANCE)")
	rootCmd.Flags().Float64Var(&flags.stockTolerance, "stock-tolerance", -1, "absolute stock tolerance (default from STOCK_TOLERANCE)")
	rootCmd.Flags().BoolVarP(&flags.autoApprove, "yes", "y", false, "apply every correction without prompting")
	rootCmd.Flags().BoolVar(&flags.reportOnly, "report-only", false, "detect mismatches but never write")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command, flags runFlags) error {
	if flags.autoApprove && flags.reportOnly {
		return fmt.Errorf("--yes and --report-only are mutually exclusive")
	}

	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return err
	}

	priceTolerance := cfg.Recon.PriceTolerance
	if flags.priceTolerance >= 0 {
		priceTolerance = flags.priceTolerance
	}
	stockTolerance := cfg.Recon.StockTolerance
	if flags.stockTolerance >= 0 {
		stockTolerance = flags.stockTolerance
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	erpClient := odoo.NewClient(cfg.Odoo)
	if err := erpClient.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate against odoo: %w", err)
	}

	sheetReader, err := extract.NewGoogleSheetReader(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		return fmt.Errorf("init sheets reader: %w", err)
	}
	extractReader := extract.NewReader(sheetReader, cfg.Sheets.CurrentStockSheet, cfg.Sheets.CategoryStockSheet, baseLogger.Named("repo.extract"))

	var gate recon.Gate
	switch {
	case flags.reportOnly:
		gate = recon.DenyAll()
	case flags.autoApprove:
		gate = recon.AutoApprove()
	default:
		gate = recon.NewPromptGate(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	comparator := recon.NewComparator(priceTolerance, stockTolerance)
	executor := recon.NewExecutor(erpClient, baseLogger.Named("recon.executor"))
	runner := recon.NewRunner(erpClient, extractReader, comparator, executor, baseLogger.Named("recon.runner"))

	report, err := runner.Run(ctx, gate)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nReconciliation finished in %s\n", report.FinishedAt.Sub(report.StartedAt).Round(0))
	fmt.Fprintf(out, "  applied:                %d\n", report.Summary.Applied)
	fmt.Fprintf(out, "  skipped:                %d\n", report.Summary.Skipped)
	fmt.Fprintf(out, "  failed:                 %d\n", report.Summary.Failed)
	fmt.Fprintf(out, "  unmatched, no code:     %d\n", report.Summary.UnmatchedMissingCode)
	fmt.Fprintf(out, "  unmatched, no source:   %d\n", report.Summary.UnmatchedNoSource)

	if report.Summary.Failed > 0 {
		baseLogger.Warn("run finished with failed pairs", zap.Int("failed", report.Summary.Failed))
	}

	return nil
}

package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/config"
	"github.com/rmaldonado/stocksync/internal/recon"
	"github.com/rmaldonado/stocksync/internal/repository/mongodb"
)

// Scheduler runs periodic report-only reconciliation passes. Scheduled
// passes never write to the ERP; corrective writes stay behind an operator
// or an explicit apply request.
type Scheduler struct {
	cron    *cron.Cron
	runner  *recon.Runner
	history mongodb.Repository
	cfg     config.ReconConfig
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance. The history repository may
// be nil when run persistence is disabled.
func NewScheduler(cfg config.ReconConfig, runner *recon.Runner, history mongodb.Repository, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(location)),
		runner:  runner,
		history: history,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the scheduled pass and starts the cron engine. Without a
// configured schedule it does nothing.
func (s *Scheduler) Start() {
	if s.cfg.CronSchedule == "" {
		s.logger.Info("no cron schedule configured, scheduled passes disabled")
		return
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runScheduledPass); err != nil {
		s.logger.Error("failed to schedule reconciliation pass", zap.Error(err))
		return
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runScheduledPass() {
	s.logger.Info("running scheduled reconciliation pass")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := s.runner.Run(ctx, recon.DenyAll())
	if err != nil {
		s.logger.Error("scheduled pass failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled pass finished",
		zap.Int("skipped", report.Summary.Skipped),
		zap.Int("unmatched_missing_code", report.Summary.UnmatchedMissingCode),
		zap.Int("unmatched_no_source", report.Summary.UnmatchedNoSource))

	if s.history == nil {
		return
	}

	if err := s.history.SaveRunReport(ctx, report); err != nil {
		s.logger.Error("failed to persist scheduled run report", zap.Error(err))
	}
}

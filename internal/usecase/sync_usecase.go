package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mlerena/comprobantes/internal/afip"
	"github.com/mlerena/comprobantes/internal/domain"
	"github.com/mlerena/comprobantes/internal/report"
)

// SyncUseCase runs the monthly comprobantes sync: fetch the export,
// reconcile it against the records already stored for the current month,
// persist the new ones and deliver the summary report.
//
// The pipeline is a strictly ordered sequence of fallible steps with no
// retries: any failure aborts the run. The single exception is report
// delivery — by the time the notifier runs, inserts are already durable
// and are never rolled back.
type SyncUseCase struct {
	fetcher  Fetcher
	repo     ComprobanteRepository
	notifier Notifier
	clock    Clock
	logger   zerolog.Logger
	currency string
}

// NewSyncUseCase creates the sync use case. currency selects report
// amount formatting; empty means report.DefaultCurrency.
func NewSyncUseCase(
	fetcher Fetcher,
	repo ComprobanteRepository,
	notifier Notifier,
	clock Clock,
	logger zerolog.Logger,
	currency string,
) *SyncUseCase {
	return &SyncUseCase{
		fetcher:  fetcher,
		repo:     repo,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		currency: currency,
	}
}

// RunResult summarizes a completed run. NotificationErr is set when the
// report could not be delivered after a successful persistence pass.
type RunResult struct {
	RunID   string
	Period  domain.Period
	Fetched int
	Stored  int
	New     int

	NotificationErr error
}

// Run executes one sync pass. On any error before persistence the result
// is nil and nothing was written. A non-nil result with a non-nil error
// means persistence succeeded but report delivery failed; callers should
// still treat the run as failed at the process level.
func (uc *SyncUseCase) Run(ctx context.Context) (*RunResult, error) {
	runID := ulid.Make().String()
	logger := uc.logger.With().Str("run_id", runID).Logger()

	period := domain.MonthOf(uc.clock.Now())
	logger.Info().Str("period", period.Label()).Msg("starting sync run")

	raw, err := uc.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching export: %w", err)
	}

	scraped, err := afip.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}

	// The export is not guaranteed chronological.
	sort.SliceStable(scraped, func(i, j int) bool {
		return scraped[i].IssueDate.Before(scraped[j].IssueDate)
	})

	stored, err := uc.repo.FindByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("loading stored comprobantes: %w", err)
	}

	fresh := domain.Reconcile(scraped, stored)
	logger.Info().
		Int("fetched", len(scraped)).
		Int("stored", len(stored)).
		Int("new", len(fresh)).
		Msg("reconciled")

	if len(fresh) == 0 {
		logger.Info().Msg("no new comprobantes")
	} else if err := uc.repo.InsertMany(ctx, fresh); err != nil {
		return nil, fmt.Errorf("persisting new comprobantes: %w", err)
	}

	result := &RunResult{
		RunID:   runID,
		Period:  period,
		Fetched: len(scraped),
		Stored:  len(stored),
		New:     len(fresh),
	}

	r := report.Build(period, stored, fresh, uc.currency)
	if err := uc.notifier.Send(ctx, r); err != nil {
		logger.Error().Err(err).Msg("report delivery failed, inserted records stand")
		result.NotificationErr = err
		return result, fmt.Errorf("delivering report: %w", err)
	}

	logger.Info().Msg("sync run completed")
	return result, nil
}

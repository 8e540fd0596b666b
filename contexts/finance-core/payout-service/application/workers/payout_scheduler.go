package workers

import (
	"context"
	"log/slog"
	"time"

	application "fleetpay/contexts/finance-core/payout-service/application"
	"fleetpay/contexts/finance-core/payout-service/ports"
)

// WeeklyPayoutJob generates payouts for the previous ISO week across all
// eligible couriers. Reruns converge: already-generated payouts surface as
// ErrPayoutExists and are skipped, so the job is safe on every poll cycle.
type WeeklyPayoutJob struct {
	Service application.Service
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (j WeeklyPayoutJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)

	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	previousWeek := now.AddDate(0, 0, -7)
	start, end := application.WeekWindow(previousWeek)

	payouts, failed := j.Service.GenerateBulk(ctx, previousWeek, nil)
	logger.Debug("weekly payout cycle finished",
		"event", "payout_scheduler_cycle_finished",
		"module", "finance-core/payout-service",
		"layer", "worker",
		"period_start", start.Format(time.RFC3339),
		"period_end", end.Format(time.RFC3339),
		"generated", len(payouts),
		"failed", failed,
	)
	return nil
}

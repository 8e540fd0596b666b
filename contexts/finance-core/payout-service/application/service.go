package application

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	earningsapp "fleetpay/contexts/finance-core/earnings-engine/application"
	domainerrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	"fleetpay/contexts/finance-core/payout-service/ports"
	"fleetpay/internal/shared/money"
)

const payoutBatchSize = 5

// Service assembles payout summaries from stored calculations and persists
// weekly courier payouts.
type Service struct {
	Payouts       ports.PayoutRepository
	Earnings      ports.EarningsReader
	Reports       ports.ReportGenerator
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	MinimumPayout money.Money
	Logger        *slog.Logger
}

// Summarize derives the period view for a courier. It never fails on an empty
// window: the result simply carries all-zero totals and no breakdown rows.
func (s Service) Summarize(ctx context.Context, courierID string, start, end time.Time, includeDetails bool) (ports.PayoutSummary, error) {
	statistics, err := s.Earnings.Statistics(ctx, courierID, start, end)
	if err != nil {
		return ports.PayoutSummary{}, err
	}
	calculations, err := s.Earnings.EarningsForCourier(ctx, courierID, start, end)
	if err != nil {
		return ports.PayoutSummary{}, err
	}

	year, week := start.ISOWeek()
	currency := statistics.TotalEarnings.Currency

	summary := ports.PayoutSummary{
		CourierID:          courierID,
		PeriodStart:        start,
		PeriodEnd:          end,
		WeekNumber:         week,
		Year:               year,
		TotalDeliveries:    statistics.TotalDeliveries,
		TotalDistanceKm:    statistics.TotalDistanceKm,
		TotalEarnings:      statistics.TotalEarnings,
		BaseEarnings:       money.New(0, currency),
		DistanceEarnings:   money.New(0, currency),
		BonusEarnings:      money.New(0, currency),
		AveragePerDelivery: statistics.AveragePerDelivery,
		AveragePerKm:       statistics.AveragePerKm,
	}
	summary.Hours.RegularEarnings.Currency = currency
	summary.Hours.PeakEarnings.Currency = currency
	summary.Hours.PeakBonus.Currency = currency

	daily := make(map[string]*ports.DailyBreakdown)
	byClass := make(map[string]*ports.VehicleClassBreakdown)
	for _, calculation := range calculations {
		summary.BaseEarnings.Amount += calculation.BaseEarning.Amount
		summary.DistanceEarnings.Amount += calculation.DistanceEarning.Amount
		summary.BonusEarnings.Amount += calculation.PeakHourBonus.Amount + calculation.VehicleBonus.Amount

		if calculation.Details.PeakHourApplied {
			summary.Hours.PeakDeliveries++
			summary.Hours.PeakEarnings.Amount += calculation.TotalEarning.Amount
			summary.Hours.PeakBonus.Amount += calculation.PeakHourBonus.Amount
		} else {
			summary.Hours.RegularDeliveries++
			summary.Hours.RegularEarnings.Amount += calculation.TotalEarning.Amount
		}

		date := calculation.CalculatedAt.Format("2006-01-02")
		day, ok := daily[date]
		if !ok {
			day = &ports.DailyBreakdown{Date: date, Earnings: money.New(0, currency)}
			daily[date] = day
		}
		day.Deliveries++
		day.Earnings.Amount += calculation.TotalEarning.Amount
		if calculation.Details.PeakHourApplied {
			day.PeakDeliveries++
		}

		class := vehicleClassForMultiplier(calculation.Details.VehicleMultiplier)
		entry, ok := byClass[class]
		if !ok {
			entry = &ports.VehicleClassBreakdown{VehicleClass: class, Earnings: money.New(0, currency)}
			byClass[class] = entry
		}
		entry.Deliveries++
		entry.Earnings.Amount += calculation.TotalEarning.Amount
	}

	dates := make([]string, 0, len(daily))
	for date := range daily {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		summary.ByDay = append(summary.ByDay, *daily[date])
	}

	for _, class := range []string{
		earningsapp.VehicleClassCar,
		earningsapp.VehicleClassMotorcycle,
		earningsapp.VehicleClassBicycle,
		earningsapp.VehicleClassWalking,
	} {
		if entry, ok := byClass[class]; ok {
			summary.ByVehicleClass = append(summary.ByVehicleClass, *entry)
		}
	}

	if includeDetails {
		summary.Calculations = calculations
	}
	return summary, nil
}

// GenerateWeekly assembles and persists the courier's payout for the
// Monday-Sunday week containing weekDate.
func (s Service) GenerateWeekly(ctx context.Context, courierID string, weekDate time.Time) (ports.CourierPayout, error) {
	logger := ResolveLogger(s.Logger)
	if courierID == "" {
		return ports.CourierPayout{}, domainerrors.ErrInvalidPayoutInput
	}

	start, end := WeekWindow(weekDate)
	summary, err := s.Summarize(ctx, courierID, start, end, true)
	if err != nil {
		return ports.CourierPayout{}, err
	}
	if summary.TotalDeliveries == 0 {
		return ports.CourierPayout{}, domainerrors.ErrNoEarningsInPeriod
	}

	if summary.TotalEarnings.LessThan(s.MinimumPayout) {
		logger.Info("payout total below minimum threshold",
			"event", "payout_below_minimum",
			"module", "finance-core/payout-service",
			"layer", "application",
			"courier_id", courierID,
			"total_earnings", summary.TotalEarnings.Amount,
			"minimum_payout", s.MinimumPayout.Amount,
		)
	}

	reportPath := ""
	if s.Reports != nil {
		reportPath, err = s.Reports.Generate(ctx, summary, ports.ReportFormatDocument)
		if err != nil {
			logger.Error("payout report generation failed",
				"event", "payout_report_failed",
				"module", "finance-core/payout-service",
				"layer", "application",
				"courier_id", courierID,
				"week", summary.WeekNumber,
				"year", summary.Year,
				"error", err.Error(),
			)
			reportPath = ""
		}
	}

	payoutID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.CourierPayout{}, err
	}
	payout := ports.CourierPayout{
		PayoutID:        payoutID,
		CourierID:       courierID,
		PeriodStart:     start,
		PeriodEnd:       end,
		TotalEarnings:   summary.TotalEarnings,
		TotalDeliveries: summary.TotalDeliveries,
		Status:          ports.PayoutStatusPending,
		ReportPath:      reportPath,
		GeneratedAt:     s.now(),
		Metadata: ports.PayoutMetadata{
			WeekNumber:         summary.WeekNumber,
			Year:               summary.Year,
			TotalDistanceKm:    summary.TotalDistanceKm,
			PeakHourDeliveries: summary.Hours.PeakDeliveries,
		},
	}
	if err := s.Payouts.CreatePayout(ctx, payout); err != nil {
		return ports.CourierPayout{}, err
	}

	logger.Info("weekly payout generated",
		"event", "payout_generated",
		"module", "finance-core/payout-service",
		"layer", "application",
		"payout_id", payout.PayoutID,
		"courier_id", courierID,
		"week", summary.WeekNumber,
		"year", summary.Year,
		"total_earnings", payout.TotalEarnings.Amount,
		"total_deliveries", payout.TotalDeliveries,
	)
	return payout, nil
}

// GenerateBulk runs GenerateWeekly for an explicit courier set or, when none
// is given, for every courier with qualifying earnings in the target week.
// Failures are logged and counted without aborting the rest of the batch.
func (s Service) GenerateBulk(ctx context.Context, weekDate time.Time, courierIDs []string) ([]ports.CourierPayout, int) {
	logger := ResolveLogger(s.Logger)
	start, end := WeekWindow(weekDate)

	targets := courierIDs
	if len(targets) == 0 {
		eligible, err := s.eligibleCouriers(ctx, start, end)
		if err != nil {
			logger.Error("bulk payout eligibility scan failed",
				"event", "payout_bulk_eligibility_failed",
				"module", "finance-core/payout-service",
				"layer", "application",
				"error", err.Error(),
			)
			return nil, 0
		}
		targets = eligible
	}

	payouts := make([]ports.CourierPayout, 0, len(targets))
	failed := 0
	var mu sync.Mutex

	for offset := 0; offset < len(targets); offset += payoutBatchSize {
		batchEnd := offset + payoutBatchSize
		if batchEnd > len(targets) {
			batchEnd = len(targets)
		}

		var wg sync.WaitGroup
		for _, courierID := range targets[offset:batchEnd] {
			wg.Add(1)
			go func(courierID string) {
				defer wg.Done()
				payout, err := s.GenerateWeekly(ctx, courierID, weekDate)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					logger.Error("bulk payout generation failed for courier",
						"event", "payout_bulk_item_failed",
						"module", "finance-core/payout-service",
						"layer", "application",
						"courier_id", courierID,
						"error", err.Error(),
					)
					return
				}
				payouts = append(payouts, payout)
			}(courierID)
		}
		wg.Wait()
	}

	logger.Info("bulk payout generation finished",
		"event", "payout_bulk_finished",
		"module", "finance-core/payout-service",
		"layer", "application",
		"couriers", len(targets),
		"generated", len(payouts),
		"failed", failed,
	)
	return payouts, failed
}

func (s Service) eligibleCouriers(ctx context.Context, start, end time.Time) ([]string, error) {
	ids, err := s.Earnings.CourierIDsWithCalculations(ctx, start, end)
	if err != nil {
		return nil, err
	}
	eligible := make([]string, 0, len(ids))
	for _, courierID := range ids {
		statistics, err := s.Earnings.Statistics(ctx, courierID, start, end)
		if err != nil {
			return nil, err
		}
		if statistics.TotalEarnings.LessThan(s.MinimumPayout) {
			continue
		}
		eligible = append(eligible, courierID)
	}
	return eligible, nil
}

func (s Service) GetPayout(ctx context.Context, payoutID string) (ports.CourierPayout, error) {
	return s.Payouts.GetPayout(ctx, payoutID)
}

func (s Service) ListPayoutsByCourier(ctx context.Context, courierID string) ([]ports.CourierPayout, error) {
	return s.Payouts.ListPayoutsByCourier(ctx, courierID)
}

// UpdateStatus applies a settlement-side status transition. Terminal statuses
// record the processing timestamp.
func (s Service) UpdateStatus(ctx context.Context, payoutID string, status string) error {
	if !ports.ValidPayoutStatus(status) {
		return domainerrors.ErrInvalidStatus
	}
	var processedAt *time.Time
	if status == ports.PayoutStatusPaid || status == ports.PayoutStatusFailed {
		now := s.now()
		processedAt = &now
	}
	return s.Payouts.UpdateStatus(ctx, payoutID, status, processedAt)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// WeekWindow returns the Monday 00:00 start and exclusive next-Monday end of
// the payout week containing date.
func WeekWindow(date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := day.AddDate(0, 0, -(weekday - 1))
	return start, start.AddDate(0, 0, 7)
}

// vehicleClassForMultiplier maps a stored multiplier back to the class it was
// derived from; breakdowns only need the named bucket, not the raw factor.
func vehicleClassForMultiplier(multiplier float64) string {
	switch {
	case multiplier >= 1.3:
		return earningsapp.VehicleClassCar
	case multiplier >= 1.2:
		return earningsapp.VehicleClassMotorcycle
	case multiplier >= 1.1:
		return earningsapp.VehicleClassBicycle
	default:
		return earningsapp.VehicleClassWalking
	}
}

package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainerrors "fleetpay/contexts/finance-core/earnings-engine/domain/errors"
	"fleetpay/contexts/finance-core/earnings-engine/ports"
	"fleetpay/internal/shared/money"
)

const calculationBatchSize = 10

// Service computes and stores per-delivery earnings. Reprocessing the same
// delivery is safe: persistence is an upsert keyed by delivery id.
type Service struct {
	Calculations ports.CalculationRepository
	Resolver     TariffResolver
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (s Service) Calculate(ctx context.Context, delivery ports.Delivery) (ports.EarningsCalculation, error) {
	if delivery.DeliveryID == "" || delivery.CourierID == "" {
		return ports.EarningsCalculation{}, domainerrors.ErrInvalidDeliveryInput
	}

	tariff := s.Resolver.Resolve(ctx, delivery.CourierID, delivery.VehicleClass, delivery.Dropoff, delivery.CompletedAt)
	currency := tariff.BaseFee.Currency

	base := tariff.BaseFee.Amount
	if delivery.Express {
		base = money.Round(float64(base) * 1.5)
	}
	distance := money.Round(delivery.DistanceKm * float64(tariff.PerKmRate.Amount))

	isPeak := s.Resolver.IsPeakHour(delivery.CompletedAt)
	var peakBonus int64
	if isPeak {
		peakBonus = money.Round(float64(base+distance) * tariff.PeakBonusPercent / 100)
	}

	multiplier := s.Resolver.VehicleMultiplier(delivery.VehicleClass)
	vehicleBonus := money.Round(float64(base+distance) * (multiplier - 1.0))

	total := base + distance + peakBonus + vehicleBonus
	if tariff.MaximumEarning.Amount > 0 && total > tariff.MaximumEarning.Amount {
		total = tariff.MaximumEarning.Amount
	}
	// Floor applies after the cap so the minimum wins if min > max.
	if total < tariff.MinimumEarning.Amount {
		total = tariff.MinimumEarning.Amount
	}

	calculation := ports.EarningsCalculation{
		DeliveryID:      delivery.DeliveryID,
		CourierID:       delivery.CourierID,
		BaseEarning:     money.New(base, currency),
		DistanceEarning: money.New(distance, currency),
		PeakHourBonus:   money.New(peakBonus, currency),
		VehicleBonus:    money.New(vehicleBonus, currency),
		TotalEarning:    money.New(total, currency),
		Details: ports.CalculationDetails{
			BaseRate:          tariff.BaseFee.Amount,
			DistanceKm:        delivery.DistanceKm,
			DistanceRate:      tariff.PerKmRate.Amount,
			Express:           delivery.Express,
			PeakHourApplied:   isPeak,
			PeakBonusPercent:  tariff.PeakBonusPercent,
			VehicleMultiplier: multiplier,
			TariffName:        tariff.Name,
		},
		CalculatedAt: s.now(),
	}

	if err := s.Calculations.UpsertCalculation(ctx, calculation); err != nil {
		return ports.EarningsCalculation{}, err
	}
	return calculation, nil
}

// CalculateBatch processes deliveries in fixed-size concurrent chunks. A
// failing delivery is logged and skipped; the successful subset is returned
// together with the failure count.
func (s Service) CalculateBatch(ctx context.Context, deliveries []ports.Delivery) ([]ports.EarningsCalculation, int) {
	logger := ResolveLogger(s.Logger)

	results := make([]ports.EarningsCalculation, 0, len(deliveries))
	failed := 0
	var mu sync.Mutex

	for offset := 0; offset < len(deliveries); offset += calculationBatchSize {
		end := offset + calculationBatchSize
		if end > len(deliveries) {
			end = len(deliveries)
		}

		var wg sync.WaitGroup
		for _, delivery := range deliveries[offset:end] {
			wg.Add(1)
			go func(delivery ports.Delivery) {
				defer wg.Done()
				calculation, err := s.Calculate(ctx, delivery)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					logger.Error("batch earnings calculation failed",
						"event", "earnings_batch_item_failed",
						"module", "finance-core/earnings-engine",
						"layer", "application",
						"delivery_id", delivery.DeliveryID,
						"courier_id", delivery.CourierID,
						"error", err.Error(),
					)
					return
				}
				results = append(results, calculation)
			}(delivery)
		}
		wg.Wait()
	}
	return results, failed
}

// EarningsForCourier returns the courier's calculations in [start, end),
// newest first.
func (s Service) EarningsForCourier(ctx context.Context, courierID string, start, end time.Time) ([]ports.EarningsCalculation, error) {
	if !start.Before(end) {
		return nil, domainerrors.ErrInvalidPeriod
	}
	return s.Calculations.ListByCourier(ctx, courierID, start, end)
}

func (s Service) TotalEarnings(ctx context.Context, courierID string, start, end time.Time) (money.Money, error) {
	statistics, err := s.Statistics(ctx, courierID, start, end)
	if err != nil {
		return money.Money{}, err
	}
	return statistics.TotalEarnings, nil
}

// Statistics aggregates the courier's stored calculations for the window.
func (s Service) Statistics(ctx context.Context, courierID string, start, end time.Time) (ports.EarningsStatistics, error) {
	calculations, err := s.EarningsForCourier(ctx, courierID, start, end)
	if err != nil {
		return ports.EarningsStatistics{}, err
	}

	statistics := ports.EarningsStatistics{
		CourierID:   courierID,
		PeriodStart: start,
		PeriodEnd:   end,
	}
	currency := ""
	for _, calculation := range calculations {
		statistics.TotalDeliveries++
		statistics.TotalDistanceKm += calculation.Details.DistanceKm
		statistics.TotalEarnings.Amount += calculation.TotalEarning.Amount
		if calculation.Details.PeakHourApplied {
			statistics.PeakHourDeliveries++
			statistics.PeakHourEarnings.Amount += calculation.TotalEarning.Amount
		}
		if currency == "" {
			currency = calculation.TotalEarning.Currency
		}
	}
	statistics.TotalEarnings.Currency = currency
	statistics.PeakHourEarnings.Currency = currency
	statistics.AveragePerDelivery.Currency = currency
	statistics.AveragePerKm.Currency = currency
	if statistics.TotalDeliveries > 0 {
		statistics.AveragePerDelivery.Amount = money.Round(float64(statistics.TotalEarnings.Amount) / float64(statistics.TotalDeliveries))
	}
	if statistics.TotalDistanceKm > 0 {
		statistics.AveragePerKm.Amount = money.Round(float64(statistics.TotalEarnings.Amount) / statistics.TotalDistanceKm)
	}
	return statistics, nil
}

// CourierIDsWithCalculations lists couriers with at least one calculation in
// [start, end). Used by bulk payout generation to find eligible couriers.
func (s Service) CourierIDsWithCalculations(ctx context.Context, start, end time.Time) ([]string, error) {
	if !start.Before(end) {
		return nil, domainerrors.ErrInvalidPeriod
	}
	return s.Calculations.CourierIDsWithCalculations(ctx, start, end)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"fleetpay/contexts/finance-core/earnings-engine/application"
	domainerrors "fleetpay/contexts/finance-core/earnings-engine/domain/errors"
	httptransport "fleetpay/contexts/finance-core/earnings-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) EarningsHistoryHandler(ctx context.Context, req httptransport.EarningsHistoryRequest) (httptransport.EarningsHistoryResponse, error) {
	start, end, err := parsePeriod(req.Start, req.End)
	if err != nil {
		return httptransport.EarningsHistoryResponse{}, err
	}
	items, err := h.Service.EarningsForCourier(ctx, req.CourierID, start, end)
	if err != nil {
		return httptransport.EarningsHistoryResponse{}, err
	}
	resp := httptransport.EarningsHistoryResponse{
		Status: "success",
		Data:   make([]httptransport.EarningsCalculationDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, httptransport.EarningsCalculationDTO{
			DeliveryID:        item.DeliveryID,
			CourierID:         item.CourierID,
			BaseEarning:       item.BaseEarning.Amount,
			DistanceEarning:   item.DistanceEarning.Amount,
			PeakHourBonus:     item.PeakHourBonus.Amount,
			VehicleBonus:      item.VehicleBonus.Amount,
			TotalEarning:      item.TotalEarning.Amount,
			Currency:          item.TotalEarning.Currency,
			DistanceKm:        item.Details.DistanceKm,
			PeakHourApplied:   item.Details.PeakHourApplied,
			VehicleMultiplier: item.Details.VehicleMultiplier,
			TariffName:        item.Details.TariffName,
			CalculatedAt:      item.CalculatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) StatisticsHandler(ctx context.Context, req httptransport.EarningsHistoryRequest) (httptransport.EarningsStatisticsResponse, error) {
	start, end, err := parsePeriod(req.Start, req.End)
	if err != nil {
		return httptransport.EarningsStatisticsResponse{}, err
	}
	statistics, err := h.Service.Statistics(ctx, req.CourierID, start, end)
	if err != nil {
		return httptransport.EarningsStatisticsResponse{}, err
	}

	resp := httptransport.EarningsStatisticsResponse{Status: "success"}
	resp.Data.CourierID = statistics.CourierID
	resp.Data.PeriodStart = statistics.PeriodStart.Format(time.RFC3339)
	resp.Data.PeriodEnd = statistics.PeriodEnd.Format(time.RFC3339)
	resp.Data.TotalDeliveries = statistics.TotalDeliveries
	resp.Data.TotalDistanceKm = statistics.TotalDistanceKm
	resp.Data.TotalEarnings = statistics.TotalEarnings.Amount
	resp.Data.AveragePerDelivery = statistics.AveragePerDelivery.Amount
	resp.Data.AveragePerKm = statistics.AveragePerKm.Amount
	resp.Data.PeakHourDeliveries = statistics.PeakHourDeliveries
	resp.Data.PeakHourEarnings = statistics.PeakHourEarnings.Amount
	resp.Data.Currency = statistics.TotalEarnings.Currency
	return resp, nil
}

// parsePeriod accepts RFC3339 timestamps or plain dates; an empty range
// defaults to the last 30 days.
func parsePeriod(startRaw, endRaw string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	var err error
	if startRaw != "" {
		if start, err = parseTimeValue(startRaw); err != nil {
			return time.Time{}, time.Time{}, domainerrors.ErrInvalidPeriod
		}
	}
	if endRaw != "" {
		if end, err = parseTimeValue(endRaw); err != nil {
			return time.Time{}, time.Time{}, domainerrors.ErrInvalidPeriod
		}
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, domainerrors.ErrInvalidPeriod
	}
	return start, end, nil
}

func parseTimeValue(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"fleetpay/contexts/finance-core/payout-service/application"
	domainerrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	"fleetpay/contexts/finance-core/payout-service/ports"
	httptransport "fleetpay/contexts/finance-core/payout-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GenerateWeeklyHandler(ctx context.Context, req httptransport.GenerateWeeklyRequest) (httptransport.GenerateWeeklyResponse, error) {
	weekDate, err := parseWeekDate(req.WeekDate)
	if err != nil {
		return httptransport.GenerateWeeklyResponse{}, err
	}
	payout, err := h.Service.GenerateWeekly(ctx, req.CourierID, weekDate)
	if err != nil {
		return httptransport.GenerateWeeklyResponse{}, err
	}
	return httptransport.GenerateWeeklyResponse{
		Status: "success",
		Data:   toDTO(payout),
	}, nil
}

func (h Handler) GenerateBulkHandler(ctx context.Context, req httptransport.GenerateBulkRequest) (httptransport.GenerateBulkResponse, error) {
	weekDate, err := parseWeekDate(req.WeekDate)
	if err != nil {
		return httptransport.GenerateBulkResponse{}, err
	}
	payouts, failed := h.Service.GenerateBulk(ctx, weekDate, req.CourierIDs)
	resp := httptransport.GenerateBulkResponse{
		Status: "success",
		Failed: failed,
		Data:   make([]httptransport.CourierPayoutDTO, 0, len(payouts)),
	}
	for _, payout := range payouts {
		resp.Data = append(resp.Data, toDTO(payout))
	}
	return resp, nil
}

func (h Handler) GetPayoutHandler(ctx context.Context, payoutID string) (httptransport.PayoutResponse, error) {
	payout, err := h.Service.GetPayout(ctx, payoutID)
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{
		Status: "success",
		Data:   toDTO(payout),
	}, nil
}

func (h Handler) ListPayoutsHandler(ctx context.Context, courierID string) (httptransport.PayoutListResponse, error) {
	payouts, err := h.Service.ListPayoutsByCourier(ctx, courierID)
	if err != nil {
		return httptransport.PayoutListResponse{}, err
	}
	resp := httptransport.PayoutListResponse{
		Status: "success",
		Data:   make([]httptransport.CourierPayoutDTO, 0, len(payouts)),
	}
	for _, payout := range payouts {
		resp.Data = append(resp.Data, toDTO(payout))
	}
	return resp, nil
}

func (h Handler) UpdateStatusHandler(ctx context.Context, payoutID string, req httptransport.UpdateStatusRequest) (httptransport.UpdateStatusResponse, error) {
	if err := h.Service.UpdateStatus(ctx, payoutID, req.Status); err != nil {
		return httptransport.UpdateStatusResponse{}, err
	}
	return httptransport.UpdateStatusResponse{Status: "success"}, nil
}

func toDTO(payout ports.CourierPayout) httptransport.CourierPayoutDTO {
	dto := httptransport.CourierPayoutDTO{
		PayoutID:           payout.PayoutID,
		CourierID:          payout.CourierID,
		PeriodStart:        payout.PeriodStart.Format(time.RFC3339),
		PeriodEnd:          payout.PeriodEnd.Format(time.RFC3339),
		WeekNumber:         payout.Metadata.WeekNumber,
		Year:               payout.Metadata.Year,
		TotalEarnings:      payout.TotalEarnings.Amount,
		Currency:           payout.TotalEarnings.Currency,
		TotalDeliveries:    payout.TotalDeliveries,
		TotalDistanceKm:    payout.Metadata.TotalDistanceKm,
		PeakHourDeliveries: payout.Metadata.PeakHourDeliveries,
		Status:             payout.Status,
		ReportPath:         payout.ReportPath,
		GeneratedAt:        payout.GeneratedAt.Format(time.RFC3339),
	}
	if payout.ProcessedAt != nil {
		dto.ProcessedAt = payout.ProcessedAt.Format(time.RFC3339)
	}
	return dto
}

func parseWeekDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, domainerrors.ErrInvalidPayoutInput
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidPayoutInput
	}
	return parsed, nil
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	"fleetpay/contexts/finance-core/payout-service/ports"
	"fleetpay/internal/shared/money"
)

func payoutFor(payoutID, courierID string, periodStart time.Time) ports.CourierPayout {
	return ports.CourierPayout{
		PayoutID:      payoutID,
		CourierID:     courierID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodStart.AddDate(0, 0, 7),
		TotalEarnings: money.New(5000, "EUR"),
		Status:        ports.PayoutStatusPending,
	}
}

func TestCreatePayoutRejectsSameCourierAndPeriod(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	periodStart := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	if err := store.CreatePayout(ctx, payoutFor("payout-1", "courier-1", periodStart)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := store.CreatePayout(ctx, payoutFor("payout-2", "courier-1", periodStart))
	if !errors.Is(err, domainerrors.ErrPayoutExists) {
		t.Fatalf("expected ErrPayoutExists, got %v", err)
	}

	// A different week for the same courier is fine.
	if err := store.CreatePayout(ctx, payoutFor("payout-3", "courier-1", periodStart.AddDate(0, 0, 7))); err != nil {
		t.Fatalf("next week create: %v", err)
	}
}

func TestCreatePayoutRejectsMissingIdentifiers(t *testing.T) {
	store := NewStore()
	err := store.CreatePayout(context.Background(), ports.CourierPayout{CourierID: "courier-1"})
	if !errors.Is(err, domainerrors.ErrInvalidPayoutInput) {
		t.Fatalf("expected ErrInvalidPayoutInput, got %v", err)
	}
}

func TestGetPayoutMissingRow(t *testing.T) {
	store := NewStore()
	_, err := store.GetPayout(context.Background(), "absent")
	if !errors.Is(err, domainerrors.ErrPayoutNotFound) {
		t.Fatalf("expected ErrPayoutNotFound, got %v", err)
	}
}

func TestListPayoutsByCourierNewestPeriodFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	week1 := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	rows := []ports.CourierPayout{
		payoutFor("payout-1", "courier-1", week1),
		payoutFor("payout-2", "courier-1", week1.AddDate(0, 0, 14)),
		payoutFor("payout-3", "courier-1", week1.AddDate(0, 0, 7)),
		payoutFor("payout-4", "courier-2", week1),
	}
	for _, row := range rows {
		if err := store.CreatePayout(ctx, row); err != nil {
			t.Fatalf("create %s: %v", row.PayoutID, err)
		}
	}

	list, err := store.ListPayoutsByCourier(ctx, "courier-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 payouts, got %d", len(list))
	}
	if list[0].PayoutID != "payout-2" || list[1].PayoutID != "payout-3" || list[2].PayoutID != "payout-1" {
		t.Fatalf("unexpected order: %s, %s, %s", list[0].PayoutID, list[1].PayoutID, list[2].PayoutID)
	}
}

func TestUpdateStatusSetsProcessedAt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	periodStart := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	if err := store.CreatePayout(ctx, payoutFor("payout-1", "courier-1", periodStart)); err != nil {
		t.Fatalf("create: %v", err)
	}

	processedAt := periodStart.AddDate(0, 0, 9)
	if err := store.UpdateStatus(ctx, "payout-1", ports.PayoutStatusPaid, &processedAt); err != nil {
		t.Fatalf("update: %v", err)
	}

	payout, err := store.GetPayout(ctx, "payout-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if payout.Status != ports.PayoutStatusPaid {
		t.Fatalf("expected paid, got %s", payout.Status)
	}
	if payout.ProcessedAt == nil || !payout.ProcessedAt.Equal(processedAt) {
		t.Fatalf("processed_at not applied: %v", payout.ProcessedAt)
	}

	if err := store.UpdateStatus(ctx, "absent", ports.PayoutStatusPaid, nil); !errors.Is(err, domainerrors.ErrPayoutNotFound) {
		t.Fatalf("expected ErrPayoutNotFound, got %v", err)
	}
}

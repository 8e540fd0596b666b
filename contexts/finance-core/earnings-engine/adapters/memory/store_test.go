package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "fleetpay/contexts/finance-core/earnings-engine/domain/errors"
	"fleetpay/contexts/finance-core/earnings-engine/ports"
	"fleetpay/internal/shared/money"
)

func calculationAt(deliveryID, courierID string, at time.Time) ports.EarningsCalculation {
	return ports.EarningsCalculation{
		DeliveryID:   deliveryID,
		CourierID:    courierID,
		TotalEarning: money.New(1000, "EUR"),
		CalculatedAt: at,
	}
}

func TestUpsertCalculationReplacesExistingRow(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	at := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	first := calculationAt("delivery-1", "courier-1", at)
	if err := store.UpsertCalculation(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := first
	second.TotalEarning = money.New(2500, "EUR")
	if err := store.UpsertCalculation(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	stored, err := store.GetCalculation(ctx, "delivery-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.TotalEarning.Amount != 2500 {
		t.Fatalf("expected replaced amount 2500, got %d", stored.TotalEarning.Amount)
	}

	list, err := store.ListByCourier(ctx, "courier-1", at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one row, got %d", len(list))
	}
}

func TestUpsertCalculationRejectsEmptyDeliveryID(t *testing.T) {
	store := NewStore()
	err := store.UpsertCalculation(context.Background(), ports.EarningsCalculation{CourierID: "courier-1"})
	if !errors.Is(err, domainerrors.ErrInvalidDeliveryInput) {
		t.Fatalf("expected ErrInvalidDeliveryInput, got %v", err)
	}
}

func TestGetCalculationMissingRow(t *testing.T) {
	store := NewStore()
	_, err := store.GetCalculation(context.Background(), "absent")
	if !errors.Is(err, domainerrors.ErrCalculationNotFound) {
		t.Fatalf("expected ErrCalculationNotFound, got %v", err)
	}
}

func TestListByCourierHalfOpenWindowNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	rows := []ports.EarningsCalculation{
		calculationAt("d-before", "courier-1", start.Add(-time.Minute)),
		calculationAt("d-first", "courier-1", start),
		calculationAt("d-mid", "courier-1", start.AddDate(0, 0, 3)),
		calculationAt("d-at-end", "courier-1", end),
		calculationAt("d-other", "courier-2", start.AddDate(0, 0, 1)),
	}
	for _, row := range rows {
		if err := store.UpsertCalculation(ctx, row); err != nil {
			t.Fatalf("upsert %s: %v", row.DeliveryID, err)
		}
	}

	list, err := store.ListByCourier(ctx, "courier-1", start, end)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows inside [start, end), got %d", len(list))
	}
	if list[0].DeliveryID != "d-mid" || list[1].DeliveryID != "d-first" {
		t.Fatalf("expected newest first, got %s then %s", list[0].DeliveryID, list[1].DeliveryID)
	}
}

func TestCourierIDsWithCalculationsDistinctAndSorted(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	rows := []ports.EarningsCalculation{
		calculationAt("d-1", "courier-b", start),
		calculationAt("d-2", "courier-b", start.Add(time.Hour)),
		calculationAt("d-3", "courier-a", start.Add(2*time.Hour)),
		calculationAt("d-4", "courier-c", end),
	}
	for _, row := range rows {
		if err := store.UpsertCalculation(ctx, row); err != nil {
			t.Fatalf("upsert %s: %v", row.DeliveryID, err)
		}
	}

	ids, err := store.CourierIDsWithCalculations(ctx, start, end)
	if err != nil {
		t.Fatalf("courier ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "courier-a" || ids[1] != "courier-b" {
		t.Fatalf("expected [courier-a courier-b], got %v", ids)
	}
}

func TestFindActiveRatesFiltersByWindowAndWildcard(t *testing.T) {
	store := NewStore()
	at := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	store.SeedTariffRate(ports.TariffRate{Name: "inactive", Active: false, EffectiveFrom: at.AddDate(0, -1, 0)})
	store.SeedTariffRate(ports.TariffRate{Name: "future", Active: true, EffectiveFrom: at.AddDate(0, 1, 0)})
	store.SeedTariffRate(ports.TariffRate{Name: "expired", Active: true, EffectiveFrom: at.AddDate(0, -2, 0), EffectiveUntil: at.AddDate(0, -1, 0)})
	store.SeedTariffRate(ports.TariffRate{Name: "other-class", Active: true, VehicleClass: "car", EffectiveFrom: at.AddDate(0, -1, 0)})
	store.SeedTariffRate(ports.TariffRate{Name: "wildcard", Active: true, EffectiveFrom: at.AddDate(0, -1, 0)})
	store.SeedTariffRate(ports.TariffRate{Name: "matching", Active: true, VehicleClass: "bicycle", Region: "Berlin", EffectiveFrom: at.AddDate(0, -1, 0)})

	rates, err := store.FindActiveRates(context.Background(), ports.TariffQuery{VehicleClass: "bicycle", Region: "Berlin", At: at})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rates) != 2 {
		t.Fatalf("expected wildcard and matching rates, got %d", len(rates))
	}
	names := map[string]bool{}
	for _, rate := range rates {
		names[rate.Name] = true
	}
	if !names["wildcard"] || !names["matching"] {
		t.Fatalf("unexpected rate set: %v", names)
	}
}

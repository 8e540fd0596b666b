package report

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	earningsports "fleetpay/contexts/finance-core/earnings-engine/ports"
	domainerrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	"fleetpay/contexts/finance-core/payout-service/ports"
	"fleetpay/internal/shared/money"
)

func sampleSummary() ports.PayoutSummary {
	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	return ports.PayoutSummary{
		CourierID:        "courier-1",
		PeriodStart:      start,
		PeriodEnd:        start.AddDate(0, 0, 7),
		WeekNumber:       10,
		Year:             2026,
		TotalDeliveries:  2,
		TotalDistanceKm:  15,
		TotalEarnings:    money.New(3550, "EUR"),
		BaseEarnings:     money.New(2000, "EUR"),
		DistanceEarnings: money.New(750, "EUR"),
		BonusEarnings:    money.New(800, "EUR"),
		ByDay: []ports.DailyBreakdown{
			{Date: "2026-03-02", Deliveries: 1, Earnings: money.New(1800, "EUR")},
			{Date: "2026-03-03", Deliveries: 1, Earnings: money.New(1750, "EUR"), PeakDeliveries: 1},
		},
		Calculations: []earningsports.EarningsCalculation{
			{
				DeliveryID:      "delivery-1",
				CourierID:       "courier-1",
				BaseEarning:     money.New(1000, "EUR"),
				DistanceEarning: money.New(500, "EUR"),
				VehicleBonus:    money.New(300, "EUR"),
				TotalEarning:    money.New(1800, "EUR"),
				CalculatedAt:    start.Add(10 * time.Hour),
			},
			{
				DeliveryID:      "delivery-2",
				CourierID:       "courier-1",
				BaseEarning:     money.New(1000, "EUR"),
				DistanceEarning: money.New(250, "EUR"),
				PeakHourBonus:   money.New(125, "EUR"),
				VehicleBonus:    money.New(375, "EUR"),
				TotalEarning:    money.New(1750, "EUR"),
				CalculatedAt:    start.AddDate(0, 0, 1).Add(12 * time.Hour),
			},
		},
	}
}

func TestGenerateWorkbook(t *testing.T) {
	generator := NewGenerator(t.TempDir(), nil)

	path, err := generator.Generate(context.Background(), sampleSummary(), ports.ReportFormatDocument)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if filepath.Base(path) != "payout_courier-1_2026W10.xlsx" {
		t.Fatalf("unexpected file name: %s", filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat workbook: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("workbook is empty")
	}
}

func TestGenerateCSVListsCalculations(t *testing.T) {
	generator := NewGenerator(t.TempDir(), nil)

	path, err := generator.Generate(context.Background(), sampleSummary(), ports.ReportFormatTabular)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if filepath.Base(path) != "payout_courier-1_2026W10.csv" {
		t.Fatalf("unexpected file name: %s", filepath.Base(path))
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "delivery_id" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "delivery-1" || records[1][6] != "18.00" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][0] != "delivery-2" || records[2][4] != "1.25" {
		t.Fatalf("unexpected second row: %v", records[2])
	}
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	generator := NewGenerator(t.TempDir(), nil)

	_, err := generator.Generate(context.Background(), sampleSummary(), "pdf")
	if !errors.Is(err, domainerrors.ErrInvalidPayoutInput) {
		t.Fatalf("expected ErrInvalidPayoutInput, got %v", err)
	}
}

package ports

import (
	"context"
	"time"

	earnings "fleetpay/contexts/finance-core/earnings-engine/ports"
	"fleetpay/internal/shared/money"
)

const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusFailed     = "failed"
)

func ValidPayoutStatus(status string) bool {
	switch status {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusPaid, PayoutStatusFailed:
		return true
	}
	return false
}

const (
	ReportFormatDocument = "xlsx"
	ReportFormatTabular  = "csv"
)

type DailyBreakdown struct {
	Date           string
	Deliveries     int
	Earnings       money.Money
	PeakDeliveries int
}

type VehicleClassBreakdown struct {
	VehicleClass string
	Deliveries   int
	Earnings     money.Money
}

// HoursBreakdown partitions a period strictly by each calculation's own
// peak-hour flag.
type HoursBreakdown struct {
	RegularDeliveries int
	RegularEarnings   money.Money
	PeakDeliveries    int
	PeakEarnings      money.Money
	PeakBonus         money.Money
}

// PayoutSummary is a derived view over stored calculations; never persisted.
// PeriodEnd is the exclusive upper bound of the window.
type PayoutSummary struct {
	CourierID        string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	WeekNumber       int
	Year             int
	TotalDeliveries  int
	TotalDistanceKm  float64
	TotalEarnings    money.Money
	BaseEarnings     money.Money
	DistanceEarnings money.Money
	BonusEarnings    money.Money
	AveragePerDelivery money.Money
	AveragePerKm     money.Money
	Hours            HoursBreakdown
	ByVehicleClass   []VehicleClassBreakdown
	ByDay            []DailyBreakdown
	Calculations     []earnings.EarningsCalculation
}

type PayoutMetadata struct {
	WeekNumber         int     `json:"week_number"`
	Year               int     `json:"year"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	PeakHourDeliveries int     `json:"peak_hour_deliveries"`
}

// CourierPayout is the persisted payout record, created once per courier per
// payout week. Status transitions are applied by the settlement process.
type CourierPayout struct {
	PayoutID        string
	CourierID       string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	TotalEarnings   money.Money
	TotalDeliveries int
	Status          string
	ReportPath      string
	GeneratedAt     time.Time
	ProcessedAt     *time.Time
	Metadata        PayoutMetadata
}

type PayoutRepository interface {
	// CreatePayout is insert-only; a payout already covering the same courier
	// and period start fails with ErrPayoutExists.
	CreatePayout(ctx context.Context, payout CourierPayout) error
	GetPayout(ctx context.Context, payoutID string) (CourierPayout, error)
	ListPayoutsByCourier(ctx context.Context, courierID string) ([]CourierPayout, error)
	UpdateStatus(ctx context.Context, payoutID string, status string, processedAt *time.Time) error
}

// EarningsReader is the slice of the earnings engine the payout generator
// consumes. Satisfied by the earnings application service.
type EarningsReader interface {
	EarningsForCourier(ctx context.Context, courierID string, start, end time.Time) ([]earnings.EarningsCalculation, error)
	Statistics(ctx context.Context, courierID string, start, end time.Time) (earnings.EarningsStatistics, error)
	CourierIDsWithCalculations(ctx context.Context, start, end time.Time) ([]string, error)
}

// ReportGenerator renders a payout summary to a document or tabular artifact
// and returns the file path. Treated as an opaque side-effecting call.
type ReportGenerator interface {
	Generate(ctx context.Context, summary PayoutSummary, format string) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

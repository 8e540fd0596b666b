package ports

import (
	"context"
	"time"

	"fleetpay/internal/shared/events"
	"fleetpay/internal/shared/money"
)

// Location is an immutable coordinate pair with an optional display address.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Delivery is a completed delivery fact as mapped from the inbound event.
// Never mutated after ingestion.
type Delivery struct {
	DeliveryID      string
	OrderID         string
	CourierID       string
	Pickup          Location
	Dropoff         Location
	DistanceKm      float64
	DurationMinutes float64
	Express         bool
	VehicleClass    string
	CompletedAt     time.Time
	PickedUpAt      time.Time
	DeliveredAt     time.Time
	Metadata        map[string]string
}

// TariffRate is a named rate card. Empty VehicleClass or Region means wildcard.
// A MaximumEarning amount of zero means no ceiling is configured.
type TariffRate struct {
	TariffID         string
	Name             string
	VehicleClass     string
	Region           string
	BaseFee          money.Money
	PerKmRate        money.Money
	PeakBonusPercent float64
	MinimumEarning   money.Money
	MaximumEarning   money.Money
	EffectiveFrom    time.Time
	EffectiveUntil   time.Time
	Active           bool
}

// CalculationDetails is the structured audit record stored next to the
// monetary components of a calculation. Amounts are minor units.
type CalculationDetails struct {
	BaseRate          int64   `json:"base_rate"`
	DistanceKm        float64 `json:"distance_km"`
	DistanceRate      int64   `json:"distance_rate"`
	Express           bool    `json:"express"`
	PeakHourApplied   bool    `json:"peak_hour_applied"`
	PeakBonusPercent  float64 `json:"peak_bonus_percent"`
	VehicleMultiplier float64 `json:"vehicle_multiplier"`
	TariffName        string  `json:"tariff_name"`
}

// EarningsCalculation is the computed result for exactly one delivery.
// Persisted via idempotent upsert keyed by DeliveryID.
type EarningsCalculation struct {
	DeliveryID      string
	CourierID       string
	BaseEarning     money.Money
	DistanceEarning money.Money
	PeakHourBonus   money.Money
	VehicleBonus    money.Money
	TotalEarning    money.Money
	Details         CalculationDetails
	CalculatedAt    time.Time
}

type EarningsStatistics struct {
	CourierID          string
	PeriodStart        time.Time
	PeriodEnd          time.Time
	TotalDeliveries    int
	TotalDistanceKm    float64
	TotalEarnings      money.Money
	AveragePerDelivery money.Money
	AveragePerKm       money.Money
	PeakHourDeliveries int
	PeakHourEarnings   money.Money
}

// TariffQuery narrows the active rate cards considered by the resolver.
type TariffQuery struct {
	VehicleClass string
	Region       string
	At           time.Time
}

type TariffRepository interface {
	// FindActiveRates returns active rate cards whose effective window contains
	// the query time and whose class/region are either wildcard or an exact match.
	FindActiveRates(ctx context.Context, query TariffQuery) ([]TariffRate, error)
}

type CalculationRepository interface {
	// UpsertCalculation replaces any existing row for the same delivery id.
	UpsertCalculation(ctx context.Context, calculation EarningsCalculation) error
	GetCalculation(ctx context.Context, deliveryID string) (EarningsCalculation, error)
	// ListByCourier returns calculations with calculated_at in [start, end),
	// ordered newest first.
	ListByCourier(ctx context.Context, courierID string, start, end time.Time) ([]EarningsCalculation, error)
	// CourierIDsWithCalculations returns the distinct couriers having at least
	// one calculation in [start, end).
	CourierIDsWithCalculations(ctx context.Context, start, end time.Time) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type EventMessage = events.Message

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventMessage) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, envelope EventEnvelope) error
}

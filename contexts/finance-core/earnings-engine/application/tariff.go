package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"fleetpay/contexts/finance-core/earnings-engine/ports"
	"fleetpay/internal/shared/money"
)

// Vehicle classes ordered by bonus multiplier. Walking is the lowest-bonus
// class and the default for payloads that omit the field.
const (
	VehicleClassWalking    = "walking"
	VehicleClassBicycle    = "bicycle"
	VehicleClassMotorcycle = "motorcycle"
	VehicleClassCar        = "car"
)

const RegionOther = "Other"

// PeakWindow is a half-open local hour range: StartHour <= hour < EndHour.
type PeakWindow struct {
	StartHour int
	EndHour   int
}

// TariffConfig holds the built-in default rate card and the bonus tables the
// resolver falls back to when no stored rate card matches.
type TariffConfig struct {
	Currency                string
	DefaultBaseFee          int64
	DefaultPerKmRate        int64
	DefaultPeakBonusPercent float64
	DefaultMinimumEarning   int64
	VehicleMultipliers      map[string]float64
	PeakWindows             []PeakWindow
}

func DefaultTariffConfig() TariffConfig {
	return TariffConfig{
		Currency:                "EUR",
		DefaultBaseFee:          1000,
		DefaultPerKmRate:        50,
		DefaultPeakBonusPercent: 10,
		DefaultMinimumEarning:   600,
		VehicleMultipliers: map[string]float64{
			VehicleClassWalking:    1.0,
			VehicleClassBicycle:    1.1,
			VehicleClassMotorcycle: 1.2,
			VehicleClassCar:        1.3,
		},
		PeakWindows: []PeakWindow{
			{StartHour: 11, EndHour: 14},
			{StartHour: 18, EndHour: 21},
		},
	}
}

// TariffResolver picks the effective rate card for a delivery. Lookup errors
// are masked by the default card so calculation never blocks on tariff-store
// unavailability.
type TariffResolver struct {
	Tariffs ports.TariffRepository
	Config  TariffConfig
	Logger  *slog.Logger
}

func (r TariffResolver) Resolve(ctx context.Context, courierID string, vehicleClass string, dropoff ports.Location, at time.Time) ports.TariffRate {
	logger := ResolveLogger(r.Logger)
	region := RegionForLocation(dropoff)

	if r.Tariffs == nil {
		return r.defaultRate(vehicleClass)
	}

	rates, err := r.Tariffs.FindActiveRates(ctx, ports.TariffQuery{
		VehicleClass: vehicleClass,
		Region:       region,
		At:           at,
	})
	if err != nil {
		logger.Warn("tariff lookup failed, falling back to default rate",
			"event", "tariff_lookup_failed",
			"module", "finance-core/earnings-engine",
			"layer", "application",
			"courier_id", courierID,
			"vehicle_class", vehicleClass,
			"region", region,
			"error", err.Error(),
		)
		return r.defaultRate(vehicleClass)
	}
	if len(rates) == 0 {
		return r.defaultRate(vehicleClass)
	}

	sort.SliceStable(rates, func(i, j int) bool {
		if (rates[i].VehicleClass != "") != (rates[j].VehicleClass != "") {
			return rates[i].VehicleClass != ""
		}
		if (rates[i].Region != "") != (rates[j].Region != "") {
			return rates[i].Region != ""
		}
		return rates[i].EffectiveFrom.After(rates[j].EffectiveFrom)
	})
	return rates[0]
}

// VehicleMultiplier returns the configured uplift for a vehicle class.
// Unknown classes earn no uplift.
func (r TariffResolver) VehicleMultiplier(vehicleClass string) float64 {
	if multiplier, ok := r.Config.VehicleMultipliers[vehicleClass]; ok && multiplier >= 1.0 {
		return multiplier
	}
	return 1.0
}

// IsPeakHour reports whether the local hour of at falls in any configured
// peak window. Windows are half-open and expected to be disjoint.
func (r TariffResolver) IsPeakHour(at time.Time) bool {
	hour := at.Hour()
	for _, window := range r.Config.PeakWindows {
		if hour >= window.StartHour && hour < window.EndHour {
			return true
		}
	}
	return false
}

func (r TariffResolver) defaultRate(vehicleClass string) ports.TariffRate {
	multiplier := r.VehicleMultiplier(vehicleClass)
	return ports.TariffRate{
		Name:             "default",
		VehicleClass:     vehicleClass,
		BaseFee:          money.New(money.Round(float64(r.Config.DefaultBaseFee)*multiplier), r.Config.Currency),
		PerKmRate:        money.New(money.Round(float64(r.Config.DefaultPerKmRate)*multiplier), r.Config.Currency),
		PeakBonusPercent: r.Config.DefaultPeakBonusPercent,
		MinimumEarning:   money.New(r.Config.DefaultMinimumEarning, r.Config.Currency),
		Active:           true,
	}
}

type boundingBox struct {
	region           string
	minLat, maxLat   float64
	minLong, maxLong float64
}

// Coarse metro bounding boxes. Coordinates outside every box resolve to the
// generic Other region; no external geocoding is involved.
var regionBoxes = []boundingBox{
	{region: "Berlin", minLat: 52.3, maxLat: 52.7, minLong: 13.1, maxLong: 13.8},
	{region: "Hamburg", minLat: 53.4, maxLat: 53.7, minLong: 9.7, maxLong: 10.3},
	{region: "Munich", minLat: 48.0, maxLat: 48.3, minLong: 11.3, maxLong: 11.8},
	{region: "Cologne", minLat: 50.8, maxLat: 51.1, minLong: 6.8, maxLong: 7.2},
}

func RegionForLocation(location ports.Location) string {
	for _, box := range regionBoxes {
		if location.Latitude >= box.minLat && location.Latitude <= box.maxLat &&
			location.Longitude >= box.minLong && location.Longitude <= box.maxLong {
			return box.region
		}
	}
	return RegionOther
}

package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	domainerrors "fleetpay/contexts/finance-core/earnings-engine/domain/errors"
	"fleetpay/contexts/finance-core/earnings-engine/ports"
	"fleetpay/internal/shared/money"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) FindActiveRates(ctx context.Context, query ports.TariffQuery) ([]ports.TariffRate, error) {
	var rows []tariffRateModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("effective_from <= ?", query.At.UTC()).
		Where("effective_until IS NULL OR effective_until > ?", query.At.UTC()).
		Where("vehicle_class = '' OR vehicle_class = ?", query.VehicleClass).
		Where("region = '' OR region = ?", query.Region).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("earnings_repo_find_active_rates_failed", err,
			"vehicle_class", query.VehicleClass,
			"region", query.Region,
		)
	}

	rates := make([]ports.TariffRate, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, row.toRate())
	}
	return rates, nil
}

func (r *Repository) UpsertCalculation(ctx context.Context, calculation ports.EarningsCalculation) error {
	if calculation.DeliveryID == "" {
		return domainerrors.ErrInvalidDeliveryInput
	}

	row, err := calculationModelFromPort(calculation)
	if err != nil {
		return r.logError("earnings_repo_encode_details_failed", err,
			"delivery_id", calculation.DeliveryID,
		)
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "delivery_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("earnings_repo_upsert_calculation_failed", err,
			"delivery_id", calculation.DeliveryID,
			"courier_id", calculation.CourierID,
		)
	}
	return nil
}

func (r *Repository) GetCalculation(ctx context.Context, deliveryID string) (ports.EarningsCalculation, error) {
	var row earningsCalculationModel
	err := r.db.WithContext(ctx).
		Where("delivery_id = ?", deliveryID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.EarningsCalculation{}, domainerrors.ErrCalculationNotFound
		}
		return ports.EarningsCalculation{}, r.logError("earnings_repo_get_calculation_failed", err,
			"delivery_id", deliveryID,
		)
	}
	return row.toPort()
}

func (r *Repository) ListByCourier(ctx context.Context, courierID string, start, end time.Time) ([]ports.EarningsCalculation, error) {
	var rows []earningsCalculationModel
	err := r.db.WithContext(ctx).
		Where("courier_id = ?", courierID).
		Where("calculated_at >= ? AND calculated_at < ?", start.UTC(), end.UTC()).
		Order("calculated_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("earnings_repo_list_by_courier_failed", err,
			"courier_id", courierID,
		)
	}

	calculations := make([]ports.EarningsCalculation, 0, len(rows))
	for _, row := range rows {
		calculation, err := row.toPort()
		if err != nil {
			return nil, r.logError("earnings_repo_decode_details_failed", err,
				"delivery_id", row.DeliveryID,
			)
		}
		calculations = append(calculations, calculation)
	}
	return calculations, nil
}

func (r *Repository) CourierIDsWithCalculations(ctx context.Context, start, end time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&earningsCalculationModel{}).
		Where("calculated_at >= ? AND calculated_at < ?", start.UTC(), end.UTC()).
		Distinct().
		Order("courier_id").
		Pluck("courier_id", &ids).
		Error
	if err != nil {
		return nil, r.logError("earnings_repo_courier_ids_failed", err)
	}
	return ids, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "finance-core/earnings-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("earnings repository operation failed", fields...)
	return err
}

type tariffRateModel struct {
	TariffID         string     `gorm:"column:tariff_id;primaryKey"`
	Name             string     `gorm:"column:name"`
	VehicleClass     string     `gorm:"column:vehicle_class"`
	Region           string     `gorm:"column:region"`
	BaseFee          int64      `gorm:"column:base_fee"`
	PerKmRate        int64      `gorm:"column:per_km_rate"`
	Currency         string     `gorm:"column:currency"`
	PeakBonusPercent float64    `gorm:"column:peak_bonus_percent"`
	MinimumEarning   int64      `gorm:"column:minimum_earning"`
	MaximumEarning   int64      `gorm:"column:maximum_earning"`
	EffectiveFrom    time.Time  `gorm:"column:effective_from"`
	EffectiveUntil   *time.Time `gorm:"column:effective_until"`
	Active           bool       `gorm:"column:active"`
}

func (tariffRateModel) TableName() string {
	return "tariff_rates"
}

func (m tariffRateModel) toRate() ports.TariffRate {
	rate := ports.TariffRate{
		TariffID:         m.TariffID,
		Name:             m.Name,
		VehicleClass:     m.VehicleClass,
		Region:           m.Region,
		BaseFee:          money.New(m.BaseFee, m.Currency),
		PerKmRate:        money.New(m.PerKmRate, m.Currency),
		PeakBonusPercent: m.PeakBonusPercent,
		MinimumEarning:   money.New(m.MinimumEarning, m.Currency),
		MaximumEarning:   money.New(m.MaximumEarning, m.Currency),
		EffectiveFrom:    m.EffectiveFrom,
		Active:           m.Active,
	}
	if m.EffectiveUntil != nil {
		rate.EffectiveUntil = *m.EffectiveUntil
	}
	return rate
}

type earningsCalculationModel struct {
	DeliveryID      string    `gorm:"column:delivery_id;primaryKey"`
	CourierID       string    `gorm:"column:courier_id;index"`
	BaseEarning     int64     `gorm:"column:base_earning"`
	DistanceEarning int64     `gorm:"column:distance_earning"`
	PeakHourBonus   int64     `gorm:"column:peak_hour_bonus"`
	VehicleBonus    int64     `gorm:"column:vehicle_bonus"`
	TotalEarning    int64     `gorm:"column:total_earning"`
	Currency        string    `gorm:"column:currency"`
	Details         []byte    `gorm:"column:details;type:jsonb"`
	CalculatedAt    time.Time `gorm:"column:calculated_at;index"`
}

func (earningsCalculationModel) TableName() string {
	return "earnings_calculations"
}

func calculationModelFromPort(calculation ports.EarningsCalculation) (earningsCalculationModel, error) {
	details, err := json.Marshal(calculation.Details)
	if err != nil {
		return earningsCalculationModel{}, err
	}
	return earningsCalculationModel{
		DeliveryID:      calculation.DeliveryID,
		CourierID:       calculation.CourierID,
		BaseEarning:     calculation.BaseEarning.Amount,
		DistanceEarning: calculation.DistanceEarning.Amount,
		PeakHourBonus:   calculation.PeakHourBonus.Amount,
		VehicleBonus:    calculation.VehicleBonus.Amount,
		TotalEarning:    calculation.TotalEarning.Amount,
		Currency:        calculation.TotalEarning.Currency,
		Details:         details,
		CalculatedAt:    calculation.CalculatedAt.UTC(),
	}, nil
}

func (m earningsCalculationModel) toPort() (ports.EarningsCalculation, error) {
	var details ports.CalculationDetails
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &details); err != nil {
			return ports.EarningsCalculation{}, err
		}
	}
	return ports.EarningsCalculation{
		DeliveryID:      m.DeliveryID,
		CourierID:       m.CourierID,
		BaseEarning:     money.New(m.BaseEarning, m.Currency),
		DistanceEarning: money.New(m.DistanceEarning, m.Currency),
		PeakHourBonus:   money.New(m.PeakHourBonus, m.Currency),
		VehicleBonus:    money.New(m.VehicleBonus, m.Currency),
		TotalEarning:    money.New(m.TotalEarning, m.Currency),
		Details:         details,
		CalculatedAt:    m.CalculatedAt,
	}, nil
}

// Models lists the gorm models owned by this adapter, for schema migration.
func Models() []any {
	return []any{&tariffRateModel{}, &earningsCalculationModel{}}
}

var _ ports.TariffRepository = (*Repository)(nil)
var _ ports.CalculationRepository = (*Repository)(nil)

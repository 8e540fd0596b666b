package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	domainerrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	"fleetpay/contexts/finance-core/payout-service/ports"
	"fleetpay/internal/shared/money"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreatePayout(ctx context.Context, payout ports.CourierPayout) error {
	if payout.PayoutID == "" || payout.CourierID == "" {
		return domainerrors.ErrInvalidPayoutInput
	}

	row, err := payoutModelFromPort(payout)
	if err != nil {
		return r.logError("payout_repo_encode_metadata_failed", err,
			"payout_id", payout.PayoutID,
		)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrPayoutExists
		}
		return r.logError("payout_repo_create_failed", err,
			"payout_id", payout.PayoutID,
			"courier_id", payout.CourierID,
		)
	}
	return nil
}

func (r *Repository) GetPayout(ctx context.Context, payoutID string) (ports.CourierPayout, error) {
	var row courierPayoutModel
	err := r.db.WithContext(ctx).
		Where("payout_id = ?", payoutID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CourierPayout{}, domainerrors.ErrPayoutNotFound
		}
		return ports.CourierPayout{}, r.logError("payout_repo_get_failed", err,
			"payout_id", payoutID,
		)
	}
	return row.toPort()
}

func (r *Repository) ListPayoutsByCourier(ctx context.Context, courierID string) ([]ports.CourierPayout, error) {
	var rows []courierPayoutModel
	err := r.db.WithContext(ctx).
		Where("courier_id = ?", courierID).
		Order("period_start DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("payout_repo_list_by_courier_failed", err,
			"courier_id", courierID,
		)
	}

	payouts := make([]ports.CourierPayout, 0, len(rows))
	for _, row := range rows {
		payout, err := row.toPort()
		if err != nil {
			return nil, r.logError("payout_repo_decode_metadata_failed", err,
				"payout_id", row.PayoutID,
			)
		}
		payouts = append(payouts, payout)
	}
	return payouts, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, payoutID string, status string, processedAt *time.Time) error {
	updates := map[string]any{"status": status}
	if processedAt != nil {
		updates["processed_at"] = processedAt.UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&courierPayoutModel{}).
		Where("payout_id = ?", payoutID).
		Updates(updates)
	if result.Error != nil {
		return r.logError("payout_repo_update_status_failed", result.Error,
			"payout_id", payoutID,
			"status", status,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPayoutNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "finance-core/payout-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("payout repository operation failed", fields...)
	return err
}

type courierPayoutModel struct {
	PayoutID        string     `gorm:"column:payout_id;primaryKey"`
	CourierID       string     `gorm:"column:courier_id;uniqueIndex:idx_payouts_courier_period"`
	PeriodStart     time.Time  `gorm:"column:period_start;uniqueIndex:idx_payouts_courier_period"`
	PeriodEnd       time.Time  `gorm:"column:period_end"`
	TotalEarnings   int64      `gorm:"column:total_earnings"`
	Currency        string     `gorm:"column:currency"`
	TotalDeliveries int        `gorm:"column:total_deliveries"`
	Status          string     `gorm:"column:status"`
	ReportPath      string     `gorm:"column:report_path"`
	GeneratedAt     time.Time  `gorm:"column:generated_at"`
	ProcessedAt     *time.Time `gorm:"column:processed_at"`
	Metadata        []byte     `gorm:"column:metadata;type:jsonb"`
}

func (courierPayoutModel) TableName() string {
	return "courier_payouts"
}

func payoutModelFromPort(payout ports.CourierPayout) (courierPayoutModel, error) {
	metadata, err := json.Marshal(payout.Metadata)
	if err != nil {
		return courierPayoutModel{}, err
	}
	return courierPayoutModel{
		PayoutID:        payout.PayoutID,
		CourierID:       payout.CourierID,
		PeriodStart:     payout.PeriodStart.UTC(),
		PeriodEnd:       payout.PeriodEnd.UTC(),
		TotalEarnings:   payout.TotalEarnings.Amount,
		Currency:        payout.TotalEarnings.Currency,
		TotalDeliveries: payout.TotalDeliveries,
		Status:          payout.Status,
		ReportPath:      payout.ReportPath,
		GeneratedAt:     payout.GeneratedAt.UTC(),
		ProcessedAt:     payout.ProcessedAt,
		Metadata:        metadata,
	}, nil
}

func (m courierPayoutModel) toPort() (ports.CourierPayout, error) {
	var metadata ports.PayoutMetadata
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return ports.CourierPayout{}, err
		}
	}
	return ports.CourierPayout{
		PayoutID:        m.PayoutID,
		CourierID:       m.CourierID,
		PeriodStart:     m.PeriodStart,
		PeriodEnd:       m.PeriodEnd,
		TotalEarnings:   money.New(m.TotalEarnings, m.Currency),
		TotalDeliveries: m.TotalDeliveries,
		Status:          m.Status,
		ReportPath:      m.ReportPath,
		GeneratedAt:     m.GeneratedAt,
		ProcessedAt:     m.ProcessedAt,
		Metadata:        metadata,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Models lists the gorm models owned by this adapter, for schema migration.
func Models() []any {
	return []any{&courierPayoutModel{}}
}

var _ ports.PayoutRepository = (*Repository)(nil)

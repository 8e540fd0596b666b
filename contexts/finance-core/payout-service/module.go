package payoutservice

import (
	"log/slog"

	httpadapter "fleetpay/contexts/finance-core/payout-service/adapters/http"
	"fleetpay/contexts/finance-core/payout-service/adapters/memory"
	"fleetpay/contexts/finance-core/payout-service/application"
	"fleetpay/contexts/finance-core/payout-service/ports"
	"fleetpay/internal/shared/money"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Payouts       ports.PayoutRepository
	Earnings      ports.EarningsReader
	Reports       ports.ReportGenerator
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	MinimumPayout money.Money
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Payouts:       deps.Payouts,
		Earnings:      deps.Earnings,
		Reports:       deps.Reports,
		Clock:         deps.Clock,
		IDGen:         deps.IDGenerator,
		MinimumPayout: deps.MinimumPayout,
		Logger:        deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires the payout service against in-memory adapters.
// Reports stays nil so no files are written from tests.
func NewInMemoryModule(earnings ports.EarningsReader, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Payouts:       store,
		Earnings:      earnings,
		Clock:         store,
		IDGenerator:   store,
		MinimumPayout: money.New(10000, "EUR"),
		Logger:        logger,
	})
	module.Store = store
	return module
}

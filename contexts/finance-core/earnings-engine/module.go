package earningsengine

import (
	"log/slog"

	httpadapter "fleetpay/contexts/finance-core/earnings-engine/adapters/http"
	"fleetpay/contexts/finance-core/earnings-engine/adapters/memory"
	"fleetpay/contexts/finance-core/earnings-engine/application"
	"fleetpay/contexts/finance-core/earnings-engine/ports"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Tariffs      ports.TariffRepository
	Calculations ports.CalculationRepository
	Clock        ports.Clock
	TariffConfig application.TariffConfig
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Calculations: deps.Calculations,
		Resolver: application.TariffResolver{
			Tariffs: deps.Tariffs,
			Config:  deps.TariffConfig,
			Logger:  deps.Logger,
		},
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Tariffs:      store,
		Calculations: store,
		Clock:        store,
		TariffConfig: application.DefaultTariffConfig(),
		Logger:       logger,
	})
	module.Store = store
	return module
}

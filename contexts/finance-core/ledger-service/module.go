package ledgerservice

import (
	"log/slog"

	httpadapter "tally/contexts/finance-core/ledger-service/adapters/http"
	"tally/contexts/finance-core/ledger-service/adapters/memory"
	"tally/contexts/finance-core/ledger-service/application"
	"tally/contexts/finance-core/ledger-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Users                      ports.UserRepository
	Transactions               ports.TransactionRepository
	Publisher                  ports.EventPublisher
	Clock                      ports.Clock
	IDGenerator                ports.IDGenerator
	MaxTransactionAmount       int64
	MaxParallelDebtors         int
	MaxSimultaneousConsumption int
	Logger                     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Users:                      deps.Users,
		Transactions:               deps.Transactions,
		Publisher:                  deps.Publisher,
		Clock:                      deps.Clock,
		IDGen:                      deps.IDGenerator,
		MaxTransactionAmount:       deps.MaxTransactionAmount,
		MaxParallelDebtors:         deps.MaxParallelDebtors,
		MaxSimultaneousConsumption: deps.MaxSimultaneousConsumption,
		Logger:                     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Users:                      store,
		Transactions:               store,
		Publisher:                  publisher,
		Clock:                      store,
		IDGenerator:                store,
		MaxTransactionAmount:       10000,
		MaxParallelDebtors:         10,
		MaxSimultaneousConsumption: 10,
		Logger:                     logger,
	})
	module.Store = store
	return module
}

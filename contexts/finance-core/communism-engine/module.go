package communismengine

import (
	"log/slog"

	httpadapter "tally/contexts/finance-core/communism-engine/adapters/http"
	"tally/contexts/finance-core/communism-engine/adapters/memory"
	"tally/contexts/finance-core/communism-engine/application"
	"tally/contexts/finance-core/communism-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Communisms  ports.CommunismRepository
	Users       ports.UserDirectory
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Communisms: deps.Communisms,
		Users:      deps.Users,
		Publisher:  deps.Publisher,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Logger:     deps.Logger,
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
		Communisms:  store,
		Users:       store,
		Publisher:   publisher,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

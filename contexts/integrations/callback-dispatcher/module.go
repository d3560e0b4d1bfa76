package callbackdispatcher

import (
	"log/slog"

	httpadapter "tally/contexts/integrations/callback-dispatcher/adapters/http"
	"tally/contexts/integrations/callback-dispatcher/adapters/memory"
	"tally/contexts/integrations/callback-dispatcher/adapters/webhook"
	"tally/contexts/integrations/callback-dispatcher/application"
	"tally/contexts/integrations/callback-dispatcher/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Service    application.Service
	Dispatcher *application.Dispatcher
	Store      *memory.Store
}

type Dependencies struct {
	Callbacks   ports.CallbackRepository
	Poster      ports.Poster
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Dispatch    application.DispatcherConfig
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Callbacks: deps.Callbacks,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
		Dispatcher: application.NewDispatcher(
			deps.Callbacks,
			deps.Poster,
			deps.Clock,
			deps.Logger,
			deps.Dispatch,
		),
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Callbacks:   store,
		Poster:      webhook.NewPoster(0),
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

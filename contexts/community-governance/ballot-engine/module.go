package ballotengine

import (
	"log/slog"

	httpadapter "tally/contexts/community-governance/ballot-engine/adapters/http"
	"tally/contexts/community-governance/ballot-engine/adapters/memory"
	"tally/contexts/community-governance/ballot-engine/application"
	"tally/contexts/community-governance/ballot-engine/domain/entities"
	"tally/contexts/community-governance/ballot-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Ballots     ports.BallotRepository
	Users       ports.UserDirectory
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Refund      entities.Thresholds
	Membership  entities.Thresholds
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Ballots:    deps.Ballots,
		Users:      deps.Users,
		Publisher:  deps.Publisher,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Refund:     deps.Refund,
		Membership: deps.Membership,
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
		Ballots:     store,
		Users:       store,
		Publisher:   publisher,
		Clock:       store,
		IDGenerator: store,
		Refund:      entities.Thresholds{MinApproves: 2, MinDisapproves: 2},
		Membership:  entities.Thresholds{MinApproves: 2, MinDisapproves: 2},
		Logger:      logger,
	})
	module.Store = store
	return module
}

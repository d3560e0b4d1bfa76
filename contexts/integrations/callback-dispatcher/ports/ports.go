package ports

import (
	"context"
	"time"

	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	"tally/internal/shared/events"
)

// CallbackRepository persists the registered delivery endpoints.
type CallbackRepository interface {
	CreateCallback(ctx context.Context, callback entities.Callback) error
	ListCallbacks(ctx context.Context) ([]entities.Callback, error)
	DeleteCallback(ctx context.Context, callbackID string) error
}

// Poster delivers one batch to one endpoint. A non-nil error marks the
// attempt as failed and eligible for retry.
type Poster interface {
	Deliver(ctx context.Context, callback entities.Callback, batch events.Batch) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

package application

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	domainerrors "tally/contexts/integrations/callback-dispatcher/domain/errors"
	"tally/contexts/integrations/callback-dispatcher/ports"
)

// RegisterCallbackInput registers a new delivery endpoint.
type RegisterCallbackInput struct {
	URL    string
	Secret *string
}

// Service manages the registered callback endpoints.
type Service struct {
	Callbacks ports.CallbackRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (s Service) RegisterCallback(ctx context.Context, input RegisterCallbackInput) (entities.Callback, error) {
	rawURL := strings.TrimSpace(input.URL)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return entities.Callback{}, domainerrors.ErrInvalidURL
	}

	callbackID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Callback{}, err
	}
	callback := entities.Callback{
		CallbackID: callbackID,
		URL:        rawURL,
		Secret:     input.Secret,
		CreatedAt:  s.now(),
	}
	if err := s.Callbacks.CreateCallback(ctx, callback); err != nil {
		return entities.Callback{}, err
	}
	ResolveLogger(s.Logger).Info("callback registered",
		"event", "callback_registered",
		"module", "integrations/callback-dispatcher",
		"layer", "application",
		"callback_id", callback.CallbackID,
		"url", callback.URL,
	)
	return callback, nil
}

func (s Service) ListCallbacks(ctx context.Context) ([]entities.Callback, error) {
	return s.Callbacks.ListCallbacks(ctx)
}

func (s Service) DeleteCallback(ctx context.Context, callbackID string) error {
	if err := s.Callbacks.DeleteCallback(ctx, strings.TrimSpace(callbackID)); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("callback removed",
		"event", "callback_removed",
		"module", "integrations/callback-dispatcher",
		"layer", "application",
		"callback_id", strings.TrimSpace(callbackID),
	)
	return nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

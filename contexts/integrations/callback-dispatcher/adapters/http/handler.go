package httpadapter

import (
	"context"
	"log/slog"

	"tally/contexts/integrations/callback-dispatcher/application"
	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	httptransport "tally/contexts/integrations/callback-dispatcher/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterCallbackHandler(
	ctx context.Context,
	req httptransport.RegisterCallbackRequest,
) (httptransport.CallbackResponse, error) {
	callback, err := h.Service.RegisterCallback(ctx, application.RegisterCallbackInput{
		URL:    req.URL,
		Secret: req.Secret,
	})
	if err != nil {
		return httptransport.CallbackResponse{}, err
	}
	return mapCallback(callback), nil
}

func (h Handler) ListCallbacksHandler(ctx context.Context) (httptransport.CallbacksResponse, error) {
	callbacks, err := h.Service.ListCallbacks(ctx)
	if err != nil {
		return httptransport.CallbacksResponse{}, err
	}
	items := make([]httptransport.CallbackResponse, 0, len(callbacks))
	for _, callback := range callbacks {
		items = append(items, mapCallback(callback))
	}
	return httptransport.CallbacksResponse{Items: items}, nil
}

func (h Handler) DeleteCallbackHandler(ctx context.Context, callbackID string) error {
	return h.Service.DeleteCallback(ctx, callbackID)
}

// The secret is write-only; responses never echo it.
func mapCallback(callback entities.Callback) httptransport.CallbackResponse {
	return httptransport.CallbackResponse{
		CallbackID: callback.CallbackID,
		URL:        callback.URL,
		Created:    callback.CreatedAt.Unix(),
	}
}

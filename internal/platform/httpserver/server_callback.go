package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	callbackerrors "tally/contexts/integrations/callback-dispatcher/domain/errors"
	callbackhttp "tally/contexts/integrations/callback-dispatcher/transport/http"
)

func writeCallbackError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, callbackhttp.ErrorResponse{Code: code, Message: message})
}

func writeCallbackDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, callbackerrors.ErrInvalidURL):
		writeCallbackError(w, http.StatusBadRequest, "invalid_url", err.Error())
	case errors.Is(err, callbackerrors.ErrNotFound):
		writeCallbackError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, callbackerrors.ErrDuplicate):
		writeCallbackError(w, http.StatusConflict, "duplicate_url", err.Error())
	default:
		writeCallbackError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleRegisterCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackhttp.RegisterCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCallbackError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.callbacks.Handler.RegisterCallbackHandler(r.Context(), req)
	if err != nil {
		writeCallbackDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCallbacks(w http.ResponseWriter, r *http.Request) {
	resp, err := s.callbacks.Handler.ListCallbacksHandler(r.Context())
	if err != nil {
		writeCallbackDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCallback(w http.ResponseWriter, r *http.Request) {
	callbackID := strings.TrimSpace(r.PathValue("callback_id"))
	if err := s.callbacks.Handler.DeleteCallbackHandler(r.Context(), callbackID); err != nil {
		writeCallbackDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

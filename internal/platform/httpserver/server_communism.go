package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	communismerrors "tally/contexts/finance-core/communism-engine/domain/errors"
	communismhttp "tally/contexts/finance-core/communism-engine/transport/http"
)

func writeCommunismError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, communismhttp.ErrorResponse{Code: code, Message: message})
}

func writeCommunismDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, communismerrors.ErrInvalidAmount),
		errors.Is(err, communismerrors.ErrInvalidQuantity),
		errors.Is(err, communismerrors.ErrNoParticipants):
		writeCommunismError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, communismerrors.ErrNotFound),
		errors.Is(err, communismerrors.ErrUserNotFound):
		writeCommunismError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, communismerrors.ErrNotOpen):
		writeCommunismError(w, http.StatusConflict, "not_open", err.Error())
	case errors.Is(err, communismerrors.ErrConflict):
		writeCommunismError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, communismerrors.ErrNotCreator),
		errors.Is(err, communismerrors.ErrUserIneligible):
		writeCommunismError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeCommunismError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleCreateCommunism(w http.ResponseWriter, r *http.Request) {
	creatorID := callerID(r)
	if creatorID == "" {
		writeCommunismError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req communismhttp.CreateCommunismRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommunismError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.communisms.Handler.CreateCommunismHandler(r.Context(), creatorID, req)
	if err != nil {
		writeCommunismDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCommunisms(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "true"
	resp, err := s.communisms.Handler.ListCommunismsHandler(r.Context(), activeOnly)
	if err != nil {
		writeCommunismDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCommunism(w http.ResponseWriter, r *http.Request) {
	communismID := strings.TrimSpace(r.PathValue("communism_id"))
	resp, err := s.communisms.Handler.GetCommunismHandler(r.Context(), communismID)
	if err != nil {
		writeCommunismDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetParticipants(w http.ResponseWriter, r *http.Request) {
	var req communismhttp.SetParticipantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommunismError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	communismID := strings.TrimSpace(r.PathValue("communism_id"))
	resp, err := s.communisms.Handler.SetParticipantsHandler(r.Context(), communismID, req)
	if err != nil {
		writeCommunismDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseCommunism(w http.ResponseWriter, r *http.Request) {
	issuerID := callerID(r)
	if issuerID == "" {
		writeCommunismError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	communismID := strings.TrimSpace(r.PathValue("communism_id"))
	resp, err := s.communisms.Handler.CloseCommunismHandler(r.Context(), communismID, issuerID)
	if err != nil {
		writeCommunismDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAbortCommunism(w http.ResponseWriter, r *http.Request) {
	issuerID := callerID(r)
	if issuerID == "" {
		writeCommunismError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	communismID := strings.TrimSpace(r.PathValue("communism_id"))
	resp, err := s.communisms.Handler.AbortCommunismHandler(r.Context(), communismID, issuerID)
	if err != nil {
		writeCommunismDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	balloterrors "tally/contexts/community-governance/ballot-engine/domain/errors"
	ballothttp "tally/contexts/community-governance/ballot-engine/transport/http"
)

func writeBallotError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ballothttp.ErrorResponse{Code: code, Message: message})
}

func writeBallotDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, balloterrors.ErrInvalidAmount),
		errors.Is(err, balloterrors.ErrInvalidVariant),
		errors.Is(err, balloterrors.ErrInvalidTarget),
		errors.Is(err, balloterrors.ErrUserInactive):
		writeBallotError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, balloterrors.ErrNotFound),
		errors.Is(err, balloterrors.ErrUserNotFound):
		writeBallotError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, balloterrors.ErrNotOpen):
		writeBallotError(w, http.StatusConflict, "not_open", err.Error())
	case errors.Is(err, balloterrors.ErrConflict):
		writeBallotError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, balloterrors.ErrNotCreator),
		errors.Is(err, balloterrors.ErrOwnBallot),
		errors.Is(err, balloterrors.ErrVoterIneligible):
		writeBallotError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeBallotError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleCreateRefund(w http.ResponseWriter, r *http.Request) {
	creatorID := callerID(r)
	if creatorID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CreateRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballots.Handler.CreateRefundHandler(r.Context(), creatorID, req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	creatorID := callerID(r)
	if creatorID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballots.Handler.CreatePollHandler(r.Context(), creatorID, req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRefunds(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("open_only") == "true"
	resp, err := s.ballots.Handler.ListRefundsHandler(r.Context(), openOnly)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("open_only") == "true"
	resp, err := s.ballots.Handler.ListPollsHandler(r.Context(), openOnly)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRefund(w http.ResponseWriter, r *http.Request) {
	ballotID := strings.TrimSpace(r.PathValue("ballot_id"))
	resp, err := s.ballots.Handler.GetRefundHandler(r.Context(), ballotID)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	ballotID := strings.TrimSpace(r.PathValue("ballot_id"))
	resp, err := s.ballots.Handler.GetPollHandler(r.Context(), ballotID)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteOnRefund(w http.ResponseWriter, r *http.Request) {
	voterID := callerID(r)
	if voterID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	ballotID := strings.TrimSpace(r.PathValue("ballot_id"))
	resp, err := s.ballots.Handler.VoteOnRefundHandler(r.Context(), ballotID, voterID, req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteOnPoll(w http.ResponseWriter, r *http.Request) {
	voterID := callerID(r)
	if voterID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	ballotID := strings.TrimSpace(r.PathValue("ballot_id"))
	resp, err := s.ballots.Handler.VoteOnPollHandler(r.Context(), ballotID, voterID, req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAbortRefund(w http.ResponseWriter, r *http.Request) {
	issuerID := callerID(r)
	if issuerID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	ballotID := strings.TrimSpace(r.PathValue("ballot_id"))
	resp, err := s.ballots.Handler.AbortRefundHandler(r.Context(), ballotID, issuerID)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAbortPoll(w http.ResponseWriter, r *http.Request) {
	issuerID := callerID(r)
	if issuerID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	ballotID := strings.TrimSpace(r.PathValue("ballot_id"))
	resp, err := s.ballots.Handler.AbortPollHandler(r.Context(), ballotID, issuerID)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	ledgererrors "tally/contexts/finance-core/ledger-service/domain/errors"
	ledgerhttp "tally/contexts/finance-core/ledger-service/transport/http"
)

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{Code: code, Message: message})
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidAmount),
		errors.Is(err, ledgererrors.ErrAmountTooLarge),
		errors.Is(err, ledgererrors.ErrSameUser),
		errors.Is(err, ledgererrors.ErrInvalidQuantity),
		errors.Is(err, ledgererrors.ErrInvalidUserInput),
		errors.Is(err, ledgererrors.ErrVoucherInvalid),
		errors.Is(err, ledgererrors.ErrUserInactive):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererrors.ErrUserNotFound):
		writeLedgerError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrVoucherRequired):
		writeLedgerError(w, http.StatusForbidden, "voucher_required", err.Error())
	case errors.Is(err, ledgererrors.ErrVoucherDebt):
		writeLedgerError(w, http.StatusConflict, "voucher_debt", err.Error())
	case errors.Is(err, ledgererrors.ErrTooManyDebtors):
		writeLedgerError(w, http.StatusConflict, "too_many_debtors", err.Error())
	case errors.Is(err, ledgererrors.ErrConflict):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.CreateUserHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListUsersHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	resp, err := s.ledger.Handler.GetUserHandler(r.Context(), userID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetVoucher(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.SetVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	userID := strings.TrimSpace(r.PathValue("user_id"))
	resp, err := s.ledger.Handler.SetVoucherHandler(r.Context(), userID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	resp, err := s.ledger.Handler.BalanceHandler(r.Context(), userID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	senderID := callerID(r)
	if senderID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ledgerhttp.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.TransferHandler(r.Context(), senderID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ledgerhttp.ConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.ConsumeHandler(r.Context(), userID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	resp, err := s.ledger.Handler.ListTransactionsHandler(r.Context(), userID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

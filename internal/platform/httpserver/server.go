package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	ballotengine "tally/contexts/community-governance/ballot-engine"
	communismengine "tally/contexts/finance-core/communism-engine"
	ledgerservice "tally/contexts/finance-core/ledger-service"
	callbackdispatcher "tally/contexts/integrations/callback-dispatcher"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tally/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	ledger     ledgerservice.Module
	communisms communismengine.Module
	ballots    ballotengine.Module
	callbacks  callbackdispatcher.Module
}

func New(
	ledger ledgerservice.Module,
	communisms communismengine.Module,
	ballots ballotengine.Module,
	callbacks callbackdispatcher.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		ledger:     ledger,
		communisms: communisms,
		ballots:    ballots,
		callbacks:  callbacks,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/users", s.handleCreateUser)
	s.mux.HandleFunc("GET /v1/users", s.handleListUsers)
	s.mux.HandleFunc("GET /v1/users/{user_id}", s.handleGetUser)
	s.mux.HandleFunc("POST /v1/users/{user_id}/voucher", s.handleSetVoucher)
	s.mux.HandleFunc("GET /v1/users/{user_id}/balance", s.handleBalance)
	s.mux.HandleFunc("POST /v1/transactions", s.handleTransfer)
	s.mux.HandleFunc("POST /v1/transactions/consume", s.handleConsume)
	s.mux.HandleFunc("GET /v1/transactions", s.handleListTransactions)

	s.mux.HandleFunc("POST /v1/communisms", s.handleCreateCommunism)
	s.mux.HandleFunc("GET /v1/communisms", s.handleListCommunisms)
	s.mux.HandleFunc("GET /v1/communisms/{communism_id}", s.handleGetCommunism)
	s.mux.HandleFunc("PUT /v1/communisms/{communism_id}/participants", s.handleSetParticipants)
	s.mux.HandleFunc("POST /v1/communisms/{communism_id}/close", s.handleCloseCommunism)
	s.mux.HandleFunc("POST /v1/communisms/{communism_id}/abort", s.handleAbortCommunism)

	s.mux.HandleFunc("POST /v1/refunds", s.handleCreateRefund)
	s.mux.HandleFunc("GET /v1/refunds", s.handleListRefunds)
	s.mux.HandleFunc("GET /v1/refunds/{ballot_id}", s.handleGetRefund)
	s.mux.HandleFunc("POST /v1/refunds/{ballot_id}/vote", s.handleVoteOnRefund)
	s.mux.HandleFunc("POST /v1/refunds/{ballot_id}/abort", s.handleAbortRefund)
	s.mux.HandleFunc("POST /v1/polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /v1/polls", s.handleListPolls)
	s.mux.HandleFunc("GET /v1/polls/{ballot_id}", s.handleGetPoll)
	s.mux.HandleFunc("POST /v1/polls/{ballot_id}/vote", s.handleVoteOnPoll)
	s.mux.HandleFunc("POST /v1/polls/{ballot_id}/abort", s.handleAbortPoll)

	s.mux.HandleFunc("POST /v1/callbacks", s.handleRegisterCallback)
	s.mux.HandleFunc("GET /v1/callbacks", s.handleListCallbacks)
	s.mux.HandleFunc("DELETE /v1/callbacks/{callback_id}", s.handleDeleteCallback)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// callerID extracts the authenticated caller. Authentication itself happens
// upstream; this service trusts the forwarded header.
func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

package communismengine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	communismengine "tally/contexts/finance-core/communism-engine"
	domainerrors "tally/contexts/finance-core/communism-engine/domain/errors"
	"tally/contexts/finance-core/communism-engine/ports"
	httptransport "tally/contexts/finance-core/communism-engine/transport/http"
)

func seededModule(t *testing.T) communismengine.Module {
	t.Helper()
	module := communismengine.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(ports.UserRef{UserID: "user-a", Active: true})
	module.Store.SeedUser(ports.UserRef{UserID: "user-b", Active: true})
	module.Store.SeedUser(ports.UserRef{UserID: "user-c", Active: true})
	return module
}

func TestCloseCommunismConservesTotal(t *testing.T) {
	module := seededModule(t)

	created, err := module.Handler.CreateCommunismHandler(context.Background(), "user-a", httptransport.CreateCommunismRequest{
		Amount:      1000,
		Description: "pizza",
	})
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}

	if _, err := module.Handler.SetParticipantsHandler(context.Background(), created.CommunismID, httptransport.SetParticipantsRequest{
		Participants: map[string]int64{"user-a": 1, "user-b": 1, "user-c": 1},
	}); err != nil {
		t.Fatalf("participant update should succeed: %v", err)
	}

	closed, err := module.Handler.CloseCommunismHandler(context.Background(), created.CommunismID, "user-a")
	if err != nil {
		t.Fatalf("close should succeed: %v", err)
	}
	if closed.MultiTransaction.TotalAmount != 1000 {
		t.Fatalf("expected total 1000, got %d", closed.MultiTransaction.TotalAmount)
	}

	// 1000 over three equal shares: the leftover unit goes to the lowest
	// user id, which is the creator here.
	settlement, found := module.Store.SettlementFor(closed.MultiTransaction.MultiTransactionID)
	if !found {
		t.Fatalf("settlement not recorded")
	}
	if len(settlement.Transactions) != 2 {
		t.Fatalf("expected 2 settlement transactions, got %d", len(settlement.Transactions))
	}
	for _, txn := range settlement.Transactions {
		if txn.Amount != 333 {
			t.Fatalf("expected participant share 333, got %d", txn.Amount)
		}
		if txn.ReceiverID != "user-a" {
			t.Fatalf("expected creator receiver, got %s", txn.ReceiverID)
		}
	}
	if got := module.Store.Balance("user-a"); got != 666 {
		t.Fatalf("expected creator balance 666, got %d", got)
	}
	if got := module.Store.Balance("user-b"); got != -333 {
		t.Fatalf("expected participant balance -333, got %d", got)
	}
}

func TestCloseCommunismWeightedShares(t *testing.T) {
	module := seededModule(t)

	created, err := module.Handler.CreateCommunismHandler(context.Background(), "user-c", httptransport.CreateCommunismRequest{
		Amount:      700,
		Description: "groceries",
	})
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}
	if _, err := module.Handler.SetParticipantsHandler(context.Background(), created.CommunismID, httptransport.SetParticipantsRequest{
		Participants: map[string]int64{"user-a": 2, "user-b": 1, "user-c": 3},
	}); err != nil {
		t.Fatalf("participant update should succeed: %v", err)
	}

	if _, err := module.Handler.CloseCommunismHandler(context.Background(), created.CommunismID, "user-c"); err != nil {
		t.Fatalf("close should succeed: %v", err)
	}
	if got := module.Store.Balance("user-a"); got != -233 {
		t.Fatalf("expected user-a share -233, got %d", got)
	}
	if got := module.Store.Balance("user-b"); got != -117 {
		t.Fatalf("expected user-b share -117, got %d", got)
	}
	if got := module.Store.Balance("user-c"); got != 350 {
		t.Fatalf("expected creator net 350, got %d", got)
	}
}

func TestCloseCommunismOnlyCreatorAndOnlyOnce(t *testing.T) {
	module := seededModule(t)

	created, err := module.Handler.CreateCommunismHandler(context.Background(), "user-a", httptransport.CreateCommunismRequest{
		Amount: 300,
	})
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}

	_, err = module.Handler.CloseCommunismHandler(context.Background(), created.CommunismID, "user-b")
	if !errors.Is(err, domainerrors.ErrNotCreator) {
		t.Fatalf("expected creator gate, got %v", err)
	}

	if _, err := module.Handler.CloseCommunismHandler(context.Background(), created.CommunismID, "user-a"); err != nil {
		t.Fatalf("close should succeed: %v", err)
	}
	_, err = module.Handler.CloseCommunismHandler(context.Background(), created.CommunismID, "user-a")
	if !errors.Is(err, domainerrors.ErrNotOpen) {
		t.Fatalf("expected closed rejection, got %v", err)
	}
}

func TestCloseCommunismConcurrentSingleWinner(t *testing.T) {
	module := seededModule(t)

	created, err := module.Handler.CreateCommunismHandler(context.Background(), "user-a", httptransport.CreateCommunismRequest{
		Amount: 100,
	})
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}
	if _, err := module.Handler.SetParticipantsHandler(context.Background(), created.CommunismID, httptransport.SetParticipantsRequest{
		Participants: map[string]int64{"user-a": 1, "user-b": 1},
	}); err != nil {
		t.Fatalf("participant update should succeed: %v", err)
	}

	const closers = 8
	results := make([]error, closers)
	var wg sync.WaitGroup
	for i := 0; i < closers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = module.Handler.CloseCommunismHandler(context.Background(), created.CommunismID, "user-a")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domainerrors.ErrConflict) || errors.Is(err, domainerrors.ErrNotOpen):
		default:
			t.Fatalf("unexpected close error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winning close, got %d", winners)
	}
	// The participant share must move exactly once regardless of the race.
	if got := module.Store.Balance("user-b"); got != -50 {
		t.Fatalf("expected participant balance -50, got %d", got)
	}
	if got := module.Store.Balance("user-a"); got != 50 {
		t.Fatalf("expected creator balance 50, got %d", got)
	}
}

func TestSetParticipantsValidation(t *testing.T) {
	module := seededModule(t)
	module.Store.SeedUser(ports.UserRef{UserID: "user-ext", Active: true, External: true})

	created, err := module.Handler.CreateCommunismHandler(context.Background(), "user-a", httptransport.CreateCommunismRequest{
		Amount: 100,
	})
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}

	_, err = module.Handler.SetParticipantsHandler(context.Background(), created.CommunismID, httptransport.SetParticipantsRequest{
		Participants: map[string]int64{"user-a": -1},
	})
	if !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected quantity rejection, got %v", err)
	}

	_, err = module.Handler.SetParticipantsHandler(context.Background(), created.CommunismID, httptransport.SetParticipantsRequest{
		Participants: map[string]int64{"user-a": 1001},
	})
	if !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected oversized quantity rejection, got %v", err)
	}

	_, err = module.Handler.SetParticipantsHandler(context.Background(), created.CommunismID, httptransport.SetParticipantsRequest{
		Participants: map[string]int64{"user-a": 1, "user-ext": 1},
	})
	if !errors.Is(err, domainerrors.ErrUserIneligible) {
		t.Fatalf("expected eligibility rejection, got %v", err)
	}

	// Quantity zero removes the entry instead of keeping a zero share.
	resp, err := module.Handler.SetParticipantsHandler(context.Background(), created.CommunismID, httptransport.SetParticipantsRequest{
		Participants: map[string]int64{"user-a": 1, "user-b": 0},
	})
	if err != nil {
		t.Fatalf("participant update should succeed: %v", err)
	}
	if len(resp.Participants) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(resp.Participants))
	}
}

func TestAbortCommunismStopsSettlement(t *testing.T) {
	module := seededModule(t)

	created, err := module.Handler.CreateCommunismHandler(context.Background(), "user-a", httptransport.CreateCommunismRequest{
		Amount: 100,
	})
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}

	aborted, err := module.Handler.AbortCommunismHandler(context.Background(), created.CommunismID, "user-a")
	if err != nil {
		t.Fatalf("abort should succeed: %v", err)
	}
	if !aborted.Aborted || aborted.Active {
		t.Fatalf("expected aborted inactive communism, got %+v", aborted)
	}

	_, err = module.Handler.CloseCommunismHandler(context.Background(), created.CommunismID, "user-a")
	if !errors.Is(err, domainerrors.ErrNotOpen) {
		t.Fatalf("expected closed rejection, got %v", err)
	}
	if got := module.Store.Balance("user-a"); got != 0 {
		t.Fatalf("expected untouched balance, got %d", got)
	}
}

package ballotengine_test

import (
	"context"
	"errors"
	"testing"

	ballotengine "tally/contexts/community-governance/ballot-engine"
	domainerrors "tally/contexts/community-governance/ballot-engine/domain/errors"
	"tally/contexts/community-governance/ballot-engine/ports"
	httptransport "tally/contexts/community-governance/ballot-engine/transport/http"
)

func seededModule(t *testing.T) ballotengine.Module {
	t.Helper()
	module := ballotengine.NewInMemoryModule(nil, nil)
	module.Store.SeedCommunity("community")
	module.Store.SeedUser(ports.UserAccount{UserID: "community", Active: true})
	module.Store.SeedUser(ports.UserAccount{UserID: "user-a", Active: true, Permission: true})
	module.Store.SeedUser(ports.UserAccount{UserID: "user-b", Active: true, Permission: true})
	module.Store.SeedUser(ports.UserAccount{UserID: "user-c", Active: true, Permission: true})
	return module
}

func TestRefundAcceptedAtApproveThreshold(t *testing.T) {
	module := seededModule(t)

	refund, err := module.Handler.CreateRefundHandler(context.Background(), "user-a", httptransport.CreateRefundRequest{
		Amount:      500,
		Description: "new keg",
	})
	if err != nil {
		t.Fatalf("create refund should succeed: %v", err)
	}

	first, err := module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-b", httptransport.VoteRequest{Approve: true})
	if err != nil {
		t.Fatalf("first vote should succeed: %v", err)
	}
	if first.Ballot.State != "open" || first.Tally != 1 {
		t.Fatalf("expected open ballot at tally 1, got state %s tally %d", first.Ballot.State, first.Tally)
	}

	second, err := module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-c", httptransport.VoteRequest{Approve: true})
	if err != nil {
		t.Fatalf("second vote should succeed: %v", err)
	}
	if second.Ballot.State != "accepted" {
		t.Fatalf("expected accepted ballot, got %s", second.Ballot.State)
	}
	if second.Ballot.TransactionID == nil {
		t.Fatalf("expected payout transaction id on acceptance")
	}

	payout, found := module.Store.PayoutFor(*second.Ballot.TransactionID)
	if !found {
		t.Fatalf("payout transaction not recorded")
	}
	if payout.SenderID != "community" || payout.ReceiverID != "user-a" || payout.Amount != 500 {
		t.Fatalf("unexpected payout: %+v", payout)
	}
	if got := module.Store.Balance("user-a"); got != 500 {
		t.Fatalf("expected creator balance 500, got %d", got)
	}
	if got := module.Store.Balance("community"); got != -500 {
		t.Fatalf("expected community balance -500, got %d", got)
	}
}

func TestRefundRejectedAtDisapproveThreshold(t *testing.T) {
	module := seededModule(t)

	refund, err := module.Handler.CreateRefundHandler(context.Background(), "user-a", httptransport.CreateRefundRequest{Amount: 200})
	if err != nil {
		t.Fatalf("create refund should succeed: %v", err)
	}

	if _, err := module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-b", httptransport.VoteRequest{Approve: false}); err != nil {
		t.Fatalf("first vote should succeed: %v", err)
	}
	outcome, err := module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-c", httptransport.VoteRequest{Approve: false})
	if err != nil {
		t.Fatalf("second vote should succeed: %v", err)
	}
	if outcome.Ballot.State != "rejected" {
		t.Fatalf("expected rejected ballot, got %s", outcome.Ballot.State)
	}
	if outcome.Ballot.TransactionID != nil {
		t.Fatalf("rejected refund must not carry a payout")
	}
	if got := module.Store.Balance("user-a"); got != 0 {
		t.Fatalf("expected untouched creator balance, got %d", got)
	}

	_, err = module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-b", httptransport.VoteRequest{Approve: true})
	if !errors.Is(err, domainerrors.ErrNotOpen) {
		t.Fatalf("expected closed rejection, got %v", err)
	}
}

func TestRefundVotingGates(t *testing.T) {
	module := seededModule(t)
	module.Store.SeedUser(ports.UserAccount{UserID: "user-ext", Active: true, External: true, Permission: true})
	module.Store.SeedUser(ports.UserAccount{UserID: "user-plain", Active: true})

	refund, err := module.Handler.CreateRefundHandler(context.Background(), "user-a", httptransport.CreateRefundRequest{Amount: 100})
	if err != nil {
		t.Fatalf("create refund should succeed: %v", err)
	}

	_, err = module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-a", httptransport.VoteRequest{Approve: true})
	if !errors.Is(err, domainerrors.ErrOwnBallot) {
		t.Fatalf("expected own-ballot rejection, got %v", err)
	}
	_, err = module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-ext", httptransport.VoteRequest{Approve: true})
	if !errors.Is(err, domainerrors.ErrVoterIneligible) {
		t.Fatalf("expected external voter rejection, got %v", err)
	}
	_, err = module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-plain", httptransport.VoteRequest{Approve: true})
	if !errors.Is(err, domainerrors.ErrVoterIneligible) {
		t.Fatalf("expected unprivileged voter rejection, got %v", err)
	}

	// A refund ballot is invisible through the poll surface.
	_, err = module.Handler.VoteOnPollHandler(context.Background(), refund.BallotID, "user-b", httptransport.VoteRequest{Approve: true})
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected kind mismatch as not found, got %v", err)
	}
}

func TestReVoteOverwritesInsteadOfAdding(t *testing.T) {
	module := seededModule(t)

	refund, err := module.Handler.CreateRefundHandler(context.Background(), "user-a", httptransport.CreateRefundRequest{Amount: 100})
	if err != nil {
		t.Fatalf("create refund should succeed: %v", err)
	}

	if _, err := module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-b", httptransport.VoteRequest{Approve: true}); err != nil {
		t.Fatalf("vote should succeed: %v", err)
	}
	outcome, err := module.Handler.VoteOnRefundHandler(context.Background(), refund.BallotID, "user-b", httptransport.VoteRequest{Approve: false})
	if err != nil {
		t.Fatalf("re-vote should succeed: %v", err)
	}
	if outcome.Tally != -1 {
		t.Fatalf("expected tally -1 after overwrite, got %d", outcome.Tally)
	}

	detail, err := module.Handler.GetRefundHandler(context.Background(), refund.BallotID)
	if err != nil {
		t.Fatalf("get refund should succeed: %v", err)
	}
	if len(detail.Votes) != 1 {
		t.Fatalf("expected a single vote row, got %d", len(detail.Votes))
	}
	if detail.Votes[0].Approve {
		t.Fatalf("expected the overwritten value to stick")
	}
}

func TestPollAcceptanceGrantsPermission(t *testing.T) {
	module := seededModule(t)
	module.Store.SeedUser(ports.UserAccount{UserID: "user-t", Active: true})

	poll, err := module.Handler.CreatePollHandler(context.Background(), "user-a", httptransport.CreatePollRequest{
		Variant:      "get_permission",
		TargetUserID: "user-t",
	})
	if err != nil {
		t.Fatalf("create poll should succeed: %v", err)
	}

	if _, err := module.Handler.VoteOnPollHandler(context.Background(), poll.BallotID, "user-b", httptransport.VoteRequest{Approve: true}); err != nil {
		t.Fatalf("first vote should succeed: %v", err)
	}
	outcome, err := module.Handler.VoteOnPollHandler(context.Background(), poll.BallotID, "user-c", httptransport.VoteRequest{Approve: true})
	if err != nil {
		t.Fatalf("second vote should succeed: %v", err)
	}
	if outcome.Ballot.State != "accepted" {
		t.Fatalf("expected accepted poll, got %s", outcome.Ballot.State)
	}

	target, err := module.Store.GetUser(context.Background(), "user-t")
	if err != nil {
		t.Fatalf("target lookup failed: %v", err)
	}
	if !target.Permission {
		t.Fatalf("expected target to hold the permission flag")
	}
}

func TestPollVariantTargetValidation(t *testing.T) {
	module := seededModule(t)
	module.Store.SeedUser(ports.UserAccount{UserID: "user-ext", Active: true, External: true})

	_, err := module.Handler.CreatePollHandler(context.Background(), "user-a", httptransport.CreatePollRequest{
		Variant:      "get_internal",
		TargetUserID: "user-b",
	})
	if !errors.Is(err, domainerrors.ErrInvalidTarget) {
		t.Fatalf("expected target mismatch for internal user, got %v", err)
	}

	_, err = module.Handler.CreatePollHandler(context.Background(), "user-a", httptransport.CreatePollRequest{
		Variant:      "become_famous",
		TargetUserID: "user-ext",
	})
	if !errors.Is(err, domainerrors.ErrInvalidVariant) {
		t.Fatalf("expected variant rejection, got %v", err)
	}

	if _, err := module.Handler.CreatePollHandler(context.Background(), "user-a", httptransport.CreatePollRequest{
		Variant:      "get_internal",
		TargetUserID: "user-ext",
	}); err != nil {
		t.Fatalf("valid poll should succeed: %v", err)
	}
}

func TestAbortPollCreatorOnly(t *testing.T) {
	module := seededModule(t)
	module.Store.SeedUser(ports.UserAccount{UserID: "user-ext", Active: true, External: true})

	poll, err := module.Handler.CreatePollHandler(context.Background(), "user-a", httptransport.CreatePollRequest{
		Variant:      "get_internal",
		TargetUserID: "user-ext",
	})
	if err != nil {
		t.Fatalf("create poll should succeed: %v", err)
	}

	_, err = module.Handler.AbortPollHandler(context.Background(), poll.BallotID, "user-b")
	if !errors.Is(err, domainerrors.ErrNotCreator) {
		t.Fatalf("expected creator gate, got %v", err)
	}

	aborted, err := module.Handler.AbortPollHandler(context.Background(), poll.BallotID, "user-a")
	if err != nil {
		t.Fatalf("abort should succeed: %v", err)
	}
	if aborted.State != "aborted" {
		t.Fatalf("expected aborted state, got %s", aborted.State)
	}

	_, err = module.Handler.VoteOnPollHandler(context.Background(), poll.BallotID, "user-b", httptransport.VoteRequest{Approve: true})
	if !errors.Is(err, domainerrors.ErrNotOpen) {
		t.Fatalf("expected closed rejection, got %v", err)
	}
}

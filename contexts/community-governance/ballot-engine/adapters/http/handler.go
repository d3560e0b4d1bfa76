package httpadapter

import (
	"context"
	"log/slog"

	"tally/contexts/community-governance/ballot-engine/application"
	"tally/contexts/community-governance/ballot-engine/domain/entities"
	httptransport "tally/contexts/community-governance/ballot-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateRefundHandler(
	ctx context.Context,
	creatorID string,
	req httptransport.CreateRefundRequest,
) (httptransport.BallotResponse, error) {
	ballot, err := h.Service.CreateRefund(ctx, application.CreateRefundInput{
		CreatorID:   creatorID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot, nil), nil
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	creatorID string,
	req httptransport.CreatePollRequest,
) (httptransport.BallotResponse, error) {
	ballot, err := h.Service.CreatePoll(ctx, application.CreatePollInput{
		CreatorID:    creatorID,
		Variant:      entities.PollVariant(req.Variant),
		TargetUserID: req.TargetUserID,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot, nil), nil
}

func (h Handler) GetRefundHandler(ctx context.Context, ballotID string) (httptransport.BallotResponse, error) {
	detail, err := h.Service.GetRefund(ctx, ballotID)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(detail.Ballot, detail.Votes), nil
}

func (h Handler) GetPollHandler(ctx context.Context, ballotID string) (httptransport.BallotResponse, error) {
	detail, err := h.Service.GetPoll(ctx, ballotID)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(detail.Ballot, detail.Votes), nil
}

func (h Handler) ListRefundsHandler(ctx context.Context, openOnly bool) (httptransport.BallotsResponse, error) {
	ballots, err := h.Service.ListRefunds(ctx, openOnly)
	if err != nil {
		return httptransport.BallotsResponse{}, err
	}
	return mapBallots(ballots), nil
}

func (h Handler) ListPollsHandler(ctx context.Context, openOnly bool) (httptransport.BallotsResponse, error) {
	ballots, err := h.Service.ListPolls(ctx, openOnly)
	if err != nil {
		return httptransport.BallotsResponse{}, err
	}
	return mapBallots(ballots), nil
}

func (h Handler) VoteOnRefundHandler(
	ctx context.Context,
	ballotID string,
	voterID string,
	req httptransport.VoteRequest,
) (httptransport.VoteOutcomeResponse, error) {
	outcome, err := h.Service.VoteOnRefund(ctx, ballotID, voterID, req.Approve)
	if err != nil {
		return httptransport.VoteOutcomeResponse{}, err
	}
	return mapOutcome(outcome), nil
}

func (h Handler) VoteOnPollHandler(
	ctx context.Context,
	ballotID string,
	voterID string,
	req httptransport.VoteRequest,
) (httptransport.VoteOutcomeResponse, error) {
	outcome, err := h.Service.VoteOnPoll(ctx, ballotID, voterID, req.Approve)
	if err != nil {
		return httptransport.VoteOutcomeResponse{}, err
	}
	return mapOutcome(outcome), nil
}

func (h Handler) AbortRefundHandler(ctx context.Context, ballotID, issuerID string) (httptransport.BallotResponse, error) {
	ballot, err := h.Service.AbortRefund(ctx, ballotID, issuerID)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot, nil), nil
}

func (h Handler) AbortPollHandler(ctx context.Context, ballotID, issuerID string) (httptransport.BallotResponse, error) {
	ballot, err := h.Service.AbortPoll(ctx, ballotID, issuerID)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot, nil), nil
}

func mapBallot(ballot entities.Ballot, votes []entities.Vote) httptransport.BallotResponse {
	voteItems := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		voteItems = append(voteItems, mapVote(vote))
	}
	resp := httptransport.BallotResponse{
		BallotID:      ballot.BallotID,
		Kind:          string(ballot.Kind),
		State:         string(ballot.State),
		CreatorID:     ballot.CreatorID,
		Amount:        ballot.Amount,
		Description:   ballot.Description,
		TransactionID: ballot.TransactionID,
		Variant:       string(ballot.Variant),
		TargetUserID:  ballot.TargetUserID,
		Votes:         voteItems,
		Created:       ballot.CreatedAt.Unix(),
		Modified:      ballot.ModifiedAt.Unix(),
	}
	if ballot.ClosedAt != nil {
		closed := ballot.ClosedAt.Unix()
		resp.Closed = &closed
	}
	return resp
}

func mapBallots(ballots []entities.Ballot) httptransport.BallotsResponse {
	items := make([]httptransport.BallotResponse, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, mapBallot(ballot, nil))
	}
	return httptransport.BallotsResponse{Items: items}
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:   vote.VoteID,
		BallotID: vote.BallotID,
		UserID:   vote.UserID,
		Approve:  vote.Approve,
		Modified: vote.ModifiedAt.Unix(),
	}
}

func mapOutcome(outcome application.VoteOutcome) httptransport.VoteOutcomeResponse {
	return httptransport.VoteOutcomeResponse{
		Ballot: mapBallot(outcome.Ballot, nil),
		Vote:   mapVote(outcome.Vote),
		Tally:  outcome.Tally,
	}
}

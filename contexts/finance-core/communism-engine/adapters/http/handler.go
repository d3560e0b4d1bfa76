package httpadapter

import (
	"context"
	"log/slog"

	"tally/contexts/finance-core/communism-engine/application"
	"tally/contexts/finance-core/communism-engine/domain/entities"
	httptransport "tally/contexts/finance-core/communism-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateCommunismHandler(
	ctx context.Context,
	creatorID string,
	req httptransport.CreateCommunismRequest,
) (httptransport.CommunismResponse, error) {
	communism, err := h.Service.CreateCommunism(ctx, application.CreateCommunismInput{
		CreatorID:   creatorID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.CommunismResponse{}, err
	}
	return mapCommunism(communism), nil
}

func (h Handler) GetCommunismHandler(ctx context.Context, communismID string) (httptransport.CommunismResponse, error) {
	communism, err := h.Service.GetCommunism(ctx, communismID)
	if err != nil {
		return httptransport.CommunismResponse{}, err
	}
	return mapCommunism(communism), nil
}

func (h Handler) ListCommunismsHandler(ctx context.Context, activeOnly bool) (httptransport.CommunismsResponse, error) {
	communisms, err := h.Service.ListCommunisms(ctx, activeOnly)
	if err != nil {
		return httptransport.CommunismsResponse{}, err
	}
	items := make([]httptransport.CommunismResponse, 0, len(communisms))
	for _, communism := range communisms {
		items = append(items, mapCommunism(communism))
	}
	return httptransport.CommunismsResponse{Items: items}, nil
}

func (h Handler) SetParticipantsHandler(
	ctx context.Context,
	communismID string,
	req httptransport.SetParticipantsRequest,
) (httptransport.CommunismResponse, error) {
	communism, err := h.Service.SetParticipants(ctx, communismID, req.Participants)
	if err != nil {
		return httptransport.CommunismResponse{}, err
	}
	return mapCommunism(communism), nil
}

func (h Handler) CloseCommunismHandler(
	ctx context.Context,
	communismID string,
	issuerID string,
) (httptransport.CloseCommunismResponse, error) {
	result, err := h.Service.CloseCommunism(ctx, communismID, issuerID)
	if err != nil {
		return httptransport.CloseCommunismResponse{}, err
	}
	return httptransport.CloseCommunismResponse{
		Communism: mapCommunism(result.Communism),
		MultiTransaction: httptransport.MultiTransactionResponse{
			MultiTransactionID: result.MultiTransaction.MultiTransactionID,
			TotalAmount:        result.MultiTransaction.TotalAmount,
			Timestamp:          result.MultiTransaction.CreatedAt.Unix(),
		},
	}, nil
}

func (h Handler) AbortCommunismHandler(
	ctx context.Context,
	communismID string,
	issuerID string,
) (httptransport.CommunismResponse, error) {
	communism, err := h.Service.AbortCommunism(ctx, communismID, issuerID)
	if err != nil {
		return httptransport.CommunismResponse{}, err
	}
	return mapCommunism(communism), nil
}

func mapCommunism(communism entities.Communism) httptransport.CommunismResponse {
	participants := make([]httptransport.ParticipantResponse, 0, len(communism.Participants))
	for _, participant := range communism.Participants {
		participants = append(participants, httptransport.ParticipantResponse{
			UserID:   participant.UserID,
			Quantity: participant.Quantity,
		})
	}
	return httptransport.CommunismResponse{
		CommunismID:        communism.CommunismID,
		Active:             communism.Active,
		Aborted:            communism.Aborted,
		Amount:             communism.Amount,
		Description:        communism.Description,
		CreatorID:          communism.CreatorID,
		Participants:       participants,
		MultiTransactionID: communism.MultiTransactionID,
		Created:            communism.CreatedAt.Unix(),
		Modified:           communism.UpdatedAt.Unix(),
	}
}

package httpadapter

import (
	"context"
	"log/slog"

	"tally/contexts/finance-core/ledger-service/application"
	"tally/contexts/finance-core/ledger-service/domain/entities"
	httptransport "tally/contexts/finance-core/ledger-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateUserHandler(ctx context.Context, req httptransport.CreateUserRequest) (httptransport.UserResponse, error) {
	user, err := h.Service.CreateUser(ctx, application.CreateUserInput{
		Name:      req.Name,
		External:  req.External,
		VoucherID: req.VoucherID,
	})
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return mapUser(user), nil
}

func (h Handler) GetUserHandler(ctx context.Context, userID string) (httptransport.UserResponse, error) {
	user, err := h.Service.GetUser(ctx, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return mapUser(user), nil
}

func (h Handler) ListUsersHandler(ctx context.Context) (httptransport.UsersResponse, error) {
	users, err := h.Service.ListUsers(ctx)
	if err != nil {
		return httptransport.UsersResponse{}, err
	}
	items := make([]httptransport.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, mapUser(user))
	}
	return httptransport.UsersResponse{Items: items}, nil
}

func (h Handler) SetVoucherHandler(
	ctx context.Context,
	userID string,
	req httptransport.SetVoucherRequest,
) (httptransport.UserResponse, error) {
	user, err := h.Service.SetVoucher(ctx, userID, req.VoucherID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return mapUser(user), nil
}

func (h Handler) BalanceHandler(ctx context.Context, userID string) (httptransport.BalanceResponse, error) {
	balance, err := h.Service.BalanceOf(ctx, userID)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return httptransport.BalanceResponse{
		UserID:  userID,
		Balance: balance,
	}, nil
}

func (h Handler) TransferHandler(
	ctx context.Context,
	senderID string,
	req httptransport.CreateTransactionRequest,
) (httptransport.TransactionResponse, error) {
	txn, err := h.Service.Transfer(ctx, application.TransferInput{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		Reason:     req.Reason,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return mapTransaction(txn), nil
}

func (h Handler) ConsumeHandler(
	ctx context.Context,
	userID string,
	req httptransport.ConsumeRequest,
) (httptransport.TransactionResponse, error) {
	txn, err := h.Service.Consume(ctx, application.ConsumeInput{
		UserID:       userID,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return mapTransaction(txn), nil
}

func (h Handler) ListTransactionsHandler(ctx context.Context, userID string) (httptransport.TransactionsResponse, error) {
	txns, err := h.Service.ListTransactions(ctx, userID)
	if err != nil {
		return httptransport.TransactionsResponse{}, err
	}
	items := make([]httptransport.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		items = append(items, mapTransaction(txn))
	}
	return httptransport.TransactionsResponse{Items: items}, nil
}

func mapUser(user entities.User) httptransport.UserResponse {
	return httptransport.UserResponse{
		UserID:     user.UserID,
		Name:       user.Name,
		Balance:    user.Balance,
		Permission: user.Permission,
		Active:     user.Active,
		External:   user.External,
		VoucherID:  user.VoucherID,
		Created:    user.CreatedAt.Unix(),
	}
}

func mapTransaction(txn entities.Transaction) httptransport.TransactionResponse {
	return httptransport.TransactionResponse{
		TransactionID:      txn.TransactionID,
		SenderID:           txn.SenderID,
		ReceiverID:         txn.ReceiverID,
		Amount:             txn.Amount,
		Reason:             txn.Reason,
		MultiTransactionID: txn.MultiTransactionID,
		Timestamp:          txn.CreatedAt.Unix(),
	}
}

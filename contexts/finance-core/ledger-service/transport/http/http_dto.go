package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateUserRequest struct {
	Name      string `json:"name"`
	External  bool   `json:"external"`
	VoucherID string `json:"voucher_id,omitempty"`
}

type SetVoucherRequest struct {
	VoucherID *string `json:"voucher_id"`
}

type UserResponse struct {
	UserID     string  `json:"id"`
	Name       string  `json:"name"`
	Balance    int64   `json:"balance"`
	Permission bool    `json:"permission"`
	Active     bool    `json:"active"`
	External   bool    `json:"external"`
	VoucherID  *string `json:"voucher_id,omitempty"`
	Created    int64   `json:"created"`
}

type UsersResponse struct {
	Items []UserResponse `json:"items"`
}

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type CreateTransactionRequest struct {
	ReceiverID string `json:"receiver_id"`
	Amount     int64  `json:"amount"`
	Reason     string `json:"reason,omitempty"`
}

type ConsumeRequest struct {
	Quantity     int    `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	Reason       string `json:"reason,omitempty"`
}

type TransactionResponse struct {
	TransactionID      string  `json:"id"`
	SenderID           string  `json:"sender"`
	ReceiverID         string  `json:"receiver"`
	Amount             int64   `json:"amount"`
	Reason             string  `json:"reason,omitempty"`
	MultiTransactionID *string `json:"multi_transaction_id,omitempty"`
	Timestamp          int64   `json:"timestamp"`
}

type TransactionsResponse struct {
	Items []TransactionResponse `json:"items"`
}

package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateCommunismRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type SetParticipantsRequest struct {
	Participants map[string]int64 `json:"participants"`
}

type ParticipantResponse struct {
	UserID   string `json:"user_id"`
	Quantity int64  `json:"quantity"`
}

type CommunismResponse struct {
	CommunismID        string                `json:"id"`
	Active             bool                  `json:"active"`
	Aborted            bool                  `json:"aborted"`
	Amount             int64                 `json:"amount"`
	Description        string                `json:"description"`
	CreatorID          string                `json:"creator_id"`
	Participants       []ParticipantResponse `json:"participants"`
	MultiTransactionID *string               `json:"multi_transaction_id,omitempty"`
	Created            int64                 `json:"created"`
	Modified           int64                 `json:"modified"`
}

type CommunismsResponse struct {
	Items []CommunismResponse `json:"items"`
}

type MultiTransactionResponse struct {
	MultiTransactionID string `json:"id"`
	TotalAmount        int64  `json:"total_amount"`
	Timestamp          int64  `json:"timestamp"`
}

type CloseCommunismResponse struct {
	Communism        CommunismResponse        `json:"communism"`
	MultiTransaction MultiTransactionResponse `json:"multi_transaction"`
}

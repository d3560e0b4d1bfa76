package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateRefundRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type CreatePollRequest struct {
	Variant      string `json:"variant"`
	TargetUserID string `json:"user_id"`
}

type VoteRequest struct {
	Approve bool `json:"approve"`
}

type VoteResponse struct {
	VoteID   string `json:"id"`
	BallotID string `json:"ballot_id"`
	UserID   string `json:"user_id"`
	Approve  bool   `json:"approve"`
	Modified int64  `json:"modified"`
}

type BallotResponse struct {
	BallotID      string         `json:"id"`
	Kind          string         `json:"kind"`
	State         string         `json:"state"`
	CreatorID     string         `json:"creator_id"`
	Amount        int64          `json:"amount,omitempty"`
	Description   string         `json:"description,omitempty"`
	TransactionID *string        `json:"transaction_id,omitempty"`
	Variant       string         `json:"variant,omitempty"`
	TargetUserID  string         `json:"user_id,omitempty"`
	Votes         []VoteResponse `json:"votes"`
	Created       int64          `json:"created"`
	Modified      int64          `json:"modified"`
	Closed        *int64         `json:"closed,omitempty"`
}

type BallotsResponse struct {
	Items []BallotResponse `json:"items"`
}

type VoteOutcomeResponse struct {
	Ballot BallotResponse `json:"ballot"`
	Vote   VoteResponse   `json:"vote"`
	Tally  int64          `json:"tally"`
}

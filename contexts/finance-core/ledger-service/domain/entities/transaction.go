package entities

import "time"

// Transaction is one immutable value transfer. Rows are only ever appended;
// there is no update or delete path anywhere in the module.
type Transaction struct {
	TransactionID      string
	SenderID           string
	ReceiverID         string
	Amount             int64
	Reason             string
	MultiTransactionID *string
	CreatedAt          time.Time
}

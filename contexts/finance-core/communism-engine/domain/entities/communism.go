package entities

import "time"

// Participant is one weighted member of a communism. Quantity expresses how
// many shares the member pays for (guests, rounds, and so on).
type Participant struct {
	UserID   string
	Quantity int64
}

type Communism struct {
	CommunismID        string
	Active             bool
	Aborted            bool
	Amount             int64
	Description        string
	CreatorID          string
	Participants       []Participant
	MultiTransactionID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalQuantity sums all participant quantities.
func (c Communism) TotalQuantity() int64 {
	var total int64
	for _, participant := range c.Participants {
		total += participant.Quantity
	}
	return total
}

// MultiTransaction groups the transactions produced by one settlement.
type MultiTransaction struct {
	MultiTransactionID string
	TotalAmount        int64
	CreatedAt          time.Time
}

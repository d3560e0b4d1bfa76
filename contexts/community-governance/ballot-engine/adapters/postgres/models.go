package postgresadapter

import (
	"time"

	"tally/contexts/community-governance/ballot-engine/domain/entities"
)

type ballotModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	Kind          string     `gorm:"column:kind"`
	State         string     `gorm:"column:state"`
	CreatorID     string     `gorm:"column:creator_id"`
	Amount        int64      `gorm:"column:amount"`
	Description   string     `gorm:"column:description"`
	TransactionID *string    `gorm:"column:transaction_id"`
	Variant       string     `gorm:"column:variant"`
	TargetUserID  string     `gorm:"column:target_user_id"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	ModifiedAt    time.Time  `gorm:"column:modified_at"`
	ClosedAt      *time.Time `gorm:"column:closed_at"`
}

func (ballotModel) TableName() string { return "ballots" }

func (m ballotModel) toEntity() entities.Ballot {
	ballot := entities.Ballot{
		BallotID:      m.ID,
		Kind:          entities.BallotKind(m.Kind),
		State:         entities.BallotState(m.State),
		CreatorID:     m.CreatorID,
		Amount:        m.Amount,
		Description:   m.Description,
		TransactionID: m.TransactionID,
		Variant:       entities.PollVariant(m.Variant),
		TargetUserID:  m.TargetUserID,
		CreatedAt:     m.CreatedAt.UTC(),
		ModifiedAt:    m.ModifiedAt.UTC(),
	}
	if m.ClosedAt != nil {
		closedAt := m.ClosedAt.UTC()
		ballot.ClosedAt = &closedAt
	}
	return ballot
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:            ballot.BallotID,
		Kind:          string(ballot.Kind),
		State:         string(ballot.State),
		CreatorID:     ballot.CreatorID,
		Amount:        ballot.Amount,
		Description:   ballot.Description,
		TransactionID: ballot.TransactionID,
		Variant:       string(ballot.Variant),
		TargetUserID:  ballot.TargetUserID,
		CreatedAt:     ballot.CreatedAt.UTC(),
		ModifiedAt:    ballot.ModifiedAt.UTC(),
		ClosedAt:      ballot.ClosedAt,
	}
}

type voteModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	BallotID   string    `gorm:"column:ballot_id;uniqueIndex:idx_votes_ballot_user"`
	UserID     string    `gorm:"column:user_id;uniqueIndex:idx_votes_ballot_user"`
	Approve    bool      `gorm:"column:approve"`
	ModifiedAt time.Time `gorm:"column:modified_at"`
}

func (voteModel) TableName() string { return "votes" }

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:     m.ID,
		BallotID:   m.BallotID,
		UserID:     m.UserID,
		Approve:    m.Approve,
		ModifiedAt: m.ModifiedAt.UTC(),
	}
}

// transactionModel and userProjectionModel target tables owned by the ledger
// module. Only the columns the acceptance path touches are mapped here.
type transactionModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	SenderID   string `gorm:"column:sender_id"`
	ReceiverID string `gorm:"column:receiver_id"`
	Amount     int64  `gorm:"column:amount"`
	Reason     string `gorm:"column:reason"`
	CreatedAt  time.Time
}

func (transactionModel) TableName() string { return "transactions" }

type userProjectionModel struct {
	ID         string  `gorm:"column:id;primaryKey"`
	Balance    int64   `gorm:"column:balance"`
	Active     bool    `gorm:"column:active"`
	External   bool    `gorm:"column:external"`
	Permission bool    `gorm:"column:permission"`
	Special    *bool   `gorm:"column:special"`
	VoucherID  *string `gorm:"column:voucher_id"`
	UpdatedAt  time.Time
}

func (userProjectionModel) TableName() string { return "users" }

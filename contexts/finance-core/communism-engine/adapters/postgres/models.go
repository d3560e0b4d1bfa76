package postgresadapter

import (
	"time"

	"tally/contexts/finance-core/communism-engine/domain/entities"
)

type communismModel struct {
	ID                 string  `gorm:"column:id;primaryKey"`
	Active             bool    `gorm:"column:active"`
	Aborted            bool    `gorm:"column:aborted"`
	Amount             int64   `gorm:"column:amount"`
	Description        string  `gorm:"column:description"`
	CreatorID          string  `gorm:"column:creator_id"`
	MultiTransactionID *string `gorm:"column:multi_transaction_id"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (communismModel) TableName() string { return "communisms" }

func (m communismModel) toEntity(participants []entities.Participant) entities.Communism {
	return entities.Communism{
		CommunismID:        m.ID,
		Active:             m.Active,
		Aborted:            m.Aborted,
		Amount:             m.Amount,
		Description:        m.Description,
		CreatorID:          m.CreatorID,
		Participants:       participants,
		MultiTransactionID: m.MultiTransactionID,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

func communismModelFromEntity(communism entities.Communism) communismModel {
	return communismModel{
		ID:                 communism.CommunismID,
		Active:             communism.Active,
		Aborted:            communism.Aborted,
		Amount:             communism.Amount,
		Description:        communism.Description,
		CreatorID:          communism.CreatorID,
		MultiTransactionID: communism.MultiTransactionID,
		CreatedAt:          communism.CreatedAt.UTC(),
		UpdatedAt:          communism.UpdatedAt.UTC(),
	}
}

type participantModel struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	CommunismID string `gorm:"column:communism_id"`
	UserID      string `gorm:"column:user_id"`
	Quantity    int64  `gorm:"column:quantity"`
}

func (participantModel) TableName() string { return "communism_participants" }

type multiTransactionModel struct {
	ID          string `gorm:"column:id;primaryKey"`
	TotalAmount int64  `gorm:"column:total_amount"`
	CreatedAt   time.Time
}

func (multiTransactionModel) TableName() string { return "multi_transactions" }

// transactionModel and userProjectionModel target tables owned by the ledger
// module. Only the columns the settle path touches are mapped here.
type transactionModel struct {
	ID                 string  `gorm:"column:id;primaryKey"`
	SenderID           string  `gorm:"column:sender_id"`
	ReceiverID         string  `gorm:"column:receiver_id"`
	Amount             int64   `gorm:"column:amount"`
	Reason             string  `gorm:"column:reason"`
	MultiTransactionID *string `gorm:"column:multi_transaction_id"`
	CreatedAt          time.Time
}

func (transactionModel) TableName() string { return "transactions" }

type userProjectionModel struct {
	ID        string  `gorm:"column:id;primaryKey"`
	Balance   int64   `gorm:"column:balance"`
	Active    bool    `gorm:"column:active"`
	External  bool    `gorm:"column:external"`
	VoucherID *string `gorm:"column:voucher_id"`
	UpdatedAt time.Time
}

func (userProjectionModel) TableName() string { return "users" }

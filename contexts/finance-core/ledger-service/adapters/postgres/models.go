package postgresadapter

import (
	"time"

	"tally/contexts/finance-core/ledger-service/domain/entities"
)

type userModel struct {
	ID         string  `gorm:"column:id;primaryKey"`
	Name       string  `gorm:"column:name"`
	Balance    int64   `gorm:"column:balance"`
	Permission bool    `gorm:"column:permission"`
	Active     bool    `gorm:"column:active"`
	Special    *bool   `gorm:"column:special"`
	External   bool    `gorm:"column:external"`
	VoucherID  *string `gorm:"column:voucher_id"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (userModel) TableName() string { return "users" }

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:     m.ID,
		Name:       m.Name,
		Balance:    m.Balance,
		Permission: m.Permission,
		Active:     m.Active,
		Special:    m.Special != nil && *m.Special,
		External:   m.External,
		VoucherID:  m.VoucherID,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func userModelFromEntity(user entities.User) userModel {
	var special *bool
	if user.Special {
		flag := true
		special = &flag
	}
	return userModel{
		ID:         user.UserID,
		Name:       user.Name,
		Balance:    user.Balance,
		Permission: user.Permission,
		Active:     user.Active,
		Special:    special,
		External:   user.External,
		VoucherID:  user.VoucherID,
		CreatedAt:  user.CreatedAt.UTC(),
		UpdatedAt:  user.UpdatedAt.UTC(),
	}
}

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

func (m transactionModel) toEntity() entities.Transaction {
	return entities.Transaction{
		TransactionID:      m.ID,
		SenderID:           m.SenderID,
		ReceiverID:         m.ReceiverID,
		Amount:             m.Amount,
		Reason:             m.Reason,
		MultiTransactionID: m.MultiTransactionID,
		CreatedAt:          m.CreatedAt.UTC(),
	}
}

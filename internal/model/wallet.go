package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a principal's spendable balance. The version column is an
// optimistic lock: debits are conditional on the version read before the
// transaction started.
type Wallet struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string          `gorm:"type:varchar(15);uniqueIndex;not null" json:"username"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	Version   int             `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallet"
}

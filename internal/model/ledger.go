package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntryTypeCredit = "credit"
	EntryTypeDebit  = "debit"
)

// LedgerEntry is one append-only line in a principal's transaction history.
// Entries record the balance before and after the movement so the ledger can
// be reconciled against the wallet row.
//
// TxnID keeps the ACTION_<id> convention from the product's history view
// (LIFAFA_CREATE_*, TRANSFER_SENT_*, ADMIN_CREDIT_* and so on); it is
// indexed but intentionally not unique, since both sides of a transfer share
// the originating id.
type LedgerEntry struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TxnID         string          `gorm:"type:varchar(64);index;not null" json:"txn_id"`
	Username      string          `gorm:"type:varchar(15);index;not null" json:"username"`
	Type          string          `gorm:"type:varchar(10);not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Note          string          `gorm:"type:varchar(256)" json:"note"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entry"
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const PlanFreeTrial = "1 Week Free Trial"

// PlanDays maps plan name to validity in days.
var PlanDays = map[string]int{
	"1 Month":     30,
	"3 Months":    90,
	"6 Months":    180,
	PlanFreeTrial: 7,
}

// PlanOrder fixes the catalog display order for the paid plans.
var PlanOrder = []string{"1 Month", "3 Months", "6 Months"}

// Subscription is the active plan for a user. A user has at most one
// unexpired row; the expiry job removes stale ones.
type Subscription struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string          `gorm:"type:varchar(15);uniqueIndex;not null" json:"username"`
	Plan        string          `gorm:"type:varchar(32);not null" json:"plan"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	TxnID       string          `gorm:"type:varchar(64);not null" json:"txn_id"`
	PurchasedAt time.Time       `gorm:"not null" json:"purchased_at"`
	ExpiresAt   time.Time       `gorm:"not null;index" json:"expires_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AffiliateAccount tracks referral earnings separately from the main wallet;
// the referral count feeds the lifafa referral gate.
type AffiliateAccount struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string          `gorm:"type:varchar(15);uniqueIndex;not null" json:"username"`
	Earnings  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"earnings"`
	Referrals int             `gorm:"not null;default:0" json:"referrals"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AffiliateAccount) TableName() string {
	return "affiliate_account"
}

// TransferDay accumulates a sender's same-day transfer total for the daily
// cap. Day is formatted 2006-01-02 in server-local time.
type TransferDay struct {
	ID       uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string          `gorm:"type:varchar(15);not null;uniqueIndex:idx_transfer_day" json:"username"`
	Day      string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_transfer_day" json:"day"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
}

func (TransferDay) TableName() string {
	return "transfer_day"
}

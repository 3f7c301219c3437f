package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	LifafaStatusOpen     = "OPEN"
	LifafaStatusClosed   = "CLOSED"
	LifafaStatusRefunded = "REFUNDED"
)

const (
	LifafaTypeNormal  = "Normal"
	LifafaTypeSpecial = "Special"
)

var validLifafaTransitions = map[string][]string{
	LifafaStatusOpen: {LifafaStatusClosed, LifafaStatusRefunded},
}

// LifafaCanTransition reports whether a lifafa may move between the two
// states. CLOSED and REFUNDED are terminal.
func LifafaCanTransition(currentStatus, targetStatus string) bool {
	allowed, exists := validLifafaTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// LifafaRequirements are the gates a claimant must clear, snapshotted into
// the lifafa at creation time.
type LifafaRequirements struct {
	Channels  []string `json:"channels"`
	YouTube   string   `json:"youtube,omitempty"`
	Referrals int      `json:"referrals,omitempty"`
}

// Lifafa is a creator-funded group giveaway with Count equal-value claim
// slots. TotalAmount == PerClaim * Count holds from creation on; ClaimedCount
// only grows and never exceeds Count.
type Lifafa struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Creator      string          `gorm:"type:varchar(15);index;not null" json:"creator"`
	Type         string          `gorm:"type:varchar(16);not null;default:Normal" json:"type"`
	Title        string          `gorm:"type:varchar(128);not null" json:"title"`
	Comment      string          `gorm:"type:varchar(256)" json:"comment"`
	RedirectLink string          `gorm:"type:varchar(256)" json:"redirect_link"`
	AccessCode   *string         `gorm:"type:varchar(64)" json:"-"`
	SpecialUsers datatypes.JSON  `json:"special_users"`
	Requirements datatypes.JSON  `json:"requirements"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Count        int             `gorm:"not null" json:"count"`
	PerClaim     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"per_claim"`
	ClaimedCount int             `gorm:"not null;default:0" json:"claimed_count"`
	Status       string          `gorm:"type:varchar(10);index;not null;default:OPEN" json:"status"`
	CreatedAt    time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lifafa) TableName() string {
	return "lifafa"
}

// RemainingAmount is the unclaimed value still locked in the lifafa.
func (l *Lifafa) RemainingAmount() decimal.Decimal {
	remaining := l.Count - l.ClaimedCount
	if remaining <= 0 {
		return decimal.Zero
	}
	return l.PerClaim.Mul(decimal.NewFromInt(int64(remaining)))
}

func (l *Lifafa) IsFull() bool {
	return l.ClaimedCount >= l.Count
}

func (l *Lifafa) GetRequirements() (LifafaRequirements, error) {
	var req LifafaRequirements
	if len(l.Requirements) == 0 {
		return req, nil
	}
	err := json.Unmarshal(l.Requirements, &req)
	return req, err
}

func (l *Lifafa) GetSpecialUsers() ([]string, error) {
	if len(l.SpecialUsers) == 0 {
		return nil, nil
	}
	var users []string
	err := json.Unmarshal(l.SpecialUsers, &users)
	return users, err
}

// LifafaClaim records one settled claim slot. The composite unique index is
// the hard backstop for the already-claimed gate.
type LifafaClaim struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	LifafaCode string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_lifafa_claimant" json:"lifafa_code"`
	Username   string          `gorm:"type:varchar(15);not null;uniqueIndex:idx_lifafa_claimant" json:"username"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (LifafaClaim) TableName() string {
	return "lifafa_claim"
}

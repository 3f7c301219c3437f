package model

import (
	"time"
)

const (
	UserStatusActive = "active"
	UserStatusFrozen = "frozen"
	UserStatusBanned = "banned"
)

// User is an account holder. The username is the key every other record hangs
// off: wallets, ledgers, lifafas and subscriptions all reference it.
//
// Passwords are stored as submitted. The product this mirrors keeps them in
// the clear and the admin console edits the raw value; see DESIGN.md before
// reusing any of this for something real.
type User struct {
	ID                uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username          string     `gorm:"type:varchar(15);uniqueIndex;not null" json:"username"`
	Fullname          string     `gorm:"type:varchar(64);not null" json:"fullname"`
	Email             string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Mobile            string     `gorm:"type:varchar(10);uniqueIndex;not null" json:"mobile"`
	Password          string     `gorm:"type:varchar(64);not null" json:"-"`
	Status            string     `gorm:"type:varchar(10);not null;default:active" json:"status"`
	Plan              *string    `gorm:"type:varchar(32)" json:"plan"`
	PlanExpiry        *time.Time `json:"plan_expiry"`
	HasTakenFreeTrial bool       `gorm:"not null;default:false" json:"has_taken_free_trial"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

// CanTransact reports whether the user may move money. Frozen and banned
// accounts keep their records but every wallet operation is refused.
func (u *User) CanTransact() bool {
	return u.Status == UserStatusActive
}

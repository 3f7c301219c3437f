package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GlobalSettings is a singleton row (ID is always 1). Prices maps plan name
// to price; TelegramChannels is the global requirement list snapshotted into
// new lifafas.
type GlobalSettings struct {
	ID                uint64          `gorm:"primaryKey" json:"id"`
	UPIID             string          `gorm:"type:varchar(64)" json:"upi_id"`
	MinDeposit        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"min_deposit"`
	InstantPanelPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"instant_panel_price"`
	Prices            datatypes.JSON  `json:"prices"`
	TelegramChannels  datatypes.JSON  `json:"telegram_channels"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GlobalSettings) TableName() string {
	return "global_settings"
}

// BannedNumber is one entry in the mobile-number ban list.
type BannedNumber struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Mobile    string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"mobile"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (BannedNumber) TableName() string {
	return "banned_number"
}

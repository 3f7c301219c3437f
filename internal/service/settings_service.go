package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nextearnx/internal/config"
	"nextearnx/internal/model"
	"nextearnx/internal/repository"
)

var ErrTooManyChannels = errors.New("too many telegram channels")

// EffectiveSettings is the stored settings row merged over the built-in
// defaults, so a fresh deployment works before the admin saves anything.
type EffectiveSettings struct {
	UPIID             string                     `json:"upi_id"`
	MinDeposit        decimal.Decimal            `json:"min_deposit"`
	InstantPanelPrice decimal.Decimal            `json:"instant_panel_price"`
	Prices            map[string]decimal.Decimal `json:"prices"`
	TelegramChannels  []string                   `json:"telegram_channels"`
}

type SettingsService struct {
	db           *gorm.DB
	cfg          *config.Config
	settingsRepo *repository.SettingsRepository
}

func NewSettingsService(db *gorm.DB, cfg *config.Config) *SettingsService {
	return &SettingsService{
		db:           db,
		cfg:          cfg,
		settingsRepo: repository.NewSettingsRepository(db),
	}
}

func defaultSettings() *EffectiveSettings {
	return &EffectiveSettings{
		UPIID:             "nextearnx@upi",
		MinDeposit:        decimal.NewFromInt(60),
		InstantPanelPrice: decimal.NewFromInt(5),
		Prices: map[string]decimal.Decimal{
			"1 Month":  decimal.NewFromInt(59),
			"3 Months": decimal.NewFromInt(109),
			"6 Months": decimal.NewFromInt(159),
		},
		TelegramChannels: nil,
	}
}

// Effective returns the stored settings with defaults filling any field the
// admin has not set.
func (s *SettingsService) Effective(ctx context.Context) (*EffectiveSettings, error) {
	out := defaultSettings()

	stored, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return out, nil
	}

	if stored.UPIID != "" {
		out.UPIID = stored.UPIID
	}
	if stored.MinDeposit.IsPositive() {
		out.MinDeposit = stored.MinDeposit
	}
	if stored.InstantPanelPrice.IsPositive() {
		out.InstantPanelPrice = stored.InstantPanelPrice
	}
	if len(stored.Prices) > 0 {
		var prices map[string]decimal.Decimal
		if err := json.Unmarshal(stored.Prices, &prices); err != nil {
			return nil, fmt.Errorf("corrupt prices setting: %w", err)
		}
		if len(prices) > 0 {
			out.Prices = prices
		}
	}
	if len(stored.TelegramChannels) > 0 {
		var channels []string
		if err := json.Unmarshal(stored.TelegramChannels, &channels); err != nil {
			return nil, fmt.Errorf("corrupt channels setting: %w", err)
		}
		out.TelegramChannels = channels
	}

	return out, nil
}

type UpdateSettingsParams struct {
	UPIID             string                     `json:"upi_id"`
	MinDeposit        decimal.Decimal            `json:"min_deposit"`
	InstantPanelPrice decimal.Decimal            `json:"instant_panel_price"`
	Prices            map[string]decimal.Decimal `json:"prices"`
	TelegramChannels  []string                   `json:"telegram_channels"`
}

// Update replaces the stored settings row. The channel list is capped so the
// claim gate never has to verify an unbounded number of memberships.
func (s *SettingsService) Update(ctx context.Context, params *UpdateSettingsParams) error {
	if len(params.TelegramChannels) > s.cfg.Business.MaxGlobalChannels {
		return fmt.Errorf("%w: maximum is %d", ErrTooManyChannels, s.cfg.Business.MaxGlobalChannels)
	}

	row := &model.GlobalSettings{
		ID:                1,
		UPIID:             params.UPIID,
		MinDeposit:        params.MinDeposit,
		InstantPanelPrice: params.InstantPanelPrice,
	}
	if params.Prices != nil {
		pricesBytes, err := json.Marshal(params.Prices)
		if err != nil {
			return err
		}
		row.Prices = pricesBytes
	}
	if params.TelegramChannels != nil {
		channelsBytes, err := json.Marshal(params.TelegramChannels)
		if err != nil {
			return err
		}
		row.TelegramChannels = channelsBytes
	}

	return s.settingsRepo.Save(ctx, row)
}

package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()

	if s.UPIID == "" {
		t.Error("default UPI id is empty")
	}
	if !s.MinDeposit.Equal(decimal.NewFromInt(60)) {
		t.Errorf("default min deposit = %s, want 60", s.MinDeposit)
	}
	if !s.InstantPanelPrice.Equal(decimal.NewFromInt(5)) {
		t.Errorf("default panel unit price = %s, want 5", s.InstantPanelPrice)
	}

	wantPrices := map[string]int64{"1 Month": 59, "3 Months": 109, "6 Months": 159}
	for plan, price := range wantPrices {
		got, ok := s.Prices[plan]
		if !ok {
			t.Errorf("default prices missing %q", plan)
			continue
		}
		if !got.Equal(decimal.NewFromInt(price)) {
			t.Errorf("default price for %q = %s, want %d", plan, got, price)
		}
	}

	if len(s.TelegramChannels) != 0 {
		t.Errorf("default channels = %v, want none", s.TelegramChannels)
	}
}

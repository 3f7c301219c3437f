package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"nextearnx/internal/config"
)

func TestTransferAmountLimits(t *testing.T) {
	svc := &TransferService{cfg: &config.Config{
		Business: config.BusinessConfig{MinTransfer: 1, MaxDailyTransfer: 100},
	}}

	tests := []struct {
		name    string
		amount  decimal.Decimal
		wantErr error
	}{
		{"below minimum", decimal.NewFromFloat(0.5), ErrTransferTooSmall},
		{"zero", decimal.Zero, ErrTransferTooSmall},
		{"above cap", decimal.NewFromInt(101), ErrTransferTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(context.Background(), "sender", "9876543210", tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDailyCapAllows(t *testing.T) {
	cap := decimal.NewFromInt(100)

	tests := []struct {
		name      string
		sentToday decimal.Decimal
		amount    decimal.Decimal
		want      bool
	}{
		{"first transfer of the day", decimal.Zero, decimal.NewFromInt(60), true},
		{"second transfer within cap", decimal.NewFromInt(40), decimal.NewFromInt(60), true},
		{"second transfer crossing cap", decimal.NewFromInt(60), decimal.NewFromInt(60), false},
		{"already at cap", decimal.NewFromInt(100), decimal.NewFromInt(1), false},
		{"fractional overflow", decimal.NewFromFloat(99.50), decimal.NewFromFloat(0.51), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dailyCapAllows(tt.sentToday, tt.amount, cap); got != tt.want {
				t.Errorf("dailyCapAllows(%s, %s, %s) = %v, want %v",
					tt.sentToday, tt.amount, cap, got, tt.want)
			}
		})
	}
}

// Two equal transfers that each fit alone must not both fit once the first
// one has settled into the day counter.
func TestDailyCapCumulative(t *testing.T) {
	cap := decimal.NewFromInt(100)
	amount := decimal.NewFromInt(60)

	sentToday := decimal.Zero
	if !dailyCapAllows(sentToday, amount, cap) {
		t.Fatal("first transfer should fit under the cap")
	}
	sentToday = sentToday.Add(amount)
	if dailyCapAllows(sentToday, amount, cap) {
		t.Errorf("second transfer fits with %s already sent against cap %s", sentToday, cap)
	}
}

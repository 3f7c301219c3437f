package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"nextearnx/internal/config"
	"nextearnx/pkg/idgen"
)

func TestPlaceOrderValidation(t *testing.T) {
	svc := &PanelService{cfg: &config.Config{}}

	tests := []struct {
		name     string
		target   string
		quantity int
		wantErr  error
	}{
		{"empty target", "", 10, ErrTargetRequired},
		{"zero quantity", "@somechannel", 0, ErrQuantityTooSmall},
		{"negative quantity", "@somechannel", -5, ErrQuantityTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), "alice", tt.target, tt.quantity)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PlaceOrder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrderCost(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice decimal.Decimal
		quantity  int
		want      string
	}{
		{"default price", decimal.NewFromInt(5), 10, "50.00"},
		{"single unit", decimal.NewFromInt(5), 1, "5.00"},
		{"fractional price", decimal.NewFromFloat(2.50), 3, "7.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderCost(tt.unitPrice, tt.quantity)
			if got.StringFixed(2) != tt.want {
				t.Errorf("orderCost(%s, %d) = %s, want %s",
					tt.unitPrice, tt.quantity, got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestPanelOrderTxnIDFormat(t *testing.T) {
	id := "SERVICE_" + idgen.GenerateTransactionNo()
	if !strings.HasPrefix(id, "SERVICE_TXN") {
		t.Errorf("panel order txn id %q should carry the SERVICE_TXN prefix", id)
	}
}

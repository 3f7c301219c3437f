package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"nextearnx/internal/config"
)

// Validation runs before any storage access, so a bare service is enough to
// exercise the whole rejection chain.
func TestCreateLifafaValidation(t *testing.T) {
	svc := &LifafaService{cfg: &config.Config{
		Business: config.BusinessConfig{MinLifafaTotal: 10},
	}}

	tests := []struct {
		name    string
		params  CreateLifafaParams
		wantErr error
	}{
		{
			name: "missing title",
			params: CreateLifafaParams{
				Title:    "   ",
				PerClaim: decimal.NewFromInt(5),
				Count:    2,
			},
			wantErr: ErrTitleRequired,
		},
		{
			name: "per claim below a paisa",
			params: CreateLifafaParams{
				Title:    "Diwali",
				PerClaim: decimal.NewFromFloat(0.001),
				Count:    2,
			},
			wantErr: ErrPerClaimTooSmall,
		},
		{
			name: "zero per claim",
			params: CreateLifafaParams{
				Title:    "Diwali",
				PerClaim: decimal.Zero,
				Count:    2,
			},
			wantErr: ErrPerClaimTooSmall,
		},
		{
			name: "single slot",
			params: CreateLifafaParams{
				Title:    "Diwali",
				PerClaim: decimal.NewFromInt(5),
				Count:    1,
			},
			wantErr: ErrCountTooSmall,
		},
		{
			name: "total below minimum",
			params: CreateLifafaParams{
				Title:    "Diwali",
				PerClaim: decimal.NewFromFloat(0.5),
				Count:    4,
			},
			wantErr: ErrTotalTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "tester", &tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Title wins over per-claim, per-claim over count, count over total: the
// first broken rule is the one reported.
func TestCreateLifafaValidationOrder(t *testing.T) {
	svc := &LifafaService{cfg: &config.Config{
		Business: config.BusinessConfig{MinLifafaTotal: 10},
	}}

	_, err := svc.Create(context.Background(), "tester", &CreateLifafaParams{
		Title:    "",
		PerClaim: decimal.Zero,
		Count:    0,
	})
	if !errors.Is(err, ErrTitleRequired) {
		t.Errorf("error = %v, want %v first", err, ErrTitleRequired)
	}

	_, err = svc.Create(context.Background(), "tester", &CreateLifafaParams{
		Title:    "Diwali",
		PerClaim: decimal.Zero,
		Count:    0,
	})
	if !errors.Is(err, ErrPerClaimTooSmall) {
		t.Errorf("error = %v, want %v before count check", err, ErrPerClaimTooSmall)
	}
}

func TestRequirementsNotMetErrorCarriesVerdicts(t *testing.T) {
	eligibility := EvaluateGates(GateInput{Banned: true})
	err := error(&RequirementsNotMetError{Eligibility: eligibility})

	var unmet *RequirementsNotMetError
	if !errors.As(err, &unmet) {
		t.Fatal("errors.As failed to unwrap RequirementsNotMetError")
	}
	if unmet.Eligibility.Gates[GateBan].Status != GateFail {
		t.Error("wrapped eligibility lost the ban verdict")
	}
}

package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"nextearnx/internal/model"
)

func entry(txnID, typ string, amount float64) *model.LedgerEntry {
	return &model.LedgerEntry{
		TxnID:  txnID,
		Type:   typ,
		Amount: decimal.NewFromFloat(amount),
	}
}

func TestDedupEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []*model.LedgerEntry
		wantIDs []string
	}{
		{
			name: "exact duplicates collapse",
			entries: []*model.LedgerEntry{
				entry("DEPOSIT_ABC12345", model.EntryTypeCredit, 100),
				entry("DEPOSIT_ABC12345", model.EntryTypeCredit, 100),
			},
			wantIDs: []string{"DEPOSIT_ABC12345"},
		},
		{
			name: "same id different type kept",
			entries: []*model.LedgerEntry{
				entry("ADJ_1", model.EntryTypeCredit, 50),
				entry("ADJ_1", model.EntryTypeDebit, 50),
			},
			wantIDs: []string{"ADJ_1", "ADJ_1"},
		},
		{
			name: "same id different amount kept",
			entries: []*model.LedgerEntry{
				entry("ADJ_2", model.EntryTypeCredit, 50),
				entry("ADJ_2", model.EntryTypeCredit, 51),
			},
			wantIDs: []string{"ADJ_2", "ADJ_2"},
		},
		{
			name: "first occurrence wins",
			entries: []*model.LedgerEntry{
				entry("A", model.EntryTypeCredit, 1),
				entry("B", model.EntryTypeDebit, 2),
				entry("A", model.EntryTypeCredit, 1),
				entry("C", model.EntryTypeCredit, 3),
			},
			wantIDs: []string{"A", "B", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupEntries(tt.entries)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].TxnID != want {
					t.Errorf("entry %d TxnID = %s, want %s", i, got[i].TxnID, want)
				}
			}
		})
	}
}

func TestNewAdjustmentTxnID(t *testing.T) {
	credit := NewAdjustmentTxnID(model.EntryTypeCredit)
	if !strings.HasPrefix(credit, "ADMIN_CREDIT_") {
		t.Errorf("credit txn id = %q, want ADMIN_CREDIT_ prefix", credit)
	}
	debit := NewAdjustmentTxnID(model.EntryTypeDebit)
	if !strings.HasPrefix(debit, "ADMIN_DEBIT_") {
		t.Errorf("debit txn id = %q, want ADMIN_DEBIT_ prefix", debit)
	}
	if credit == debit {
		t.Error("adjustment ids must be unique")
	}
}

func TestDashboardStatsJSON(t *testing.T) {
	stats := DashboardStats{
		Users:         3,
		OpenLifafas:   1,
		TotalDeposits: decimal.New(1250, -2),
	}

	out, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	// Money fields serialize as decimal strings everywhere in the API.
	if !strings.Contains(string(out), `"total_deposits":"12.5"`) {
		t.Errorf("dashboard JSON = %s, want total_deposits as decimal string", out)
	}
}

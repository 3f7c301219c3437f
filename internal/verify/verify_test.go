package verify

import (
	"context"
	"testing"
)

func TestFormatPaymentVerifier(t *testing.T) {
	tests := []struct {
		txnID string
		want  bool
	}{
		{"ABCD1234", true},
		{"abcdefgh12345678", true},
		{"1234567", false},
		{"", false},
		{"ABCD 1234", false},
		{"ABCD-12345", false},
	}

	v := NewFormatPaymentVerifier()
	for _, tt := range tests {
		t.Run(tt.txnID, func(t *testing.T) {
			got, err := v.Verify(context.Background(), tt.txnID)
			if err != nil {
				t.Fatalf("Verify(%q): %v", tt.txnID, err)
			}
			if got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.txnID, got, tt.want)
			}
		})
	}
}

func TestStubChannelOracleAlwaysMember(t *testing.T) {
	member, err := NewStubChannelOracle().IsMember(context.Background(), "tester", "@somechannel")
	if err != nil {
		t.Fatalf("IsMember: %v", err)
	}
	if !member {
		t.Error("stub oracle reported non-member")
	}
}

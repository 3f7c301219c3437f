package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func TestLifafaCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{LifafaStatusOpen, LifafaStatusClosed, true},
		{LifafaStatusOpen, LifafaStatusRefunded, true},
		{LifafaStatusClosed, LifafaStatusOpen, false},
		{LifafaStatusClosed, LifafaStatusRefunded, false},
		{LifafaStatusRefunded, LifafaStatusOpen, false},
		{LifafaStatusRefunded, LifafaStatusClosed, false},
		{"BOGUS", LifafaStatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := LifafaCanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("LifafaCanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestLifafaRemainingAmount(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		claimed int
		per     string
		want    string
	}{
		{"untouched", 5, 0, "2.50", "12.5"},
		{"partially claimed", 5, 3, "2.50", "5"},
		{"fully claimed", 5, 5, "2.50", "0"},
		{"overshoot clamps to zero", 5, 6, "2.50", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			per, _ := decimal.NewFromString(tt.per)
			l := &Lifafa{Count: tt.count, ClaimedCount: tt.claimed, PerClaim: per}
			want, _ := decimal.NewFromString(tt.want)
			if got := l.RemainingAmount(); !got.Equal(want) {
				t.Errorf("RemainingAmount() = %s, want %s", got, want)
			}
		})
	}
}

func TestLifafaIsFull(t *testing.T) {
	l := &Lifafa{Count: 2, ClaimedCount: 1}
	if l.IsFull() {
		t.Error("IsFull() = true with a free slot")
	}
	l.ClaimedCount = 2
	if !l.IsFull() {
		t.Error("IsFull() = false with no free slots")
	}
}

func TestLifafaGetRequirements(t *testing.T) {
	l := &Lifafa{}
	reqs, err := l.GetRequirements()
	if err != nil {
		t.Fatalf("GetRequirements on empty: %v", err)
	}
	if len(reqs.Channels) != 0 || reqs.Referrals != 0 {
		t.Errorf("empty requirements decoded as %+v", reqs)
	}

	l.Requirements = datatypes.JSON(`{"channels":["@a","@b"],"referrals":3}`)
	reqs, err = l.GetRequirements()
	if err != nil {
		t.Fatalf("GetRequirements: %v", err)
	}
	if len(reqs.Channels) != 2 || reqs.Channels[0] != "@a" {
		t.Errorf("channels = %v, want [@a @b]", reqs.Channels)
	}
	if reqs.Referrals != 3 {
		t.Errorf("referrals = %d, want 3", reqs.Referrals)
	}
}

func TestLifafaGetSpecialUsers(t *testing.T) {
	l := &Lifafa{}
	users, err := l.GetSpecialUsers()
	if err != nil {
		t.Fatalf("GetSpecialUsers on empty: %v", err)
	}
	if users != nil {
		t.Errorf("empty special users = %v, want nil", users)
	}

	l.SpecialUsers = datatypes.JSON(`["9876543210","9123456789"]`)
	users, err = l.GetSpecialUsers()
	if err != nil {
		t.Fatalf("GetSpecialUsers: %v", err)
	}
	if len(users) != 2 || users[1] != "9123456789" {
		t.Errorf("special users = %v", users)
	}
}

package model

import (
	"testing"
	"time"
)

func TestPlanDays(t *testing.T) {
	tests := []struct {
		plan string
		days int
	}{
		{"1 Month", 30},
		{"3 Months", 90},
		{"6 Months", 180},
		{PlanFreeTrial, 7},
	}

	for _, tt := range tests {
		if got := PlanDays[tt.plan]; got != tt.days {
			t.Errorf("PlanDays[%q] = %d, want %d", tt.plan, got, tt.days)
		}
	}

	for _, plan := range PlanOrder {
		if _, known := PlanDays[plan]; !known {
			t.Errorf("PlanOrder entry %q has no duration", plan)
		}
	}
}

func TestSubscriptionExpired(t *testing.T) {
	now := time.Now()
	sub := &Subscription{ExpiresAt: now.Add(time.Hour)}
	if sub.Expired(now) {
		t.Error("Expired() = true an hour before expiry")
	}
	if !sub.Expired(now.Add(2 * time.Hour)) {
		t.Error("Expired() = false an hour after expiry")
	}
}

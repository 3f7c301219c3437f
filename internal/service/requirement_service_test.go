package service

import (
	"testing"
)

func strptr(s string) *string { return &s }

func TestEvaluateGatesAllPass(t *testing.T) {
	out := EvaluateGates(GateInput{Mobile: "9876543210"})

	if !out.CanClaim {
		t.Fatal("CanClaim = false, want true with no gates configured")
	}
	for name, verdict := range out.Gates {
		if verdict.Status != GatePass {
			t.Errorf("gate %s = %s, want pass", name, verdict.Status)
		}
	}
}

func TestEvaluateGatesTerminalFailures(t *testing.T) {
	tests := []struct {
		name     string
		input    GateInput
		failGate string
	}{
		{
			name:     "already claimed",
			input:    GateInput{AlreadyClaimed: true},
			failGate: GateAlreadyClaimed,
		},
		{
			name:     "banned number",
			input:    GateInput{Banned: true, Mobile: "9876543210"},
			failGate: GateBan,
		},
		{
			name: "not on allow list",
			input: GateInput{
				Mobile:       "9876543210",
				SpecialUsers: []string{"1111111111", "2222222222"},
			},
			failGate: GateSpecialUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateGates(tt.input)

			if out.CanClaim {
				t.Fatal("CanClaim = true, want false")
			}
			verdict := out.Gates[tt.failGate]
			if verdict.Status != GateFail {
				t.Errorf("gate %s = %s, want fail", tt.failGate, verdict.Status)
			}
			if !verdict.Terminal {
				t.Errorf("gate %s not terminal, want terminal", tt.failGate)
			}
		})
	}
}

// A terminal failure must stop evaluation: later gates stay pending.
func TestEvaluateGatesShortCircuit(t *testing.T) {
	out := EvaluateGates(GateInput{
		AlreadyClaimed:    true,
		Banned:            true,
		RequiredReferrals: 5,
	})

	if out.Gates[GateAlreadyClaimed].Status != GateFail {
		t.Errorf("already_claimed = %s, want fail", out.Gates[GateAlreadyClaimed].Status)
	}
	for _, name := range []string{GateBan, GateAccessCode, GateChannels, GateReferrals} {
		if out.Gates[name].Status != GatePending {
			t.Errorf("gate %s = %s, want pending after terminal failure", name, out.Gates[name].Status)
		}
	}
}

func TestEvaluateGatesAccessCode(t *testing.T) {
	tests := []struct {
		name       string
		required   *string
		submitted  string
		wantStatus string
		wantClaim  bool
	}{
		{"no code required", nil, "", GatePass, true},
		{"empty code required", strptr(""), "", GatePass, true},
		{"code missing", strptr("secret"), "", GatePending, false},
		{"code wrong", strptr("secret"), "nope", GateFail, false},
		{"code right", strptr("secret"), "secret", GatePass, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateGates(GateInput{
				Mobile:        "9876543210",
				AccessCode:    tt.required,
				SubmittedCode: tt.submitted,
			})

			verdict := out.Gates[GateAccessCode]
			if verdict.Status != tt.wantStatus {
				t.Errorf("access_code = %s, want %s", verdict.Status, tt.wantStatus)
			}
			if verdict.Terminal {
				t.Error("access code verdicts must be retryable, got terminal")
			}
			if out.CanClaim != tt.wantClaim {
				t.Errorf("CanClaim = %v, want %v", out.CanClaim, tt.wantClaim)
			}
		})
	}
}

func TestEvaluateGatesSpecialUserOnList(t *testing.T) {
	out := EvaluateGates(GateInput{
		Mobile:       "9876543210",
		SpecialUsers: []string{"1111111111", "9876543210"},
	})

	if !out.CanClaim {
		t.Fatal("CanClaim = false, want true for listed mobile")
	}
	if out.Gates[GateSpecialUser].Status != GatePass {
		t.Errorf("special_user = %s, want pass", out.Gates[GateSpecialUser].Status)
	}
}

func TestEvaluateGatesChannels(t *testing.T) {
	tests := []struct {
		name       string
		member     map[string]bool
		wantStatus string
	}{
		{"all joined", map[string]bool{"@a": true, "@b": true}, GatePass},
		{"one missing", map[string]bool{"@a": true, "@b": false}, GateFail},
		{"none known", nil, GateFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateGates(GateInput{
				Mobile:           "9876543210",
				RequiredChannels: []string{"@a", "@b"},
				ChannelMember:    tt.member,
			})
			if got := out.Gates[GateChannels].Status; got != tt.wantStatus {
				t.Errorf("channels = %s, want %s", got, tt.wantStatus)
			}
		})
	}
}

func TestEvaluateGatesReferrals(t *testing.T) {
	tests := []struct {
		name       string
		required   int
		have       int
		wantStatus string
	}{
		{"not required", 0, 0, GatePass},
		{"enough", 3, 3, GatePass},
		{"more than enough", 3, 10, GatePass},
		{"short", 3, 2, GateFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateGates(GateInput{
				Mobile:            "9876543210",
				RequiredReferrals: tt.required,
				ReferralCount:     tt.have,
			})
			if got := out.Gates[GateReferrals].Status; got != tt.wantStatus {
				t.Errorf("referrals = %s, want %s", got, tt.wantStatus)
			}
		})
	}
}

// A retryable failure must not bleed into other gates: the rest still
// evaluate so the caller can show the full checklist.
func TestEvaluateGatesRetryableFailureKeepsEvaluating(t *testing.T) {
	out := EvaluateGates(GateInput{
		Mobile:            "9876543210",
		AccessCode:        strptr("secret"),
		SubmittedCode:     "wrong",
		RequiredReferrals: 2,
		ReferralCount:     5,
	})

	if out.CanClaim {
		t.Fatal("CanClaim = true, want false")
	}
	if out.Gates[GateAccessCode].Status != GateFail {
		t.Errorf("access_code = %s, want fail", out.Gates[GateAccessCode].Status)
	}
	if out.Gates[GateReferrals].Status != GatePass {
		t.Errorf("referrals = %s, want pass alongside failed access code", out.Gates[GateReferrals].Status)
	}
}

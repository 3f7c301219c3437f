package service

import "testing"

func TestUsernameRegex(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"rahul_123", true},
		{"A", true},
		{"fifteen_chars__", true},
		{"sixteen_chars___", false},
		{"", false},
		{"has space", false},
		{"has-dash", false},
		{"has.dot", false},
	}

	for _, tt := range tests {
		if got := usernameRegex.MatchString(tt.username); got != tt.want {
			t.Errorf("username %q matched = %v, want %v", tt.username, got, tt.want)
		}
	}
}

func TestGmailRegex(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"someone@gmail.com", true},
		{"first.last+tag@gmail.com", true},
		{"someone@yahoo.com", false},
		{"someone@gmail.co", false},
		{"@gmail.com", false},
		{"someone@", false},
	}

	for _, tt := range tests {
		if got := gmailRegex.MatchString(tt.email); got != tt.want {
			t.Errorf("email %q matched = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestMobileRegex(t *testing.T) {
	tests := []struct {
		mobile string
		want   bool
	}{
		{"9876543210", true},
		{"987654321", false},
		{"98765432100", false},
		{"98765abc10", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := mobileRegex.MatchString(tt.mobile); got != tt.want {
			t.Errorf("mobile %q matched = %v, want %v", tt.mobile, got, tt.want)
		}
	}
}

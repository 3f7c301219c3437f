package idgen

import (
	"strings"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 10000; i++ {
		id := NextID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestNextIDMonotonic(t *testing.T) {
	prev := NextID()
	for i := 0; i < 1000; i++ {
		id := NextID()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestGenerateTransactionNo(t *testing.T) {
	no := GenerateTransactionNo()
	if !strings.HasPrefix(no, "TXN") {
		t.Errorf("transaction no %q missing TXN prefix", no)
	}
	// TXN + 14-digit timestamp + 8-digit suffix
	if len(no) != 3+14+8 {
		t.Errorf("transaction no %q has length %d, want %d", no, len(no), 3+14+8)
	}
}

func TestGenerateLifafaCode(t *testing.T) {
	tests := []struct {
		creator    string
		wantPrefix string
	}{
		{"rahul_123", "RAH"},
		{"ab", "AB"},
		{"x", "X"},
	}

	for _, tt := range tests {
		t.Run(tt.creator, func(t *testing.T) {
			code := GenerateLifafaCode(tt.creator)
			if !strings.HasPrefix(code, tt.wantPrefix) {
				t.Errorf("code %q missing prefix %q", code, tt.wantPrefix)
			}
			// prefix + 7 random chars + 4 timestamp digits
			if len(code) != len(tt.wantPrefix)+7+4 {
				t.Errorf("code %q has length %d, want %d", code, len(code), len(tt.wantPrefix)+7+4)
			}
			suffix := code[len(code)-4:]
			for _, r := range suffix {
				if r < '0' || r > '9' {
					t.Errorf("code suffix %q contains non-digit %q", suffix, r)
					break
				}
			}
		})
	}
}

func TestGenerateLifafaCodeSpread(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		seen[GenerateLifafaCode("tester")] = struct{}{}
	}
	// A few timestamp-suffix collisions are fine; wholesale repetition means
	// the random body is broken.
	if len(seen) < 990 {
		t.Errorf("only %d distinct codes out of 1000", len(seen))
	}
}

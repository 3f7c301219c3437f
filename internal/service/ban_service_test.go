package service

import (
	"reflect"
	"testing"
)

func TestParseMobiles(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "comma separated",
			text: "9876543210,9123456789",
			want: []string{"9876543210", "9123456789"},
		},
		{
			name: "mixed separators",
			text: "9876543210, 9123456789.9000000001\n9000000002",
			want: []string{"9876543210", "9123456789", "9000000001", "9000000002"},
		},
		{
			name: "duplicates dropped order kept",
			text: "9876543210 9123456789 9876543210",
			want: []string{"9876543210", "9123456789"},
		},
		{
			name: "junk filtered",
			text: "hello 12345 98765432101 9876543210 98765abc10",
			want: []string{"9876543210"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "only junk",
			text: "not, a, number",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMobiles(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMobiles(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

package repository

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestTranslateCreateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"duplicated key becomes duplicate code", gorm.ErrDuplicatedKey, ErrDuplicateCode},
		{"wrapped duplicated key", fmt.Errorf("insert failed: %w", gorm.ErrDuplicatedKey), ErrDuplicateCode},
		{"other errors pass through", gorm.ErrInvalidData, gorm.ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateCreateError(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("translateCreateError() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("translateCreateError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

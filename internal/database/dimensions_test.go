package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckDimensions(t *testing.T) {
	tests := []struct {
		name    string
		have    int
		want    int
		stored  int64
		wantErr bool
	}{
		{"same size", 1536, 1536, 10, false},
		{"empty table can resize", 1536, 768, 0, false},
		{"populated table cannot resize", 1536, 768, 3, true},
		{"non-positive size", 1536, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkDimensions(tt.have, tt.want, tt.stored)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func TestCheckDimensions_MessageNamesBothSizes(t *testing.T) {
	err := checkDimensions(1536, 768, 1)
	assert.ErrorContains(t, err, "has 1536 dimensions but EMBEDDING_DIMENSIONS is 768")
}

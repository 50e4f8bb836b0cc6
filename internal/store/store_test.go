package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListGamesParams_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         ListGamesParams
		wantLimit  int
		wantOffset int
	}{
		{"defaults", ListGamesParams{}, DefaultPageSize, 0},
		{"clamps limit", ListGamesParams{Limit: 5000}, MaxPageSize, 0},
		{"negative offset", ListGamesParams{Limit: 10, Offset: -3}, 10, 0},
		{"kept", ListGamesParams{Limit: 20, Offset: 40}, 20, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/validation"
)

type toggleRequest struct {
	GameID         int64  `json:"game_id" validate:"gt=0"`
	CollectionType string `json:"collection_type" validate:"required,collection"`
	Title          string `json:"title,omitempty" validate:"max=10"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(toggleRequest{GameID: 42, CollectionType: "favorite"}))
	assert.NoError(t, v.Validate(toggleRequest{GameID: 1, CollectionType: "owned"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       toggleRequest
		wantField string
		wantMsg   string
	}{
		{"zero game id", toggleRequest{GameID: 0, CollectionType: "favorite"}, "game_id", "must be greater than 0"},
		{"unknown collection", toggleRequest{GameID: 1, CollectionType: "wishlist"}, "collection_type", "must be one of: favorite owned"},
		{"missing collection", toggleRequest{GameID: 1}, "collection_type", "is required"},
		{"long title", toggleRequest{GameID: 1, CollectionType: "owned", Title: "far too long a title"}, "title", "must not exceed 10 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var de *domainerrors.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())

			details, ok := de.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

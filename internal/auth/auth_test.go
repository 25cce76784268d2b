package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"social/internal/models"
)

func TestCheck(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice"}

	tests := []struct {
		name   string
		target *models.User
		id     Identity
		want   Decision
	}{
		{"owner", alice, Identity{UserID: 1, Username: "alice"}, OK},
		{"missing user", nil, Identity{UserID: 1}, UserNotFound},
		{"missing user and anonymous", nil, Identity{}, UserNotFound},
		{"anonymous", alice, Identity{}, NotLoggedIn},
		{"other user", alice, Identity{UserID: 2, Username: "bob"}, IdentityMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.target, tt.id))
		})
	}
}

func TestDecisionFlash(t *testing.T) {
	assert.Empty(t, OK.Flash())
	for _, d := range []Decision{UserNotFound, NotLoggedIn, IdentityMismatch} {
		assert.NotEmpty(t, d.Flash(), d.String())
	}
}

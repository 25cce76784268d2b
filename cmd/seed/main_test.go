package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social/internal/db"
	"social/internal/models"
)

func TestBefriend(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)

	alice, err := models.CreateUser(ctx, database, models.NewUser{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	bob, err := models.CreateUser(ctx, database, models.NewUser{Username: "bob", PasswordHash: "x"})
	require.NoError(t, err)

	require.NoError(t, befriend(ctx, database, alice, bob))
	assert.NoError(t, befriend(ctx, database, alice, bob), "duplicate edge is skipped")
	assert.NoError(t, befriend(ctx, database, alice, alice), "self edge is skipped")

	// other failures still surface
	require.NoError(t, database.Close())
	assert.Error(t, befriend(ctx, database, bob, alice))
}

package store

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRegisterNormalizesEmail(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user, err := repo.Users().Register(ctx, &User{
		Email:        "  Amuro@Federation.Example ",
		Username:     "amuro",
		PasswordHash: "hash",
		IsActive:     true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "amuro@federation.example", user.Email)
}

func TestUsersGetByIdentifier(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	seeded := seedUser(t, repo, "char@zeon.example", false)

	t.Run("by email", func(t *testing.T) {
		user, err := repo.Users().GetByIdentifier(ctx, "char@zeon.example")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("by email case insensitive", func(t *testing.T) {
		user, err := repo.Users().GetByIdentifier(ctx, "CHAR@Zeon.Example")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("by username", func(t *testing.T) {
		user, err := repo.Users().GetByIdentifier(ctx, "char")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("by id", func(t *testing.T) {
		user, err := repo.Users().GetByIdentifier(ctx, seeded.ID.String())
		require.NoError(t, err)
		assert.Equal(t, seeded.Email, user.Email)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := repo.Users().GetByIdentifier(ctx, "garma@zeon.example")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersLoginTracking(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "kai@federation.example", false)

	require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, user))

	reloaded, err := repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.LoginAttempts)
	assert.NotNil(t, reloaded.LoginAttemptAt)

	require.NoError(t, repo.Users().TrackSucccessfulLogin(ctx, reloaded))

	reloaded, err = repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.LoginAttempts)
	assert.Nil(t, reloaded.LoginAttemptAt)
	assert.NotNil(t, reloaded.LoggedInAt)
}

func TestUsersUpdateProfileSkipsZeroFields(t *testing.T) {
	repo := newTestManager(t)
	ctx := context.Background()

	user := seedUser(t, repo, "hayato@federation.example", false)

	_, err := repo.Users().UpdateProfile(ctx, user.ID, &User{
		FullName: "Hayato Kobayashi",
		Address:  "White Base",
	})
	require.NoError(t, err)

	reloaded, err := repo.Users().GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, "Hayato Kobayashi", reloaded.FullName)
	assert.Equal(t, "White Base", reloaded.Address)
	assert.Equal(t, user.Email, reloaded.Email)
	assert.Equal(t, user.PasswordHash, reloaded.PasswordHash)
}

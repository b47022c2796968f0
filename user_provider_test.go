package store

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserTracker struct {
	user       *User
	attempted  int
	successful int
}

func (s *stubUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	if s.user == nil {
		return nil, repository.NewRecordNotFound()
	}
	return s.user, nil
}

func (s *stubUserTracker) TrackAttemptedLogin(ctx context.Context, user *User) error {
	s.attempted++
	return nil
}

func (s *stubUserTracker) TrackSucccessfulLogin(ctx context.Context, user *User) error {
	s.successful++
	return nil
}

func newVerifiableUser(t *testing.T, password string) *User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	return &User{
		ID:           uuid.New(),
		Email:        "amuro@federation.example",
		Username:     "amuro",
		PasswordHash: hash,
		IsActive:     true,
	}
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		tracker := &stubUserTracker{user: newVerifiableUser(t, "rx-78-2-gundam")}
		provider := NewUserProvider(tracker)

		identity, err := provider.VerifyIdentity(ctx, "amuro", "rx-78-2-gundam")
		require.NoError(t, err)
		assert.Equal(t, tracker.user.ID.String(), identity.ID())
		assert.Equal(t, tracker.user.Email, identity.Email())
		assert.Equal(t, 1, tracker.successful)
		assert.Equal(t, 0, tracker.attempted)
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		tracker := &stubUserTracker{user: newVerifiableUser(t, "rx-78-2-gundam")}
		provider := NewUserProvider(tracker)

		_, err := provider.VerifyIdentity(ctx, "amuro", "zaku-ii")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMismatchedHashAndPassword)
		assert.Equal(t, 1, tracker.attempted)
		assert.Equal(t, 0, tracker.successful)
	})

	t.Run("unknown user answers like a bad password", func(t *testing.T) {
		provider := NewUserProvider(&stubUserTracker{})

		_, err := provider.VerifyIdentity(ctx, "nobody", "whatever")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMismatchedHashAndPassword)
	})

	t.Run("inactive user is refused", func(t *testing.T) {
		user := newVerifiableUser(t, "rx-78-2-gundam")
		user.IsActive = false
		provider := NewUserProvider(&stubUserTracker{user: user})

		_, err := provider.VerifyIdentity(ctx, "amuro", "rx-78-2-gundam")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInactiveUser)
	})

	t.Run("cooldown blocks repeated attempts", func(t *testing.T) {
		user := newVerifiableUser(t, "rx-78-2-gundam")
		now := time.Now()
		user.LoginAttempts = MaxLoginAttempts + 1
		user.LoginAttemptAt = &now
		provider := NewUserProvider(&stubUserTracker{user: user})

		_, err := provider.VerifyIdentity(ctx, "amuro", "rx-78-2-gundam")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTooManyLoginAttempts)
	})

	t.Run("cooldown expires after the window", func(t *testing.T) {
		user := newVerifiableUser(t, "rx-78-2-gundam")
		stale := time.Now().Add(-25 * time.Hour)
		user.LoginAttempts = MaxLoginAttempts + 1
		user.LoginAttemptAt = &stale
		provider := NewUserProvider(&stubUserTracker{user: user})

		_, err := provider.VerifyIdentity(ctx, "amuro", "rx-78-2-gundam")
		assert.NoError(t, err)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("active user", func(t *testing.T) {
		tracker := &stubUserTracker{user: newVerifiableUser(t, "pw-irrelevant")}
		provider := NewUserProvider(tracker)

		identity, err := provider.FindIdentityByIdentifier(ctx, "amuro")
		require.NoError(t, err)
		assert.Equal(t, tracker.user.Username, identity.Username())
	})

	t.Run("inactive user", func(t *testing.T) {
		user := newVerifiableUser(t, "pw-irrelevant")
		user.IsActive = false
		provider := NewUserProvider(&stubUserTracker{user: user})

		_, err := provider.FindIdentityByIdentifier(ctx, "amuro")
		assert.ErrorIs(t, err, ErrInactiveUser)
	})
}

package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	now := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)
	return NewStoreWithClock(func() time.Time { return now })
}

func TestCreateAndLookup(t *testing.T) {
	s := newTestStore()

	user, err := s.Create("sara", "Sara@Example.com", "hash", "staff")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "sara@example.com", user.Email, "emails are stored lowercased")

	got, err := s.GetByEmail("SARA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.GetByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateEmail(t *testing.T) {
	s := newTestStore()

	_, err := s.Create("sara", "sara@example.com", "hash", "staff")
	require.NoError(t, err)

	_, err = s.Create("other", "SARA@EXAMPLE.COM", "hash2", "owner")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdatePassword(t *testing.T) {
	s := newTestStore()

	user, err := s.Create("sara", "sara@example.com", "old", "staff")
	require.NoError(t, err)

	require.NoError(t, s.UpdatePassword(user.ID, "new"))
	got, err := s.GetByEmail(user.Email)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Password)

	assert.ErrorIs(t, s.UpdatePassword(99, "x"), ErrNotFound)
}

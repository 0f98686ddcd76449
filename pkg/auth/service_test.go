package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/db"
	"github.com/R0eii/Tucan/pkg/models"
)

func setupAuth(t *testing.T) *Service {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	return NewService(store, []byte("test-secret"), 24*time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuth(t)

	require.NoError(t, svc.Register("Admin", "admin@example.com", "hunter22"))

	token, user, err := svc.Login("admin@example.com", "hunter22")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.Equal(t, "Admin", user.Name)
	assert.Equal(t, models.DefaultRole, user.Role)
	assert.NotEmpty(t, user.ID)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := setupAuth(t)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "a@b.com", "pw"},
		{"missing email", "A", "", "pw"},
		{"missing password", "A", "a@b.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrMissingFields)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupAuth(t)

	require.NoError(t, svc.Register("Admin", "admin@example.com", "hunter22"))

	err := svc.Register("Other", "admin@example.com", "different")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuth(t)

	require.NoError(t, svc.Register("Admin", "admin@example.com", "hunter22"))

	// unknown email and wrong password fail identically, so the response
	// cannot be used to probe which accounts exist
	_, _, unknownErr := svc.Login("ghost@example.com", "hunter22")
	_, _, wrongPwErr := svc.Login("admin@example.com", "wrong")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPwErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongPwErr)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := setupAuth(t)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a token", "not.a.token"},
		{"wrong secret", mustToken(t, []byte("other-secret"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := setupAuth(t)

	require.NoError(t, svc.Register("Admin", "admin@example.com", "hunter22"))

	token, _, err := svc.Login("admin@example.com", "hunter22")
	require.NoError(t, err)

	// valid now
	_, err = svc.Verify(token)
	require.NoError(t, err)

	// expired once the clock moves past the TTL
	svc.nowFn = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	svc := setupAuth(t)

	require.NoError(t, svc.Register("Admin", "admin@example.com", "hunter22"))
	require.NoError(t, svc.Register("Other", "other@example.com", "hunter22"))

	_, user, err := svc.Login("admin@example.com", "hunter22")
	require.NoError(t, err)

	t.Run("happy path", func(t *testing.T) {
		updated, err := svc.UpdateProfile(user.ID, "New Name", "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.Name)
		assert.Equal(t, "new@example.com", updated.Email)

		me, err := svc.Me(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", me.Email)
	})

	t.Run("keeping own email is fine", func(t *testing.T) {
		_, err := svc.UpdateProfile(user.ID, "New Name", "new@example.com")
		assert.NoError(t, err)
	})

	t.Run("someone else's email conflicts", func(t *testing.T) {
		_, err := svc.UpdateProfile(user.ID, "New Name", "other@example.com")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("empty fields rejected", func(t *testing.T) {
		_, err := svc.UpdateProfile(user.ID, "", "new@example.com")
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateProfile("no-such-id", "Name", "free@example.com")
		assert.ErrorIs(t, err, db.ErrUserNotFound)
	})
}

func mustToken(t *testing.T, secret []byte) string {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "other.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	other := NewService(store, secret, time.Hour, zap.NewNop())
	require.NoError(t, other.Register("X", "x@example.com", "pw"))

	token, _, err := other.Login("x@example.com", "pw")
	require.NoError(t, err)

	return token
}

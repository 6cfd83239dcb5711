package auth

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	store, err := OpenFileStore(path)
	require.NoError(t, err)
	return NewService(store, NewPasswordHasher(), zerolog.Nop()), path
}

func TestRegisterCreatesAccount(t *testing.T) {
	svc, _ := newTestService(t)

	acc, err := svc.Register("alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", acc.Email)
	assert.Regexp(t, regexp.MustCompile(`^[a-z]{4}$`), acc.Username)
	assert.NotEqual(t, "hunter22", acc.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("", "hunter22")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Register("alice@example.com", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Register("not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Register("alice@example.com", "other-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterMintsDistinctUsernames(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Register("alice@example.com", "hunter22")
	require.NoError(t, err)
	b, err := svc.Register("bob@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, a.Username, b.Username)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Register("alice@example.com", "hunter22")
	require.NoError(t, err)

	acc, err := svc.Login("alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, created.Username, acc.Username)

	_, err = svc.Login("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountsSurviveReopen(t *testing.T) {
	svc, path := newTestService(t)

	created, err := svc.Register("alice@example.com", "hunter22")
	require.NoError(t, err)

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	acc, err := reopened.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.Username, acc.Username)
	assert.Equal(t, created.PasswordHash, acc.PasswordHash)
	assert.True(t, reopened.UsernameExists(created.Username))
}

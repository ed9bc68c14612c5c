package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/innospot/capability-hub/internal/integration/domain"
	apperrors "github.com/innospot/capability-hub/pkg/errors"
)

func TestCreateAPIKey_Success(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	var created *domain.APIKey
	r.keys.On("Create", ctx, mock.AnythingOfType("*domain.APIKey")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.APIKey)
	}).Return(nil)

	key, err := svc.CreateAPIKey(ctx, "user-001", "int-001", CreateAPIKeyInput{
		Name:        "Production key",
		Permissions: []string{"read", "search"},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, key.ID)
	assert.True(t, strings.HasPrefix(key.Secret, "isk_"))
	assert.Equal(t, 3, len(strings.Split(key.Secret, "_")))
	assert.True(t, key.IsActive)
	assert.Equal(t, []string{"read", "search"}, key.Permissions)
	assert.Equal(t, key, created)

	r.keys.AssertExpectations(t)
}

func TestCreateAPIKey_SecretsAreUnique(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	r.keys.On("Create", ctx, mock.AnythingOfType("*domain.APIKey")).Return(nil)

	first, err := svc.CreateAPIKey(ctx, "user-001", "int-001", CreateAPIKeyInput{Name: "a"})
	require.NoError(t, err)
	second, err := svc.CreateAPIKey(ctx, "user-001", "int-001", CreateAPIKeyInput{Name: "b"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Secret, second.Secret)
}

func TestCreateAPIKey_MissingName(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)

	key, err := svc.CreateAPIKey(context.Background(), "user-001", "int-001", CreateAPIKeyInput{})

	assert.Nil(t, key)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	r.keys.AssertNotCalled(t, "Create")
}

func TestCreateAPIKey_MissingIDs(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)

	key, err := svc.CreateAPIKey(context.Background(), "", "int-001", CreateAPIKeyInput{Name: "k"})

	assert.Nil(t, key)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetAPIKeys_Success(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	expires := time.Now().Add(-time.Hour)
	expected := []domain.APIKey{
		{ID: "key-1", IsActive: true},
		{ID: "key-2", IsActive: true, ExpiresAt: &expires},
		{ID: "key-3", IsActive: false},
	}
	r.keys.On("ListByUser", ctx, "user-001").Return(expected, nil)

	keys, err := svc.GetAPIKeys(ctx, "user-001")

	require.NoError(t, err)
	require.Len(t, keys, 3)

	now := time.Now()
	assert.Equal(t, domain.KeyStatusActive, keys[0].DerivedStatus(now))
	assert.Equal(t, domain.KeyStatusExpired, keys[1].DerivedStatus(now))
	assert.Equal(t, domain.KeyStatusRevoked, keys[2].DerivedStatus(now))
}

func TestRevokeAPIKey_Success(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	r.keys.On("Revoke", ctx, "user-001", "key-001").Return(nil)

	err := svc.RevokeAPIKey(ctx, "user-001", "key-001")

	require.NoError(t, err)
	r.keys.AssertExpectations(t)
}

func TestRevokeAPIKey_NotFound(t *testing.T) {
	r := newTestRepos()
	svc := newTestService(r)
	ctx := context.Background()

	r.keys.On("Revoke", ctx, "user-001", "missing").Return(apperrors.ErrNotFound)

	err := svc.RevokeAPIKey(ctx, "user-001", "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

package users

import (
	"context"
	"errors"
	"testing"

	"github.com/peterphenikaa/zen8labs-auth/internal/models"
	"github.com/peterphenikaa/zen8labs-auth/internal/users/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *MemoryUserRepository) {
	t.Helper()
	repo := NewMemoryUserRepository()
	return NewService(repo, bcrypt.MinCost), repo
}

func TestRegisterAndVerify(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "  Alice@Example.com ", "Alice", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, id.ID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, "Alice", id.Name)

	stored, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.False(t, stored.CreatedAt.IsZero())

	got, err := svc.Verify(ctx, "ALICE@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id.ID, got.ID)
}

func TestVerify_Mismatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "bob@example.com", "Bob", "secret123")
	require.NoError(t, err)

	got, err := svc.Verify(ctx, "bob@example.com", "wrong-secret")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Verify(ctx, "nobody@example.com", "secret123")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Verify(ctx, "", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "", "secret123")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "carol@example.com", "", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, "carol@example.com", "", "secret123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "CAROL@example.com", "", "secret456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestFindByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id, err := svc.Register(ctx, "dave@example.com", "Dave", "secret123")
	require.NoError(t, err)

	got, err := svc.FindByID(ctx, id.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "dave@example.com", got.Email)

	got, err = svc.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVerify_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	storeErr := errors.New("connection refused")
	repo.EXPECT().FindByEmail(gomock.Any(), "eve@example.com").Return(nil, storeErr)

	svc := NewService(repo, bcrypt.MinCost)
	got, err := svc.Verify(context.Background(), "eve@example.com", "secret123")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, got)
}

func TestRegister_CreateRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	repo.EXPECT().FindByEmail(gomock.Any(), "frank@example.com").Return(nil, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.AssignableToTypeOf(&models.User{})).Return(ErrEmailTaken)

	svc := NewService(repo, bcrypt.MinCost)
	_, err := svc.Register(context.Background(), "frank@example.com", "Frank", "secret123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

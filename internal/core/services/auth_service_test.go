package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
	"github.com/novatech/repair-desk-backend/internal/core/mocks"
)

func TestAuthService_Register(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := NewAuthService(repo)

	repo.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, apperrors.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(user *domain.User) bool {
		return user.Email == "new@example.com" && user.HashedPassword != "password-123"
	})).Return(&domain.User{Email: "new@example.com", FullName: "New User"}, nil)

	user, err := svc.Register(context.Background(), "New User", "new@example.com", "password-123")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	repo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := NewAuthService(repo)

	repo.On("GetByEmail", mock.Anything, "taken@example.com").
		Return(&domain.User{Email: "taken@example.com"}, nil)

	_, err := svc.Register(context.Background(), "Dup User", "taken@example.com", "password-123")
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := NewAuthService(repo)

	repo.On("GetByEmail", mock.Anything, "weak@example.com").Return(nil, apperrors.ErrUserNotFound)

	_, err := svc.Register(context.Background(), "Weak User", "weak@example.com", "short")
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooWeak)
}

func TestAuthService_Login(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := NewAuthService(repo)

	stored, err := domain.NewUser("Known User", "known@example.com", "correct-password")
	require.NoError(t, err)
	repo.On("GetByEmail", mock.Anything, "known@example.com").Return(stored, nil)

	user, err := svc.Login(context.Background(), "known@example.com", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := NewAuthService(repo)

	stored, err := domain.NewUser("Known User", "known@example.com", "correct-password")
	require.NoError(t, err)
	repo.On("GetByEmail", mock.Anything, "known@example.com").Return(stored, nil)

	_, err = svc.Login(context.Background(), "known@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmailSameError(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := NewAuthService(repo)

	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrUserNotFound)

	// Unknown emails and wrong passwords are indistinguishable to the caller.
	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dveridom/backend/internal/auth"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func storedUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "admin@dveri.ru",
		PasswordHash: string(hash),
		IsAdmin:      true,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := auth.NewService(mockRepo, auth.NewJWTManager("test-secret", time.Hour))

	user := storedUser(t, "password123")
	mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

	result, err := svc.Login(context.Background(), user.Email, "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, user.Email, result.User.Email)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := auth.NewService(mockRepo, auth.NewJWTManager("test-secret", time.Hour))

	user := storedUser(t, "password123")
	mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

	_, err := svc.Login(context.Background(), user.Email, "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := auth.NewService(mockRepo, auth.NewJWTManager("test-secret", time.Hour))

	mockRepo.On("GetByEmail", mock.Anything, "nobody@dveri.ru").Return(nil, auth.ErrUserNotFound).Once()

	// Несуществующий email и неверный пароль дают одинаковую ошибку.
	_, err := svc.Login(context.Background(), "nobody@dveri.ru", "password123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Register_HashesPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := auth.NewService(mockRepo, auth.NewJWTManager("test-secret", time.Hour))

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
		return u.PasswordHash != "password123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Return(nil).Once()

	user, err := svc.Register(context.Background(), "admin@dveri.ru", "password123", true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := auth.NewService(mockRepo, auth.NewJWTManager("test-secret", time.Hour))

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(auth.ErrEmailExists).Once()

	_, err := svc.Register(context.Background(), "admin@dveri.ru", "password123", false)
	assert.ErrorIs(t, err, auth.ErrEmailExists)
}

package services_test

import (
	"fmt"
	"testing"

	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a testify mock of repositories.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func hashedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return &models.User{
		ID:       "U1",
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: string(hash),
		Role:     models.RoleCustomer,
		IsActive: true,
	}
}

func TestRegisterUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")

	userRepo.On("GetByEmail", "asha@example.com").Return(nil, fmt.Errorf("user: %w", repositories.ErrNotFound))
	userRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

	user := &models.User{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "plaintext-password",
	}
	err := service.RegisterUser(user)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role, "role defaults to customer")
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "plaintext-password", user.Password, "password must be stored hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("plaintext-password")))
	userRepo.AssertExpectations(t)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")

	userRepo.On("GetByEmail", "asha@example.com").Return(&models.User{ID: "U1", Email: "asha@example.com"}, nil)

	err := service.RegisterUser(&models.User{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "plaintext-password",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegisterUser_KeepsExplicitRole(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")

	userRepo.On("GetByEmail", "ravi@example.com").Return(nil, fmt.Errorf("user: %w", repositories.ErrNotFound))
	userRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

	user := &models.User{
		Name:     "Ravi",
		Email:    "ravi@example.com",
		Password: "plaintext-password",
		Role:     models.RoleFarmer,
	}
	err := service.RegisterUser(user)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleFarmer, user.Role)
}

func TestLoginUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")

	user := hashedUser(t, "correct-password")
	userRepo.On("GetByEmail", "asha@example.com").Return(user, nil)
	userRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	token, err := service.LoginUser("asha@example.com", "correct-password")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotNil(t, user.LastLogin, "login must be stamped")

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "U1", claims["user_id"])
	assert.Equal(t, "asha@example.com", claims["email"])
	assert.Equal(t, models.RoleCustomer, claims["role"])
	userRepo.AssertExpectations(t)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")

	userRepo.On("GetByEmail", "asha@example.com").Return(hashedUser(t, "correct-password"), nil)

	token, err := service.LoginUser("asha@example.com", "wrong-password")

	assert.Error(t, err)
	assert.Empty(t, token)
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginUser_UnknownEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")

	userRepo.On("GetByEmail", "nobody@example.com").Return(nil, fmt.Errorf("user: %w", repositories.ErrNotFound))

	token, err := service.LoginUser("nobody@example.com", "any-password")

	assert.Error(t, err)
	assert.Empty(t, token)
	// Same message as a wrong password, so the response does not reveal
	// whether the email exists.
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginUser_DeactivatedAccount(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")

	user := hashedUser(t, "correct-password")
	user.IsActive = false
	userRepo.On("GetByEmail", "asha@example.com").Return(user, nil)

	token, err := service.LoginUser("asha@example.com", "correct-password")

	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), "deactivated")
}

func TestValidateToken_RejectsForgedToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	service := services.NewAuthService(userRepo, "test-secret")
	otherService := services.NewAuthService(userRepo, "different-secret")

	user := hashedUser(t, "correct-password")
	userRepo.On("GetByEmail", "asha@example.com").Return(user, nil)
	userRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	token, err := otherService.LoginUser("asha@example.com", "correct-password")
	assert.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	service := services.NewAuthService(new(MockUserRepository), "test-secret")

	claims, err := service.ValidateToken("not.a.token")

	assert.Error(t, err)
	assert.Nil(t, claims)
}

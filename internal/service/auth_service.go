package service

import (
	"context"

	"testhub/internal/apperr"
	"testhub/internal/auth"
	"testhub/internal/model"
)

// AuthService signs users up and in, returning a credential for the cookie.
type AuthService struct {
	users  *UserService
	tokens *auth.TokenManager
}

func NewAuthService(users *UserService, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a test engineer. Self-registration never grants another role.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	role := model.RoleTestEngineer
	user, err := s.users.Create(ctx, UserInput{Name: &name, Email: &email, Password: &password, Role: &role})
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if apperr.IsNotFound(err) {
		return nil, "", apperr.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", apperr.Unauthorized("Invalid email or password")
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

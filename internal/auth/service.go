package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, email, password string, isAdmin bool) (*User, error)
}

type service struct {
	repo Repository
	jwt  *JWTManager
}

func NewService(repo Repository, jwtManager *JWTManager) Service {
	return &service{repo: repo, jwt: jwtManager}
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service: failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("service: failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("service: failed to sign token: %w", err)
	}

	log.Info().Str("email", email).Msg("service: user logged in")
	return &LoginResult{AccessToken: token, User: user}, nil
}

func (s *service) Register(ctx context.Context, email, password string, isAdmin bool) (*User, error) {
	if email == "" || password == "" {
		return nil, errors.New("service: email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}
	return user, nil
}

package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/pkg/logger"
)

// Service provides registration and login.
type Service struct {
	repo Repository
	jwt  *JWTService
}

// NewService creates an auth service.
func NewService(repo Repository, jwt *JWTService) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// TokenPair is the login/registration result.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        *User     `json:"user"`
}

// Register creates a new account and returns an access token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if len(password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}

	u := &User{
		ID:        id.New(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("user", "email", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	u.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "id", u.ID, "email", u.Email)
	return s.issue(u)
}

// Login verifies credentials and returns an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	return s.issue(u)
}

// GetUserByID retrieves an account.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) issue(u *User) (*TokenPair, error) {
	token, expiresAt, err := s.jwt.GenerateAccessToken(u)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &TokenPair{AccessToken: token, ExpiresAt: expiresAt, User: u}, nil
}

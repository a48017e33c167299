package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/auth"
	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/repository"
	"go.uber.org/zap"
)

type AuthService struct {
	users     *repository.UserRepo
	jwtSecret string
	ttl       time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(users *repository.UserRepo, jwtSecret string, ttl time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, ttl: ttl, log: log, now: time.Now}
}

type AuthResult struct {
	Token     string              `json:"token"`
	ExpiresAt string              `json:"expiresAt"`
	User      models.UserResponse `json:"user"`
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		s.log.Info("auth: login rejected", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Refresh issues a new token for a session that passed the middleware.
func (s *AuthService) Refresh(ctx context.Context, sess *auth.Session) (*AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, sess.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, sess *auth.Session) (*models.UserResponse, error) {
	user, err := s.users.FindByUsername(ctx, sess.Username)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// Revalidate rejects sessions that expired or whose admin was removed or
// demoted since the token was issued.
func (s *AuthService) Revalidate(ctx context.Context, sess *auth.Session) error {
	if sess.Expired(s.now()) {
		return fmt.Errorf("%w: session expired", ErrInvalidCredentials)
	}
	user, err := s.users.FindByUsername(ctx, sess.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: admin removed", ErrInvalidCredentials)
	}
	if err != nil {
		return err
	}
	if user.ID != sess.UserID || user.Role != models.RoleAdmin {
		return fmt.Errorf("%w: admin changed", ErrInvalidCredentials)
	}
	return nil
}

// SeedAdmin creates the admin account unless one with that name exists.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) error {
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil
		}
		return err
	}
	s.log.Info("auth: admin account created", zap.String("username", username))
	return nil
}

// ResetPassword replaces the password of an existing account.
func (s *AuthService) ResetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", ErrInvalidInput)
	}
	if _, err := s.users.FindByUsername(ctx, username); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, username, hash); err != nil {
		return err
	}
	s.log.Info("auth: password reset", zap.String("username", username))
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, exp, err := auth.IssueToken(s.jwtSecret, user.ID, user.Username, user.Role, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: exp.UTC().Format(time.RFC3339),
		User:      user.ToResponse(),
	}, nil
}

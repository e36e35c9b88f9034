package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/employee_registry/internal/credentials"
	"github.com/Skotchmaster/employee_registry/internal/hash"
	"github.com/Skotchmaster/employee_registry/internal/logging"
	"github.com/Skotchmaster/employee_registry/internal/tokens"
)

type AuthService struct {
	Credentials credentials.Store
	Tokens      *tokens.Manager
	TokenTTL    time.Duration
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) bool {
	h, ok := s.Credentials.PasswordHash(ctx, username)
	if !ok {
		return false
	}
	return hash.CheckPassword(h, password)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if !s.Authenticate(ctx, username, password) {
		l.Warn("login_failed", "status", 400, "reason", "incorrect username or password")
		return nil, ErrInvalidCredential
	}

	token, exp, err := s.Tokens.Issue(username, s.TokenTTL)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	l.Info("login_successful")
	return &LoginResult{AccessToken: token, AccessExp: exp}, nil
}

// ValidateToken returns the subject of a valid token issued for a known identity.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (string, error) {
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrUnknownSubject
	}
	if _, ok := s.Credentials.PasswordHash(ctx, claims.Subject); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSubject, claims.Subject)
	}
	return claims.Subject, nil
}

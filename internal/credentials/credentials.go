package credentials

import (
	"context"
	"errors"

	"github.com/Skotchmaster/employee_registry/internal/hash"
)

// Store resolves a username to its bcrypt password hash.
type Store interface {
	PasswordHash(ctx context.Context, username string) (string, bool)
}

// Static holds a single identity configured at startup.
type Static struct {
	username string
	hash     string
}

// NewStatic prefers passwordHash when given and hashes password otherwise.
func NewStatic(username, password, passwordHash string) (*Static, error) {
	if username == "" {
		return nil, errors.New("credentials: username is empty")
	}

	if passwordHash != "" {
		if !hash.IsHash(passwordHash) {
			return nil, errors.New("credentials: password hash is not a bcrypt hash")
		}
		return &Static{username: username, hash: passwordHash}, nil
	}

	if password == "" {
		return nil, errors.New("credentials: password is empty")
	}
	h, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Static{username: username, hash: h}, nil
}

func (s *Static) PasswordHash(_ context.Context, username string) (string, bool) {
	if username != s.username {
		return "", false
	}
	return s.hash, true
}

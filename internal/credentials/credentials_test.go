package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/employee_registry/internal/hash"
)

func TestNewStatic_FromPassword(t *testing.T) {
	s, err := NewStatic("admin", "password123", "")
	require.NoError(t, err)

	h, ok := s.PasswordHash(context.Background(), "admin")
	require.True(t, ok)
	assert.True(t, hash.CheckPassword(h, "password123"))

	_, ok = s.PasswordHash(context.Background(), "root")
	assert.False(t, ok)
}

func TestNewStatic_FromHash(t *testing.T) {
	h, err := hash.HashPassword("password123")
	require.NoError(t, err)

	s, err := NewStatic("admin", "ignored", h)
	require.NoError(t, err)

	got, ok := s.PasswordHash(context.Background(), "admin")
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestNewStatic_Invalid(t *testing.T) {
	_, err := NewStatic("", "password123", "")
	assert.Error(t, err)

	_, err = NewStatic("admin", "", "")
	assert.Error(t, err)

	_, err = NewStatic("admin", "", "plain-text")
	assert.Error(t, err)
}

package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL applies when Issue is called without a positive ttl.
const DefaultTTL = 15 * time.Minute

type KeyProvider interface {
	SigningKey() ([]byte, error)
}

// StaticKey is a KeyProvider holding one shared secret.
type StaticKey []byte

func (k StaticKey) SigningKey() ([]byte, error) {
	if len(k) == 0 {
		return nil, errors.New("signing key is empty")
	}
	return k, nil
}

type AccessClaims struct {
	jwt.RegisteredClaims
}

type Manager struct {
	Keys   KeyProvider
	Method jwt.SigningMethod
	Now    func() time.Time
}

func NewManager(keys KeyProvider, alg string) (*Manager, error) {
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	return &Manager{Keys: keys, Method: method, Now: time.Now}, nil
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Issue signs a token for subject that expires ttl from now.
func (m *Manager) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key, err := m.Keys.SigningKey()
	if err != nil {
		return "", time.Time{}, err
	}

	issuedAt := m.now().UTC()
	exp := issuedAt.Add(ttl)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(m.Method, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies signature, algorithm and expiry.
func (m *Manager) Parse(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.Keys.SigningKey()
	},
		jwt.WithValidMethods([]string{m.Method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("token is not valid")
	}
	return &claims, nil
}

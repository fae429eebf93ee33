package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

// KeyEnv names the environment variable holding the signing key.
const KeyEnv = "REGISTRAR_APP_KEY"

// MinKeyLength is the smallest accepted signing key, in bytes.
const MinKeyLength = 32

// ErrRejected is wrapped by every Validate failure. The wrapped text says why
// and is meant for logs only.
var ErrRejected = errors.New("token rejected")

// Directory resolves an email to a live identity.
type Directory interface {
	FindByEmail(email string) (identity.Identity, bool)
}

// Claims is the signed payload of a token.
type Claims struct {
	Email string        `json:"email"`
	Role  identity.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and checks tokens with a single symmetric key.
type Service struct {
	key []byte
	ttl time.Duration
	dir Directory
	now func() time.Time
}

// NewService creates a Service. key must be at least MinKeyLength bytes.
func NewService(key []byte, ttl time.Duration, dir Directory) (*Service, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeyLength, len(key))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &Service{key: key, ttl: ttl, dir: dir, now: time.Now}, nil
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TTL returns the lifetime of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for id that expires after the service TTL.
func (s *Service) Issue(id identity.Identity) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// Validate checks the signature and expiry of raw, then resolves its email
// through the directory. The resolved identity must hold the required role
// unless required is identity.RoleAny.
func (s *Service) Validate(raw string, required identity.Role) (*identity.Identity, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: missing token", ErrRejected)
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	id, ok := s.dir.FindByEmail(claims.Email)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a known identity", ErrRejected, claims.Email)
	}
	if id.Role != claims.Role {
		return nil, fmt.Errorf("%w: %q no longer holds role %s", ErrRejected, claims.Email, claims.Role)
	}
	if required != identity.RoleAny && id.Role != required {
		return nil, fmt.Errorf("%w: role %s required, token has %s", ErrRejected, required, id.Role)
	}
	return &id, nil
}

// LoadKey reads the signing key from REGISTRAR_APP_KEY.
func LoadKey() ([]byte, error) {
	encoded := os.Getenv(KeyEnv)
	if encoded == "" {
		return nil, fmt.Errorf("%s environment variable is required", KeyEnv)
	}
	return DecodeKey(encoded)
}

// DecodeKey decodes a base64 signing key and checks its length.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", KeyEnv, err)
	}
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("%s must decode to at least %d bytes", KeyEnv, MinKeyLength)
	}
	return key, nil
}

// GenerateKey returns a new random base64-encoded signing key.
func GenerateKey() (string, error) {
	key := make([]byte, MinKeyLength)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Package session issues and verifies the signed tokens that identify a caller by email.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer = "pixelcredits"
	DefaultTTL    = 24 * time.Hour
)

var (
	ErrMissingSigningKey = errors.New("session: signing key is required")
	ErrInvalidToken      = errors.New("session: invalid token")
)

// Claims carries the account identity. Balances are never embedded; callers re-read the account.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the verified content of a session token.
type Identity struct {
	AccountID credits.AccountID
	Email     credits.Email
}

// Manager signs and parses HS256 session tokens.
type Manager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(manager *Manager) {
		if now != nil {
			manager.now = now
		}
	}
}

// NewManager validates the signing key and applies defaults for issuer and ttl.
func NewManager(signingKey string, issuer string, ttl time.Duration, options ...Option) (*Manager, error) {
	if strings.TrimSpace(signingKey) == "" {
		return nil, ErrMissingSigningKey
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = DefaultIssuer
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	manager := &Manager{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, option := range options {
		option(manager)
	}
	return manager, nil
}

// Issue returns a signed token for account and its expiry.
func (manager *Manager) Issue(account credits.Account) (string, time.Time, error) {
	issuedAt := manager.now().UTC()
	expiresAt := issuedAt.Add(manager.ttl)
	claims := Claims{
		Email: account.Email().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID().String(),
			Issuer:    manager.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// TTL returns how long issued tokens stay valid.
func (manager *Manager) TTL() time.Duration {
	return manager.ttl
}

// Parse verifies token and returns the account it was issued for.
func (manager *Manager) Parse(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		strings.TrimSpace(token),
		claims,
		func(candidate *jwt.Token) (any, error) {
			return manager.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(manager.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(manager.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	accountID, err := credits.NewAccountID(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	email, err := credits.NewEmail(claims.Email)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return Identity{AccountID: accountID, Email: email}, nil
}

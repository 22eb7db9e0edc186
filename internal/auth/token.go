package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every token rejection: malformed, expired, bad
// signature or unknown role.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the signed payload carried by an access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	ID       int64  `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a manager. A non-positive ttl defaults to 24 hours.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for identity and reports when it expires.
func (m *TokenManager) Issue(identity Identity) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Username: identity.Username,
		Role:     string(identity.Role),
		ID:       identity.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies signature and expiry and decodes the identity.
func (m *TokenManager) Parse(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	role, ok := ParseRole(claims.Role)
	if !ok || claims.ID <= 0 {
		return Identity{}, ErrInvalidToken
	}

	return Identity{ID: claims.ID, Username: claims.Username, Role: role}, nil
}

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrInvalidCredentials is returned when a username/password pair is rejected.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Role governs which endpoints an identity may call.
type Role string

// Known roles.
const (
	RoleAdmin   Role = "Admin"
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

// ParseRole matches input against the known roles case-insensitively.
func ParseRole(input string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "admin":
		return RoleAdmin, true
	case "teacher":
		return RoleTeacher, true
	case "student":
		return RoleStudent, true
	default:
		return "", false
	}
}

// Identity is the verified subject of a token. It lives for one request.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IdentityProvider checks credentials and resolves the identity they belong to.
type IdentityProvider interface {
	Authenticate(ctx context.Context, username, password string) (Identity, error)
}

// StaticProvider accepts exactly one configured credential pair. It stands in
// for a real user store and always yields the Teacher identity with id 1.
type StaticProvider struct {
	username string
	password string
}

// NewStaticProvider constructs a provider for the given credential pair.
func NewStaticProvider(username, password string) *StaticProvider {
	return &StaticProvider{username: username, password: password}
}

func (p *StaticProvider) Authenticate(_ context.Context, username, password string) (Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(p.username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(p.password), []byte(password)) == 1
	if p.username == "" || !userOK || !passOK {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{ID: 1, Username: p.username, Role: RoleTeacher}, nil
}

package core

import (
	"context"
	"errors"
)

// User is the identity record held by the credential store. Password carries
// the plaintext only while a registration request is in flight; it is hashed
// before it reaches the database and is never written back out.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

type UserWithoutSecrets struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

var (
	ErrConflictedUser = errors.New("user already exists")
)

type UserStore interface {
	// CreateUser registers a new user and returns the created record.
	// It returns ErrConflictedUser when the username is already taken.
	CreateUser(ctx context.Context, user User) (*UserWithoutSecrets, error)

	// GetUserByUsername returns nil without an error when no user matches.
	GetUserByUsername(ctx context.Context, username string) (*UserWithoutSecrets, error)

	// ComparePassword reports whether password matches the stored hash for
	// username. An unknown username reports false, not an error.
	ComparePassword(ctx context.Context, username, password string) (bool, error)
}

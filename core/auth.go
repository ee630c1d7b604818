package core

import (
	"context"
	"fmt"
)

// RejectReason classifies why a verifier turned a request away. It is logged
// server-side only; clients always see the same generic unauthorized body.
type RejectReason string

const (
	NoCredentials  RejectReason = "no credentials"
	BadCredentials RejectReason = "bad credentials"
	ExpiredSession RejectReason = "expired session"
	InvalidToken   RejectReason = "invalid token"
	ExpiredToken   RejectReason = "expired token"
)

// AuthResult is the outcome of any credential verification: either an
// authenticated user id or a rejection reason, never both.
type AuthResult struct {
	UserID string
	Reason RejectReason
}

func Authenticated(userID string) AuthResult {
	return AuthResult{UserID: userID}
}

func Rejected(reason RejectReason) AuthResult {
	return AuthResult{Reason: reason}
}

func (r AuthResult) OK() bool {
	return r.Reason == ""
}

// LocalVerifier checks a username/password pair against the credential store.
type LocalVerifier struct {
	users UserStore
}

func NewLocalVerifier(users UserStore) *LocalVerifier {
	return &LocalVerifier{users: users}
}

// Verify rejects an unknown username and a wrong password with the same
// reason so callers cannot probe which usernames exist.
func (v *LocalVerifier) Verify(ctx context.Context, username, password string) (AuthResult, error) {
	user, err := v.users.GetUserByUsername(ctx, username)
	if err != nil {
		return AuthResult{}, fmt.Errorf("get user by username: %w", err)
	}

	if user == nil {
		return Rejected(BadCredentials), nil
	}

	ok, err := v.users.ComparePassword(ctx, username, password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("compare password: %w", err)
	}

	if !ok {
		return Rejected(BadCredentials), nil
	}

	return Authenticated(user.ID), nil
}

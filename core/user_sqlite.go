package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type SQLiteUserStore struct {
	db *sql.DB
}

func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{
		db: db,
	}
}

func (s *SQLiteUserStore) CreateUser(ctx context.Context, user User) (*UserWithoutSecrets, error) {
	eu, err := s.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("checking if user exists: %w", err)
	}

	if eu != nil {
		return nil, ErrConflictedUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	id := uuid.NewString()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, username, password) VALUES (@id, @name, @username, @password)",
		sql.Named("id", id),
		sql.Named("name", user.Name),
		sql.Named("username", user.Username),
		sql.Named("password", string(hashed)))
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &UserWithoutSecrets{ID: id, Name: user.Name, Username: user.Username}, nil
}

func (s *SQLiteUserStore) GetUserByUsername(ctx context.Context, username string) (*UserWithoutSecrets, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, username FROM users WHERE username = ? LIMIT 1", username)

	user := new(UserWithoutSecrets)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("scanning user: %w", err)
	}

	return user, nil
}

func (s *SQLiteUserStore) ComparePassword(ctx context.Context, username, password string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT password FROM users WHERE username = ? LIMIT 1", username)

	var storedPassword string

	err := row.Scan(&storedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("scanning password: %w", err)
	}

	// bcrypt's comparison is constant time over the hash; never compare
	// password bytes directly.
	if err := bcrypt.CompareHashAndPassword([]byte(storedPassword), []byte(password)); err != nil {
		return false, nil
	}

	return true, nil
}

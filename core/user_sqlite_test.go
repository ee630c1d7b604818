package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type UserFixture struct {
	*BaseFixture
	userStore UserStore
}

func NewUserFixture(t *testing.T) *UserFixture {
	base := NewBaseFixture(t)
	userStore := NewSQLiteUserStore(base.db)
	return &UserFixture{
		BaseFixture: base,
		userStore:   userStore,
	}
}

var user = User{
	Username: "username",
	Password: "password",
	Name:     "User",
}

func TestCreateUser(t *testing.T) {
	t.Run("successfully create user", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()

		created, err := f.userStore.CreateUser(f.ctx, user)
		require.Nil(t, err)
		require.NotNil(t, created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, user.Username, created.Username)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		created, err := f.userStore.CreateUser(f.ctx, user)
		require.Nil(t, created)
		require.NotNil(t, err)
		assert.Equal(t, ErrConflictedUser, err)
	})

	t.Run("plaintext password is not stored", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		row := f.db.QueryRowContext(f.ctx,
			"SELECT password FROM users WHERE username = ?", user.Username)
		var stored string
		require.Nil(t, row.Scan(&stored))
		assert.NotEqual(t, user.Password, stored)
		assert.NotEmpty(t, stored)
	})
}

func TestGetUserByUsername(t *testing.T) {
	t.Run("unknown username returns nil", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()

		got, err := f.userStore.GetUserByUsername(f.ctx, "nobody")
		require.Nil(t, err)
		assert.Nil(t, got)
	})

	t.Run("existing user", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()
		created := seedUsers(f.ctx, f.t, f.userStore, user)

		got, err := f.userStore.GetUserByUsername(f.ctx, user.Username)
		require.Nil(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created[0].ID, got.ID)
		assert.Equal(t, user.Username, got.Username)
	})
}

func TestComparePassword(t *testing.T) {
	t.Run("matching password", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		ok, err := f.userStore.ComparePassword(f.ctx, user.Username, user.Password)
		require.Nil(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		ok, err := f.userStore.ComparePassword(f.ctx, user.Username, user.Password+"69")
		require.Nil(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := NewUserFixture(t)
		defer f.tearDown()

		ok, err := f.userStore.ComparePassword(f.ctx, "nobody", "whatever")
		require.Nil(t, err)
		assert.False(t, ok)
	})
}

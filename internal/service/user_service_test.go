package service

import (
	"context"
	"testing"

	"blogicum/internal/authz"
	"blogicum/internal/models"
	"blogicum/internal/routes"
	"blogicum/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(users *userRepoStub) *UserService {
	svc := NewUserService(users)
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub(&models.User{ID: 1, Username: "alice"})
	svc := newTestUserService(users)
	ctx := context.Background()

	user, err := svc.Register(ctx, validation.RegistrationForm{
		Username: "carol", Email: "Carol@Example.com", Password1: "mountain42", Password2: "mountain42",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	assert.Equal(t, "carol@example.com", user.Email)
	assert.NotEqual(t, "mountain42", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("mountain42")))

	_, err = svc.Register(ctx, validation.RegistrationForm{
		Username: "alice", Password1: "mountain42", Password2: "mountain42",
	})
	assert.Equal(t, msgUsernameTaken, assertFieldError(t, err, "username"))

	_, err = svc.Register(ctx, validation.RegistrationForm{
		Username: "dave", Password1: "mountain42", Password2: "mountain43",
	})
	assertFieldError(t, err, "password2")
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	svc := newTestUserService(newUserRepoStub())
	ctx := context.Background()
	_, err := svc.Register(ctx, validation.RegistrationForm{
		Username: "carol", Password1: "mountain42", Password2: "mountain42",
	})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, validation.LoginForm{Username: " carol ", Password: "mountain42"})
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)

	_, err = svc.Authenticate(ctx, validation.LoginForm{Username: "carol", Password: "wrong-pass1"})
	assert.Equal(t, msgBadCredentials, assertFieldError(t, err, "__all__"))

	_, err = svc.Authenticate(ctx, validation.LoginForm{Username: "nobody", Password: "mountain42"})
	assertFieldError(t, err, "__all__")

	_, err = svc.Authenticate(ctx, validation.LoginForm{})
	assertFieldError(t, err, "username")
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub(
		&models.User{ID: 1, Username: "alice", Password: "hash"},
		&models.User{ID: 2, Username: "bob", Password: "hash"},
	)
	svc := newTestUserService(users)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, authz.Anonymous, validation.ProfileForm{Username: "x"})
	assertLoginRequired(t, err, routes.EditProfile)

	_, err = svc.UpdateProfile(ctx, alice, validation.ProfileForm{Username: "bob"})
	assert.Equal(t, msgUsernameTaken, assertFieldError(t, err, "username"))

	user, err := svc.UpdateProfile(ctx, alice, validation.ProfileForm{
		Username: "alice", FirstName: " Alice ", LastName: "Liddell", Email: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "Alice Liddell", user.FullName())

	stored, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.Equal(t, "hash", stored.Password, "profile edits never touch the password")

	renamed, err := svc.UpdateProfile(ctx, alice, validation.ProfileForm{Username: "alice2"})
	require.NoError(t, err)
	assert.Equal(t, "alice2", renamed.Username)
	assert.Empty(t, renamed.FirstName)

	users.updateErr = models.NewConflictError("duplicate")
	_, err = svc.UpdateProfile(ctx, alice, validation.ProfileForm{Username: "alice3"})
	assertFieldError(t, err, "username")

	users.updateErr = nil
	_, err = svc.UpdateProfile(ctx, authz.Viewer{ID: 99, Username: "ghost"}, validation.ProfileForm{Username: "ghost"})
	assert.True(t, models.IsNotFound(err))
	other, err := users.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", other.Username)
}

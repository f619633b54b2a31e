package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/paymybuddy/paymybuddy-be/internal/models"
)

func TestCreateUser_ValidEmail(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user, err := svc.CreateUser("username@domain.com", "ABCDEF123")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "username@domain.com", user.Email)
	assert.True(t, user.Balance.IsZero(), "new accounts must start with a zero balance")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("ABCDEF123")))

	// Persisted exactly once
	stored, err := svc.GetUserByEmail("username@domain.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.CreateUser("username@domain", "ABCDEF123")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestCreateUser_EmailAlreadyUsed(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.CreateUser("username@domain.com", "ABCDEF123")
	require.NoError(t, err)

	_, err = svc.CreateUser("username@domain.com", "XYZ987")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)

	// Duplicate detection is case-insensitive
	_, err = svc.CreateUser("Username@Domain.COM", "XYZ987")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestUpdateUser_InvalidEmail(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := mustCreateUser(t, svc, "bingchandler@friends.com", "Chandler", "Bing")
	user.Email = "username@domain"

	_, err := svc.UpdateUser(user)
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestUpdateUser_EmailNotFound(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := models.User{
		Email:     "otheremail@mail.com",
		FirstName: "Joey",
		LastName:  "Tribbiani",
	}

	_, err := svc.UpdateUser(user)
	assert.ErrorIs(t, err, ErrBuddyNotFound)
}

func TestUpdateUser_UpdatesLastName(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := mustCreateUser(t, svc, "bingchandler@friends.com", "Chandler", "Bing")
	hashBefore := user.PasswordHash

	user.LastName = "Bing-Geller"
	updated, err := svc.UpdateUser(user)
	require.NoError(t, err)
	assert.Equal(t, "Bing-Geller", updated.LastName)

	stored, err := svc.GetUserByEmail("bingchandler@friends.com")
	require.NoError(t, err)
	assert.Equal(t, "Bing-Geller", stored.LastName)
	// The stored credential is reused, never re-hashed
	assert.Equal(t, hashBefore, stored.PasswordHash)
}

func TestUpdateUser_PreservesBalance(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := mustCreateUser(t, svc, "bingchandler@friends.com", "Chandler", "Bing")
	user.Balance = decimal.RequireFromString("3000.00")

	updated, err := svc.UpdateUser(user)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("3000.00")))

	stored, err := svc.GetUserByEmail("bingchandler@friends.com")
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("3000.00")))
}

func TestDeposit_AddsAmount(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := models.User{Balance: decimal.RequireFromString("2509.56")}
	require.NoError(t, svc.Deposit(&user, "490.44"))

	assert.True(t, user.Balance.Equal(decimal.RequireFromString("3000.00")))
}

func TestDeposit_StripsSign(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := models.User{Balance: decimal.RequireFromString("2509.56")}
	require.NoError(t, svc.Deposit(&user, "-490.44"))

	// "-490.44" is treated as the positive magnitude 490.44
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("3000.00")))
}

func TestWithdraw_SubtractsAmount(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := models.User{Balance: decimal.RequireFromString("2509.56")}
	require.NoError(t, svc.Withdraw(&user, "509.56"))

	assert.True(t, user.Balance.Equal(decimal.RequireFromString("2000.00")))
}

func TestWithdraw_StripsSign(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := models.User{Balance: decimal.RequireFromString("2509.56")}
	require.NoError(t, svc.Withdraw(&user, "-509.56"))

	assert.True(t, user.Balance.Equal(decimal.RequireFromString("2000.00")))
}

func TestDeposit_InvalidAmount(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := models.User{Balance: decimal.Zero}
	assert.ErrorIs(t, svc.Deposit(&user, "not-a-number"), ErrInvalidAmount)
}

func TestDeposit_DoesNotPersist(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user := mustCreateUser(t, svc, "bingchandler@friends.com", "Chandler", "Bing")
	require.NoError(t, svc.Deposit(&user, "490.44"))

	// The mutation is in-memory only until the caller saves
	stored, err := svc.GetUserByEmail("bingchandler@friends.com")
	require.NoError(t, err)
	assert.True(t, stored.Balance.IsZero())

	require.NoError(t, svc.SaveBalance(user))
	stored, err = svc.GetUserByEmail("bingchandler@friends.com")
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("490.44")))
}

func TestGetUsers_PreservesOrderAndFields(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	chandler := mustCreateUser(t, svc, "bingchandler@friends.com", "Chandler", "Bing")
	joey := mustCreateUser(t, svc, "otheremail@mail.com", "Joey", "Tribbiani")

	chandler.Balance = decimal.RequireFromString("2509.56")
	require.NoError(t, svc.SaveBalance(chandler))

	views, err := svc.GetUsers()
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, chandler.Email, views[0].Email)
	assert.Equal(t, "Chandler", views[0].FirstName)
	assert.Equal(t, "Bing", views[0].LastName)
	assert.True(t, views[0].Balance.Equal(decimal.RequireFromString("2509.56")))

	assert.Equal(t, joey.Email, views[1].Email)
	assert.Equal(t, "Joey", views[1].FirstName)
	assert.Equal(t, "Tribbiani", views[1].LastName)
	assert.True(t, views[1].Balance.IsZero())
}

func TestAuthenticateUser(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.CreateUser("bingchandler@friends.com", "CouldIBeAnyMoreBored")
	require.NoError(t, err)

	user, err := svc.AuthenticateUser("bingchandler@friends.com", "CouldIBeAnyMoreBored")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	_, err = svc.AuthenticateUser("bingchandler@friends.com", "HowUDoin")
	assert.Error(t, err)

	_, err = svc.AuthenticateUser("nobody@friends.com", "CouldIBeAnyMoreBored")
	assert.Error(t, err)
}

func TestUpdatePassword(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user, err := svc.CreateUser("bingchandler@friends.com", "CouldIBeAnyMoreBored")
	require.NoError(t, err)

	require.Error(t, svc.UpdatePassword(user.ID, "wrong-password", "NewPassword123"))
	require.NoError(t, svc.UpdatePassword(user.ID, "CouldIBeAnyMoreBored", "NewPassword123"))

	_, err = svc.AuthenticateUser("bingchandler@friends.com", "NewPassword123")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user, err := svc.CreateUser("bingchandler@friends.com", "CouldIBeAnyMoreBored")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(user.ID))

	_, err = svc.GetUserByID(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
